package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicguard/logicguard/internal/analysis"
	"github.com/logicguard/logicguard/internal/provider"
)

func TestAnalyze(t *testing.T) {
	t.Run("returns normalized result", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/api/analyze", "",
			AnalyzeRequest{Code: "print('hi')", Language: "python"})
		require.Equal(t, http.StatusOK, rec.Code)

		var result analysis.Result
		e := decodeEnvelope(t, rec, &result)
		assert.True(t, e.Success)
		assert.Equal(t, 85, result.Score)
		assert.NotNil(t, result.Bugs)
		assert.NotNil(t, result.Optimizations)

		require.NotNil(t, env.analyzer.lastAnalyze)
		assert.Equal(t, "print('hi')", env.analyzer.lastAnalyze.Code)
		assert.Zero(t, env.analyzer.lastAnalyze.UserID)
	})

	t.Run("session attaches user id", func(t *testing.T) {
		env := newTestEnv(t)
		user, token := env.register(t, "ada@example.com")

		rec := env.do(t, http.MethodPost, "/api/analyze", token,
			AnalyzeRequest{Code: "x = 1", Language: "python", ProjectID: 7})
		require.Equal(t, http.StatusOK, rec.Code)

		require.NotNil(t, env.analyzer.lastAnalyze)
		assert.Equal(t, user.ID, env.analyzer.lastAnalyze.UserID)
		assert.Equal(t, int64(7), env.analyzer.lastAnalyze.ProjectID)
	})

	t.Run("input error is a 400", func(t *testing.T) {
		env := newTestEnv(t)
		env.analyzer.err = analysis.ErrEmptyCode

		rec := env.do(t, http.MethodPost, "/api/analyze", "",
			AnalyzeRequest{Code: "", Language: "python"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeEnvelope(t, rec, nil)
		assert.False(t, e.Success)
		assert.Equal(t, "no code provided for analysis", e.Error)
	})

	t.Run("invalid AI response is a 502", func(t *testing.T) {
		env := newTestEnv(t)
		env.analyzer.err = analysis.ErrInvalidResponse

		rec := env.do(t, http.MethodPost, "/api/analyze", "",
			AnalyzeRequest{Code: "x = 1", Language: "python"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		e := decodeEnvelope(t, rec, nil)
		assert.Equal(t, "invalid AI response", e.Error)
	})

	t.Run("transient upstream failure is a retryable 502", func(t *testing.T) {
		env := newTestEnv(t)
		env.analyzer.err = &provider.ServerError{StatusCode: 503, Body: "overloaded"}

		rec := env.do(t, http.MethodPost, "/api/analyze", "",
			AnalyzeRequest{Code: "x = 1", Language: "python"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		e := decodeEnvelope(t, rec, nil)
		assert.Contains(t, e.Error, "temporarily unavailable")
	})

	t.Run("upstream auth failure is a distinct 502", func(t *testing.T) {
		env := newTestEnv(t)
		env.analyzer.err = &provider.AuthError{Message: "bad key"}

		rec := env.do(t, http.MethodPost, "/api/analyze", "",
			AnalyzeRequest{Code: "x = 1", Language: "python"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		e := decodeEnvelope(t, rec, nil)
		assert.Contains(t, e.Error, "credentials")
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/api/analyze", "", "not-an-object")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChat(t *testing.T) {
	t.Run("returns raw answer", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/api/chat", "", ChatRequest{
			Code:     "print('hi')",
			Language: "python",
			Question: "What does this do?",
			ChatHistory: []analysis.ChatTurn{
				{Role: "user", Content: "earlier question"},
				{Role: "assistant", Content: "earlier answer"},
			},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var data ChatResponse
		e := decodeEnvelope(t, rec, &data)
		assert.True(t, e.Success)
		assert.Equal(t, "It prints hi.", data.Answer)
		assert.Contains(t, rec.Body.String(), `"answer":`)

		require.NotNil(t, env.analyzer.lastChat)
		assert.Len(t, env.analyzer.lastChat.History, 2)
	})

	t.Run("missing question is a 400", func(t *testing.T) {
		env := newTestEnv(t)
		env.analyzer.err = analysis.ErrEmptyQuestion

		rec := env.do(t, http.MethodPost, "/api/chat", "",
			ChatRequest{Code: "x = 1", Language: "python"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeEnvelope(t, rec, nil)
		assert.Equal(t, "no question provided", e.Error)
	})
}

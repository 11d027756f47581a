package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/logicguard/logicguard/internal/analysis"
	"github.com/logicguard/logicguard/internal/auth"
	"github.com/logicguard/logicguard/internal/store"
)

// fakeAnalyzer is a scripted analysis.Service.
type fakeAnalyzer struct {
	result *analysis.Result
	reply  string
	err    error

	lastAnalyze *analysis.Request
	lastChat    *analysis.ChatRequest
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req *analysis.Request) (*analysis.Result, error) {
	f.lastAnalyze = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAnalyzer) Chat(_ context.Context, req *analysis.ChatRequest) (string, error) {
	f.lastChat = req
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func goodResult() *analysis.Result {
	return &analysis.Result{
		Score:         85,
		Summary:       "Looks good.",
		Bugs:          []analysis.Finding{},
		Optimizations: []analysis.Suggestion{},
		Positives:     []string{"Clear naming"},
		Metrics: analysis.Metrics{
			Complexity:      analysis.ComplexityLow,
			Readability:     90,
			Maintainability: 80,
			Security:        70,
		},
	}
}

type testEnv struct {
	server   *Server
	store    *store.Store
	auth     auth.Service
	analyzer *fakeAnalyzer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	authSvc, err := auth.NewService(auth.Config{SessionTTL: time.Hour}, st, zap.NewNop())
	require.NoError(t, err)

	analyzer := &fakeAnalyzer{result: goodResult(), reply: "It prints hi."}

	srv, err := NewServer(analyzer, authSvc, st, zap.NewNop(), &Config{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)

	return &testEnv{server: srv, store: st, auth: authSvc, analyzer: analyzer}
}

// register creates an account and returns its bearer token.
func (env *testEnv) register(t *testing.T, email string) (*store.User, string) {
	t.Helper()
	user, token, err := env.auth.Register(context.Background(), email, "correct-horse", "Test")
	require.NoError(t, err)
	return user, token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

// decodeEnvelope unwraps the {success, data, error} wrapper, decoding data
// into out when non-nil.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, out any) envelope {
	t.Helper()

	var env envelope
	raw := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	env.Success = raw.Success
	env.Error = raw.Error
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return env
}

func TestNewServer(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	authSvc, err := auth.NewService(auth.Config{}, st, zap.NewNop())
	require.NoError(t, err)

	analyzer := &fakeAnalyzer{}

	t.Run("requires analyzer", func(t *testing.T) {
		_, err := NewServer(nil, authSvc, st, zap.NewNop(), nil)
		assert.Error(t, err)
	})

	t.Run("requires auth service", func(t *testing.T) {
		_, err := NewServer(analyzer, nil, st, zap.NewNop(), nil)
		assert.Error(t, err)
	})

	t.Run("requires store", func(t *testing.T) {
		_, err := NewServer(analyzer, authSvc, nil, zap.NewNop(), nil)
		assert.Error(t, err)
	})

	t.Run("requires logger", func(t *testing.T) {
		_, err := NewServer(analyzer, authSvc, st, nil, nil)
		assert.Error(t, err)
	})

	t.Run("defaults config", func(t *testing.T) {
		s, err := NewServer(analyzer, authSvc, st, zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, 5000, s.config.Port)
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var data HealthResponse
	e := decodeEnvelope(t, rec, &data)
	assert.True(t, e.Success)
	assert.Equal(t, "ok", data.Status)
}

func TestSupportedLanguages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/supported-languages", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var langs []analysis.Language
	decodeEnvelope(t, rec, &langs)
	require.Len(t, langs, 8)
	assert.Equal(t, "python", langs[0].ID)
	assert.Equal(t, ".py", langs[0].Extension)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// Drive one request through the chain so the counters exist.
	env.do(t, http.MethodGet, "/api/health", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMetricsCountErrorStatuses(t *testing.T) {
	env := newTestEnv(t)

	// Failed requests must be counted under the status the client saw,
	// not the pre-error default of 200.
	rec := env.do(t, http.MethodGet, "/api/history", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `status="401"`)
}

func TestRateLimiting(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	authSvc, err := auth.NewService(auth.Config{}, st, zap.NewNop())
	require.NoError(t, err)

	srv, err := NewServer(&fakeAnalyzer{}, authSvc, st, zap.NewNop(),
		&Config{Host: "127.0.0.1", Port: 0, RateLimit: 1, RateBurst: 1})
	require.NoError(t, err)

	var statuses []int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.1.2.3:4444"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Contains(t, statuses, http.StatusTooManyRequests)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	e := decodeEnvelope(t, rec, nil)
	assert.False(t, e.Success)
	assert.NotEmpty(t, e.Error)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON))
}

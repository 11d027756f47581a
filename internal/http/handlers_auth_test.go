package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicguard/logicguard/internal/store"
)

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("creates account with session", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "",
			RegisterRequest{Email: "ada@example.com", Password: "correct-horse", Name: "Ada"})
		require.Equal(t, http.StatusCreated, rec.Code)

		var data SessionResponse
		e := decodeEnvelope(t, rec, &data)
		assert.True(t, e.Success)
		assert.NotEmpty(t, data.Token)
		assert.Equal(t, "ada@example.com", data.User.Email)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "",
			RegisterRequest{Email: "ada@example.com", Password: "correct-horse"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "",
			RegisterRequest{Email: "new@example.com", Password: "short"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeEnvelope(t, rec, nil)
		assert.Contains(t, e.Error, "password")
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ada@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "",
			LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
		require.Equal(t, http.StatusOK, rec.Code)

		var data SessionResponse
		decodeEnvelope(t, rec, &data)
		assert.NotEmpty(t, data.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "",
			LoginRequest{Email: "ada@example.com", Password: "wrong-horse"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		e := decodeEnvelope(t, rec, nil)
		assert.False(t, e.Success)
	})
}

func TestOAuthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown provider", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/oauth", "",
			OAuthRequest{Provider: "gitlab"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/oauth", "",
			OAuthRequest{Provider: "github"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeEnvelope(t, rec, nil)
		assert.Contains(t, e.Error, "not configured")
	})
}

func TestMeAndLogout(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.register(t, "ada@example.com")

	t.Run("me requires session", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me returns the user without secrets", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var data store.User
		decodeEnvelope(t, rec, &data)
		assert.Equal(t, user.ID, data.ID)
		assert.NotContains(t, rec.Body.String(), "password_hash")
	})

	t.Run("logout invalidates the token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

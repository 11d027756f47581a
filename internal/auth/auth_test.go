package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/logicguard/logicguard/internal/store"
)

func newTestService(t *testing.T) (*service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc, err := NewService(Config{SessionTTL: time.Hour}, st, zap.NewNop())
	require.NoError(t, err)
	return svc.(*service), st
}

func TestNewService(t *testing.T) {
	t.Run("requires store", func(t *testing.T) {
		_, err := NewService(Config{}, nil, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("defaults session ttl", func(t *testing.T) {
		svc, _ := newTestService(t)
		assert.Positive(t, svc.cfg.SessionTTL)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	t.Run("creates account and session", func(t *testing.T) {
		user, token, err := svc.Register(ctx, "Ada@Example.com", "correct-horse", "Ada")
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "email", user.Provider)
		assert.NotEmpty(t, token)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "correct-horse", user.PasswordHash)

		resolved, err := svc.UserFromToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "ada@example.com", "another-pass", "Ada")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "new@example.com", "short", "")
		assert.Error(t, err)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		for _, email := range []string{"", "no-at-sign", "@example.com", "ada@"} {
			_, _, err := svc.Register(ctx, email, "correct-horse", "")
			assert.Error(t, err, "email %q", email)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, _, err := svc.Register(ctx, "ada@example.com", "correct-horse", "Ada")
	require.NoError(t, err)

	t.Run("succeeds with correct password", func(t *testing.T) {
		user, token, err := svc.Login(ctx, "ada@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.NotEmpty(t, token)
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ADA@Example.COM", "correct-horse")
		assert.NoError(t, err)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ada@example.com", "wrong-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email compares against a real hash", func(t *testing.T) {
		// A malformed dummy hash would make bcrypt bail before doing any
		// work, leaking account existence through timing.
		cost, err := bcrypt.Cost([]byte(dummyPasswordHash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, cost)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, token, err := svc.Register(ctx, "ada@example.com", "correct-horse", "Ada")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.UserFromToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Logout is idempotent.
	assert.NoError(t, svc.Logout(ctx, token))
}

func TestUserFromToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.UserFromToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.UserFromToken(ctx, "not-a-session")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)

	assert.True(t, CheckPassword(hash, "correct-horse"))
	assert.False(t, CheckPassword(hash, "wrong-horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct-horse"))
}

// Package auth provides account registration, login, OAuth sign-in, and
// bearer-token session management.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/logicguard/logicguard/internal/store"
)

var (
	// ErrInvalidCredentials is returned when an email/password pair does
	// not match an account.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidToken is returned when a bearer token does not match a
	// live session.
	ErrInvalidToken = errors.New("invalid or expired session")

	// ErrUnknownProvider is returned for OAuth providers other than
	// github and google.
	ErrUnknownProvider = errors.New("unknown oauth provider")
)

// InputError is a request-validation failure the caller can fix.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// IsInputError reports whether err is a request-validation failure.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

const minPasswordLen = 8

// dummyPasswordHash is a well-formed bcrypt hash (of an arbitrary string,
// at default cost) compared against when an email has no account, so
// unknown emails cost the same as wrong passwords.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Store is the persistence surface the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, u *store.User) (*store.User, error)
	GetUser(ctx context.Context, id int64) (*store.User, error)
	GetUserByProvider(ctx context.Context, provider, providerID string) (*store.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
	CreateSession(ctx context.Context, token string, userID int64, ttl time.Duration) (*store.Session, error)
	GetSession(ctx context.Context, token string) (*store.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Config holds session and OAuth settings.
type Config struct {
	SessionTTL         time.Duration
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// Service manages accounts and sessions.
type Service interface {
	// Register creates an email/password account and opens a session.
	Register(ctx context.Context, email, password, name string) (*store.User, string, error)

	// Login verifies an email/password pair and opens a session.
	Login(ctx context.Context, email, password string) (*store.User, string, error)

	// OAuthURL returns the provider's authorization URL for the given
	// anti-forgery state.
	OAuthURL(provider, state string) (string, error)

	// OAuthExchange trades an authorization code for a profile, creating
	// the account on first sign-in, and opens a session.
	OAuthExchange(ctx context.Context, provider, code string) (*store.User, string, error)

	// Logout deletes the session for token. Unknown tokens are ignored.
	Logout(ctx context.Context, token string) error

	// UserFromToken resolves a bearer token to its user.
	UserFromToken(ctx context.Context, token string) (*store.User, error)
}

type service struct {
	cfg    Config
	store  Store
	logger *zap.Logger

	github *oauthProvider
	google *oauthProvider
	client *http.Client
}

// NewService creates the auth service.
func NewService(cfg Config, st Store, logger *zap.Logger) (Service, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	return &service{
		cfg:    cfg,
		store:  st,
		logger: logger.Named("auth"),
		github: newGitHubProvider(cfg),
		google: newGoogleProvider(cfg),
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *service) Register(ctx context.Context, email, password, name string) (*store.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	if len(password) < minPasswordLen {
		return nil, "", &InputError{Message: fmt.Sprintf("password must be at least %d characters", minPasswordLen)}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &store.User{
		Provider:     "email",
		ProviderID:   email,
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, "", ErrEmailTaken
	}
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return s.openSession(ctx, user)
}

func (s *service) Login(ctx context.Context, email, password string) (*store.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByProvider(ctx, "email", email)
	if errors.Is(err, store.ErrNotFound) {
		CheckPassword(dummyPasswordHash, password)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	if err := s.store.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return s.openSession(ctx, user)
}

func (s *service) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

func (s *service) UserFromToken(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	sess, err := s.store.GetSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, sess.UserID)
}

// openSession issues a fresh opaque token for the user.
func (s *service) openSession(ctx context.Context, user *store.User) (*store.User, string, error) {
	token := uuid.NewString()
	if _, err := s.store.CreateSession(ctx, token, user.ID, s.cfg.SessionTTL); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}
	return user, token, nil
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return &InputError{Message: "invalid email address"}
	}
	return nil
}

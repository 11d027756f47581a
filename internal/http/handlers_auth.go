package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/logicguard/logicguard/internal/auth"
	"github.com/logicguard/logicguard/internal/store"
)

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OAuthRequest is the request body for POST /api/auth/oauth. Without a
// code it starts the flow (the data payload carries the authorization
// URL); with a code it completes the exchange and opens a session.
type OAuthRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code,omitempty"`
	State    string `json:"state,omitempty"`
}

// OAuthURLResponse is the data payload for the start of the OAuth flow.
type OAuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// SessionResponse is the data payload for a successful sign-in.
type SessionResponse struct {
	User  *store.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, token, err := s.auth.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if errors.Is(err, auth.ErrEmailTaken) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return authHTTPError(err)
	}
	return respondOK(c, http.StatusCreated, SessionResponse{User: user, Token: token})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, token, err := s.auth.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return authHTTPError(err)
	}
	return respondOK(c, http.StatusOK, SessionResponse{User: user, Token: token})
}

func (s *Server) handleOAuth(c echo.Context) error {
	var req OAuthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Code == "" {
		state := req.State
		if state == "" {
			state = uuid.NewString()
		}
		url, err := s.auth.OAuthURL(req.Provider, state)
		if err != nil {
			return authHTTPError(err)
		}
		return respondOK(c, http.StatusOK, OAuthURLResponse{URL: url, State: state})
	}

	user, token, err := s.auth.OAuthExchange(c.Request().Context(), req.Provider, req.Code)
	if err != nil {
		s.logger.Warn("oauth exchange failed",
			zap.String("provider", req.Provider),
			zap.Error(err))
		return authHTTPError(err)
	}
	return respondOK(c, http.StatusOK, SessionResponse{User: user, Token: token})
}

func (s *Server) handleLogout(c echo.Context) error {
	if err := s.auth.Logout(c.Request().Context(), auth.TokenFrom(c)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to end session")
	}
	return respondOK(c, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleMe(c echo.Context) error {
	user, _ := auth.UserFrom(c)
	return respondOK(c, http.StatusOK, user)
}

// authHTTPError maps auth service errors: validation failures are the
// caller's fault, anything else is internal.
func authHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, auth.ErrUnknownProvider), auth.IsInputError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "authentication failed")
	}
}

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/logicguard/logicguard/internal/store"
)

const (
	userContextKey  = "auth.user"
	tokenContextKey = "auth.token"
)

// Middleware requires a valid bearer token and attaches the user to the
// request context.
func Middleware(svc Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request())
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			user, err := svc.UserFromToken(c.Request().Context(), token)
			if errors.Is(err, ErrInvalidToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve session")
			}

			c.Set(userContextKey, user)
			c.Set(tokenContextKey, token)
			return next(c)
		}
	}
}

// OptionalMiddleware attaches the user when a valid bearer token is
// present and lets anonymous requests through.
func OptionalMiddleware(svc Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request())
			if token != "" {
				if user, err := svc.UserFromToken(c.Request().Context(), token); err == nil {
					c.Set(userContextKey, user)
					c.Set(tokenContextKey, token)
				}
			}
			return next(c)
		}
	}
}

// UserFrom returns the authenticated user attached by the middleware.
func UserFrom(c echo.Context) (*store.User, bool) {
	user, ok := c.Get(userContextKey).(*store.User)
	return user, ok
}

// TokenFrom returns the bearer token attached by the middleware.
func TokenFrom(c echo.Context) string {
	token, _ := c.Get(tokenContextKey).(string)
	return token
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

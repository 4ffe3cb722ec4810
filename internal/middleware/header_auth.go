package middleware

import (
	"strings"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Identity headers accepted by HeaderAuthMiddleware
const (
	HeaderUser = "X-User"
	HeaderRole = "X-User-Role"
)

// HeaderAuthMiddleware trusts identity headers set by a fronting proxy or, in development,
// by the client's role switcher
type HeaderAuthMiddleware struct{}

// NewHeaderAuthMiddleware creates a new HeaderAuthMiddleware
func NewHeaderAuthMiddleware() *HeaderAuthMiddleware {
	return &HeaderAuthMiddleware{}
}

// Authenticate returns an Echo middleware reading the identity headers
func (m *HeaderAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := strings.TrimSpace(c.Request().Header.Get(HeaderUser))
			if user == "" {
				return unauthorizedError(c, "Missing "+HeaderUser+" header")
			}

			role := domain.Role(strings.TrimSpace(c.Request().Header.Get(HeaderRole)))
			if !role.IsValid() {
				log.Debug().Str("user", user).Str("role", string(role)).Msg("Unknown role header")
				return forbiddenError(c, "Unknown role")
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), user, user, role)))
			return next(c)
		}
	}
}

// DualAuthMiddleware accepts a bearer JWT and, when enabled, falls back to identity headers
type DualAuthMiddleware struct {
	jwtAuth    *AuthMiddleware
	headerAuth *HeaderAuthMiddleware
}

// NewDualAuthMiddleware creates a new DualAuthMiddleware. Either side may be nil.
func NewDualAuthMiddleware(jwtAuth *AuthMiddleware, headerAuth *HeaderAuthMiddleware) *DualAuthMiddleware {
	return &DualAuthMiddleware{
		jwtAuth:    jwtAuth,
		headerAuth: headerAuth,
	}
}

// Authenticate returns an Echo middleware that tries JWT first, then identity headers
func (m *DualAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" && m.jwtAuth != nil {
				log.Debug().Msg("Attempting JWT authentication")
				return m.jwtAuth.Authenticate()(next)(c)
			}
			if m.headerAuth != nil {
				return m.headerAuth.Authenticate()(next)(c)
			}
			return unauthorizedError(c, "Missing authorization header")
		}
	}
}

package middleware

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RoleClaim is the namespaced Auth0 claim carrying the user's planning role
const RoleClaim = "https://salesplan.app/role"

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"https://salesplan.app/role"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// SubjectKey is the context key for the authenticated subject
	SubjectKey contextKey = "subject"
	// ActorNameKey is the context key for the display name used in audit trails
	ActorNameKey contextKey = "actor_name"
	// RoleKey is the context key for the user's planning role
	RoleKey contextKey = "role"
)

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator *validator.Validator
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domain, audience string) (*AuthMiddleware, error) {
	jwtValidator, err := NewAuth0Validator(domain, audience)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{validator: jwtValidator}, nil
}

// NewAuth0Validator builds a validator for RS256 tokens issued by an Auth0 tenant
func NewAuth0Validator(domain, audience string) (*validator.Validator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	return validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// Authenticate returns an Echo middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			claims, err := m.validator.ValidateToken(c.Request().Context(), parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "Invalid token")
			}

			validatedClaims, ok := claims.(*validator.ValidatedClaims)
			if !ok {
				return unauthorizedError(c, "Invalid claims")
			}

			subject := validatedClaims.RegisteredClaims.Subject
			name := subject
			role := domain.Role("")
			if custom, ok := validatedClaims.CustomClaims.(*CustomClaims); ok {
				role = domain.Role(custom.Role)
				if custom.Name != "" {
					name = custom.Name
				}
			}

			if !role.IsValid() {
				log.Debug().Str("subject", subject).Str("role", string(role)).Msg("Token carries no planning role")
				return forbiddenError(c, "No planning role assigned to this account")
			}

			ctx := context.WithValue(c.Request().Context(), ClaimsKey, validatedClaims)
			c.SetRequest(c.Request().WithContext(WithIdentity(ctx, subject, name, role)))

			return next(c)
		}
	}
}

// WithIdentity stores the authenticated identity in ctx
func WithIdentity(ctx context.Context, subject, name string, role domain.Role) context.Context {
	ctx = context.WithValue(ctx, SubjectKey, subject)
	ctx = context.WithValue(ctx, ActorNameKey, name)
	return context.WithValue(ctx, RoleKey, role)
}

// RequireDashboardAccess rejects roles that may not view planning data
func RequireDashboardAccess(authorizer domain.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authorizer.CanAccessDashboard(GetRole(c)) {
				return forbiddenError(c, "This role cannot access planning data")
			}
			return next(c)
		}
	}
}

// GetSubject extracts the authenticated subject from the context
func GetSubject(c echo.Context) string {
	if id, ok := c.Request().Context().Value(SubjectKey).(string); ok {
		return id
	}
	return ""
}

// GetActorName extracts the display name of the authenticated user
func GetActorName(c echo.Context) string {
	if name, ok := c.Request().Context().Value(ActorNameKey).(string); ok && name != "" {
		return name
	}
	return GetSubject(c)
}

// GetRole extracts the planning role from the context
func GetRole(c echo.Context) domain.Role {
	if role, ok := c.Request().Context().Value(RoleKey).(domain.Role); ok {
		return role
	}
	return ""
}

// GetActor returns the authenticated user as a workflow actor
func GetActor(c echo.Context) domain.Actor {
	return domain.Actor{Name: GetActorName(c), Role: GetRole(c)}
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}

// GetCustomClaims extracts the custom claims from the context
func GetCustomClaims(c echo.Context) *CustomClaims {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		return custom
	}
	return nil
}

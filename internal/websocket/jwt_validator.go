package websocket

import (
	"context"
	"errors"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/middleware"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// ErrNoRole is returned when a valid token carries no known planning role
var ErrNoRole = errors.New("token carries no planning role")

// Identity is the authenticated user behind a websocket connection
type Identity struct {
	Subject string
	Role    domain.Role
}

// TokenValidator validates the token passed on the websocket upgrade request
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (Identity, error)
}

// Auth0JWTValidator validates Auth0 JWT tokens for WebSocket connections
type Auth0JWTValidator struct {
	validator *validator.Validator
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string) (*Auth0JWTValidator, error) {
	jwtValidator, err := middleware.NewAuth0Validator(domain, audience)
	if err != nil {
		return nil, err
	}
	return &Auth0JWTValidator{validator: jwtValidator}, nil
}

// ValidateToken validates a JWT token and returns the identity it carries
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (Identity, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	return identityFromClaims(validatedClaims)
}

func identityFromClaims(claims *validator.ValidatedClaims) (Identity, error) {
	custom, ok := claims.CustomClaims.(*middleware.CustomClaims)
	if !ok {
		return Identity{}, ErrNoRole
	}
	role := domain.Role(custom.Role)
	if !role.IsValid() {
		return Identity{}, ErrNoRole
	}
	return Identity{Subject: claims.RegisteredClaims.Subject, Role: role}, nil
}

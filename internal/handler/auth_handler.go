package handler

import (
	"net/http"

	"github.com/dafibh/salesplan/salesplan-backend/internal/authz"
	"github.com/dafibh/salesplan/salesplan-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// AuthHandler reports who the caller is and what their role may do
type AuthHandler struct {
	table *authz.Table
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(table *authz.Table) *AuthHandler {
	return &AuthHandler{
		table: table,
	}
}

// MeResponse represents the current user in API responses
type MeResponse struct {
	Subject      string               `json:"subject"`
	Name         string               `json:"name"`
	Email        string               `json:"email,omitempty"`
	Role         string               `json:"role"`
	RoleName     string               `json:"roleName"`
	Capabilities map[authz.Action]bool `json:"capabilities"`
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	subject := middleware.GetSubject(c)
	if subject == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	role := middleware.GetRole(c)
	response := MeResponse{
		Subject:      subject,
		Name:         middleware.GetActorName(c),
		Role:         string(role),
		RoleName:     role.DisplayName(),
		Capabilities: h.table.Capabilities(role),
	}
	if claims := middleware.GetCustomClaims(c); claims != nil {
		response.Email = claims.Email
	}
	return c.JSON(http.StatusOK, response)
}

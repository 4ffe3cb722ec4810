package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://salesplan.app/errors/validation"
	ErrorTypeNotFound     = "https://salesplan.app/errors/not-found"
	ErrorTypeUnauthorized = "https://salesplan.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://salesplan.app/errors/forbidden"
	ErrorTypeConflict     = "https://salesplan.app/errors/conflict"
	ErrorTypeInternal     = "https://salesplan.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return c.JSON(http.StatusForbidden, ProblemDetails{
		Type:     ErrorTypeForbidden,
		Title:    "Forbidden",
		Status:   http.StatusForbidden,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewServiceError maps a service error onto its problem response. Unrecognized
// errors are logged and reported as "Failed to <action>".
func NewServiceError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrEntityNotFound),
		errors.Is(err, domain.ErrWorkflowNotFound),
		errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, err.Error())

	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, err.Error())

	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrEntityLocked),
		errors.Is(err, domain.ErrBusy):
		return NewConflictError(c, err.Error())

	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidDistribution),
		errors.Is(err, domain.ErrInvalidAdjustment),
		errors.Is(err, domain.ErrEmptySubmission),
		errors.Is(err, domain.ErrMalformedRecord),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrUnknownCustomer),
		errors.Is(err, domain.ErrUnknownItem):
		return NewValidationError(c, err.Error(), nil)
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

package domain

import "errors"

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInternalError     = errors.New("internal error")
	ErrEntityNotFound    = errors.New("planning entity not found")
	ErrWorkflowNotFound  = errors.New("workflow item not found")
	ErrUnknownCustomer   = errors.New("unknown customer")
	ErrUnknownItem       = errors.New("unknown item")
	ErrEntityLocked      = errors.New("planning entity is not editable")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrBusy              = errors.New("resource is busy, try again")
)

// Engine errors
var (
	ErrInvalidDistribution = errors.New("invalid distribution")
	ErrInvalidAdjustment   = errors.New("invalid adjustment")
	ErrEmptySubmission     = errors.New("no eligible entities to submit")
	ErrInvalidTransition   = errors.New("invalid workflow transition")
	ErrMalformedRecord     = errors.New("malformed monthly record set")
)

// Validation constants
const (
	MaxCommentLength = 2000
	MinPlanningYear  = 1900
	MaxPlanningYear  = 2100
)

package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts go-playground/validator to echo.Validator
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports fields by their JSON names
func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// bindAndValidate decodes the body into req and validates it. It writes the
// validation problem itself and reports whether the handler may continue.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, NewValidationError(c, "Invalid request body", nil)
	}

	err := c.Validate(req)
	if err == nil {
		return true, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return false, NewValidationError(c, "Invalid request body", nil)
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return false, NewValidationError(c, "Validation failed", out)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Is required"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		switch fe.Kind() {
		case reflect.Slice:
			return "Must contain at least " + fe.Param() + " entries"
		case reflect.String:
			return "Must be at least " + fe.Param() + " characters"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be " + fe.Param() + " characters or less"
		}
		return "Must be at most " + fe.Param()
	case "gte":
		return "Must be at least " + fe.Param()
	case "lte":
		return "Must be at most " + fe.Param()
	case "len":
		return "Must contain exactly " + fe.Param() + " entries"
	default:
		return "Is invalid"
	}
}

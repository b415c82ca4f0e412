// Package common holds shared HTTP plumbing used by the API handlers.
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts go-playground/validator to echo's Validator
// interface. Validation failures are reported per field so API clients
// see which part of the request body was rejected.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if rv.validate == nil {
		rv.validate = validator.New()
	}
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		messages := make([]string, 0, len(fieldErrors))
		for _, fieldError := range fieldErrors {
			messages = append(messages, fmt.Sprintf("field %s failed rule %q", fieldError.Field(), fieldError.Tag()))
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+strings.Join(messages, "; "))
	}
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
}

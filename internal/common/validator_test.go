package common

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type validatedRequest struct {
	URI  string `json:"uri" validate:"required"`
	Name string `json:"name"`
}

func TestRequestValidator_Valid(t *testing.T) {
	rv := NewRequestValidator()

	if err := rv.Validate(&validatedRequest{URI: "file:///images/slide.svs"}); err != nil {
		t.Errorf("expected valid request to pass, got %v", err)
	}
}

func TestRequestValidator_ReportsFailingField(t *testing.T) {
	rv := NewRequestValidator()

	err := rv.Validate(&validatedRequest{Name: "no-uri"})
	if err == nil {
		t.Fatalf("expected error for missing required field")
	}

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected an echo HTTP error, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", httpErr.Code)
	}
	message, ok := httpErr.Message.(string)
	if !ok {
		t.Fatalf("expected a string message, got %T", httpErr.Message)
	}
	if !strings.Contains(message, "URI") || !strings.Contains(message, "required") {
		t.Errorf("expected message to name the failing field and rule, got %q", message)
	}
}

func TestRequestValidator_ZeroValueUsable(t *testing.T) {
	rv := &RequestValidator{}

	if err := rv.Validate(&validatedRequest{URI: "file:///images/slide.svs"}); err != nil {
		t.Errorf("expected zero value validator to work, got %v", err)
	}
}

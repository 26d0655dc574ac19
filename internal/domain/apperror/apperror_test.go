package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestDerivedErrorsMatchSentinel(t *testing.T) {
	err := ErrNotFound.WithMessage("user not found")
	wrapped := fmt.Errorf("lookup: %w", err)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("expected derived error to match ErrNotFound")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Fatalf("derived not-found error must not match ErrValidation")
	}
	ae, ok := As(wrapped)
	if !ok {
		t.Fatalf("As should unwrap to an apperror")
	}
	if ae.HTTPStatus() != http.StatusNotFound || ae.Message() != "user not found" {
		t.Fatalf("unexpected error: status=%d message=%q", ae.HTTPStatus(), ae.Message())
	}
	if ErrNotFound.Message() != "resource not found" {
		t.Fatalf("sentinel was mutated: %q", ErrNotFound.Message())
	}
}

func TestWithCauseKeepsChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrService.WithMessage("error persisting user").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
	if got, want := err.Error(), "error persisting user: connection reset"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestWithDetails(t *testing.T) {
	err := ErrValidation.WithDetails(map[string]string{"email": "must be a valid email address"})
	if err.Details()["email"] == "" {
		t.Fatalf("details lost: %v", err.Details())
	}
	if ErrValidation.Details() != nil {
		t.Fatalf("sentinel details must stay empty")
	}
	if err.Code() != "VALIDATION_ERROR" || err.Category() != CategoryValidation {
		t.Fatalf("unexpected code/category %s/%s", err.Code(), err.Category())
	}
}

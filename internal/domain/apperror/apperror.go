package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Category string

const (
	CategoryValidation Category = "VALIDATION"
	CategoryConflict   Category = "CONFLICT"
	CategoryNotFound   Category = "NOT_FOUND"
	CategoryAuth       Category = "AUTH"
	CategoryInternal   Category = "INTERNAL"
)

// Error is the failure taxonomy shared by the service and the HTTP layer.
type Error interface {
	error
	Code() string
	Category() Category
	HTTPStatus() int
	Message() string
	Details() map[string]string
	Unwrap() error
	WithCause(cause error) Error
	WithMessage(message string) Error
	WithDetails(details map[string]string) Error
}

type appError struct {
	code     string
	category Category
	status   int
	message  string
	details  map[string]string
	cause    error
}

func (e *appError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *appError) Code() string               { return e.code }
func (e *appError) Category() Category         { return e.category }
func (e *appError) HTTPStatus() int            { return e.status }
func (e *appError) Message() string            { return e.message }
func (e *appError) Details() map[string]string { return e.details }
func (e *appError) Unwrap() error              { return e.cause }

// Is matches any error of the same code, so errors.Is(err, ErrNotFound) holds
// for every derived copy.
func (e *appError) Is(target error) bool {
	t, ok := target.(*appError)
	return ok && t.code == e.code
}

func (e *appError) clone() *appError {
	c := *e
	return &c
}

func (e *appError) WithCause(cause error) Error {
	c := e.clone()
	c.cause = cause
	return c
}

func (e *appError) WithMessage(message string) Error {
	c := e.clone()
	c.message = message
	return c
}

func (e *appError) WithDetails(details map[string]string) Error {
	c := e.clone()
	c.details = details
	return c
}

func New(code string, category Category, status int, message string) Error {
	return &appError{code: code, category: category, status: status, message: message}
}

func As(err error) (Error, bool) {
	var ae Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

var (
	ErrValidation = New(
		"VALIDATION_ERROR",
		CategoryValidation,
		http.StatusBadRequest,
		"validation failed",
	)

	ErrUniqueViolation = New(
		"UNIQUE_CONSTRAINT_VIOLATION",
		CategoryConflict,
		http.StatusConflict,
		"value already in use",
	)

	ErrNotFound = New(
		"RESOURCE_NOT_FOUND",
		CategoryNotFound,
		http.StatusNotFound,
		"resource not found",
	)

	ErrOptimisticLock = New(
		"OPTIMISTIC_LOCK_CONFLICT",
		CategoryConflict,
		http.StatusConflict,
		"record was modified concurrently, reload and retry",
	)

	ErrService = New(
		"SERVICE_EXCEPTION",
		CategoryInternal,
		http.StatusInternalServerError,
		"service failure",
	)

	ErrUnauthorized = New(
		"UNAUTHORIZED",
		CategoryAuth,
		http.StatusUnauthorized,
		"missing or invalid identity token",
	)

	ErrForbidden = New(
		"FORBIDDEN",
		CategoryAuth,
		http.StatusForbidden,
		"insufficient role",
	)
)

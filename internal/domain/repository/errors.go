package repository

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate value")
	ErrVersionConflict = errors.New("version conflict")
)

// DuplicateError reports which unique field rejected a write.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return e.Field + " already in use" }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

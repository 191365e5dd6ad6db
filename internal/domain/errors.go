package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a query key that matched no record. Counter upserts
	// treat this as zero-state, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the sentinel wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries the reasons a record was rejected before any
// persistence call was made.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Reasons, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

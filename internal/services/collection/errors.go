package collection

import (
	"errors"
	"fmt"
)

// ErrInvalidConstraint is matched by every constraint validation failure
var ErrInvalidConstraint = errors.New("invalid constraint")

// InvalidConstraintError describes which routing input was rejected
type InvalidConstraintError struct {
	Field  string
	Reason string
}

func (e *InvalidConstraintError) Error() string {
	return fmt.Sprintf("invalid constraint %s: %s", e.Field, e.Reason)
}

func (e *InvalidConstraintError) Is(target error) bool {
	return target == ErrInvalidConstraint
}

// NewInvalidConstraintError builds an error matching ErrInvalidConstraint
func NewInvalidConstraintError(field, reason string) error {
	return &InvalidConstraintError{Field: field, Reason: reason}
}

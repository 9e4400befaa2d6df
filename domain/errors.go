package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrPriceNotFound      = errors.New("no price found for ingredient")
	ErrVersionConflict    = errors.New("version conflict")
	ErrNameTaken          = errors.New("ingredient name already exists")
)

// InvalidArgumentError is raised synchronously by aggregates and validating
// entry points before any I/O happens.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewInvalidArgument(field, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Reason: reason}
}

// IsInvalidArgument reports whether err is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ia *InvalidArgumentError
	return errors.As(err, &ia)
}

// Package domain holds the error taxonomy shared by the storefront domain
// packages. Every domain failure matches exactly one of the sentinel kinds
// below with errors.Is, so transport layers can map them without knowing the
// concrete error type.
package domain

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Error kinds.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidInput      = errors.New("invalid input")
)

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a NotFoundError for the given entity kind and id.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientStockError indicates a product cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// Is reports whether target is ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidStateError indicates an operation was attempted outside its legal status.
type InvalidStateError struct {
	OrderID string
	Status  string
	Op      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s order %s from current status %s", e.Op, e.OrderID, e.Status)
}

// Is reports whether target is ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// InvalidInputError indicates a malformed request value.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// InvalidInput returns an InvalidInputError for field.
func InvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

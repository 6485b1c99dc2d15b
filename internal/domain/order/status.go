package order

import "github.com/go-faster/errors"

// Status is the lifecycle state of an order. Values are persisted as-is.
type Status string

const (
	// StatusCreated marks an order created directly from a list of items,
	// bypassing the cart.
	StatusCreated Status = "CRIADO"
	// StatusPending marks an open cart. It is the only status that accepts
	// new line items.
	StatusPending Status = "PENDENTE"
	// StatusPaid is terminal.
	StatusPaid Status = "PAGO"
)

// ParseStatus converts a persisted value back to a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusCreated, StatusPending, StatusPaid:
		return st, nil
	default:
		return "", errors.Errorf("unknown order status %q", s)
	}
}

func (s Status) String() string { return string(s) }

// AcceptsItems reports whether line items may be added in this status.
func (s Status) AcceptsItems() bool {
	switch s {
	case StatusPending:
		return true
	case StatusCreated, StatusPaid:
		return false
	default:
		return false
	}
}

// CanTransition reports whether an order may move from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusPaid
	case StatusCreated, StatusPaid:
		return false
	default:
		return false
	}
}

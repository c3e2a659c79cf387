package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOverRelease       = errors.New("release exceeds reserved quantity")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrStorage           = errors.New("storage error")
)

// InsufficientStockError reports how many units were available when a
// reservation was refused. It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: only %d available", e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

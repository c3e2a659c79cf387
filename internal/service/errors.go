package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/inventory"
)

var (
	ErrInsufficientStock = inventory.ErrInsufficientStock
	ErrProductNotFound   = inventory.ErrProductNotFound
	ErrOverRelease       = inventory.ErrOverRelease
	ErrStorage           = inventory.ErrStorage

	ErrOrderNotFound      = errors.New("order not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrValidation         = errors.New("validation")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLockedOut          = errors.New("too many failed login attempts")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type InsufficientStockError = inventory.InsufficientStockError

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storage wraps a driver error unless it already belongs to the taxonomy.
func storage(err error) error {
	if err == nil {
		return nil
	}
	if isDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func isDomain(err error) bool {
	for _, target := range []error{
		ErrInsufficientStock, ErrProductNotFound, ErrOverRelease, ErrStorage,
		ErrOrderNotFound, ErrCartItemNotFound, ErrUserNotFound, ErrEmptyCart,
		ErrInvalidStatus, ErrValidation, ErrConflict, ErrInvalidCredentials,
		ErrLockedOut, ErrInvalidToken,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return storage(err)
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

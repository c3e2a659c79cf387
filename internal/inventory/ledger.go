package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Ledger moves units between a product's available stock and the pool held
// by carts. Every mutation is a single conditional UPDATE, so concurrent
// callers cannot drive stock_quantity below zero.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger whose statements run inside tx.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

func (l *Ledger) conn(ctx context.Context) *gorm.DB {
	return l.db.WithContext(ctx)
}

// Reserve takes qty units out of available stock and returns what remains.
func (l *Ledger) Reserve(ctx context.Context, productID uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	db := l.conn(ctx)

	res := db.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Updates(map[string]any{
			"stock_quantity":    gorm.Expr("stock_quantity - ?", qty),
			"reserved_quantity": gorm.Expr("reserved_quantity + ?", qty),
		})
	if res.Error != nil {
		return 0, storage("reserve", res.Error)
	}
	if res.RowsAffected == 0 {
		p, err := l.find(ctx, productID)
		if err != nil {
			return 0, err
		}
		logging.FromContext(ctx).Debug("reserve_refused",
			"product_id", productID, "requested", qty, "available", p.StockQuantity)
		return 0, &InsufficientStockError{ProductID: productID, Requested: qty, Available: p.StockQuantity}
	}

	return l.available(ctx, productID)
}

// Release returns qty previously reserved units to available stock.
func (l *Ledger) Release(ctx context.Context, productID uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	db := l.conn(ctx)

	res := db.Model(&models.Product{}).
		Where("id = ? AND reserved_quantity >= ?", productID, qty).
		Updates(map[string]any{
			"stock_quantity":    gorm.Expr("stock_quantity + ?", qty),
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", qty),
		})
	if res.Error != nil {
		return 0, storage("release", res.Error)
	}
	if res.RowsAffected == 0 {
		p, err := l.find(ctx, productID)
		if err != nil {
			return 0, err
		}
		logging.FromContext(ctx).Warn("release_refused",
			"product_id", productID, "requested", qty, "reserved", p.ReservedQuantity)
		return 0, ErrOverRelease
	}

	return l.available(ctx, productID)
}

// Adjust applies delta = old - new: a positive delta releases units and a
// negative delta reserves them.
func (l *Ledger) Adjust(ctx context.Context, productID uuid.UUID, delta int) (int, error) {
	switch {
	case delta > 0:
		return l.Release(ctx, productID, delta)
	case delta < 0:
		return l.Reserve(ctx, productID, -delta)
	default:
		return l.available(ctx, productID)
	}
}

// Consume turns reserved units into sold units at checkout.
// Available stock is not touched.
func (l *Ledger) Consume(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	res := l.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND reserved_quantity >= ?", productID, qty).
		Update("reserved_quantity", gorm.Expr("reserved_quantity - ?", qty))
	if res.Error != nil {
		return storage("consume", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := l.find(ctx, productID); err != nil {
			return err
		}
		return ErrOverRelease
	}
	return nil
}

// Restock sets the available stock of a product.
func (l *Ledger) Restock(ctx context.Context, productID uuid.UUID, stock int) error {
	if stock < 0 {
		return ErrInvalidQuantity
	}
	res := l.conn(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", stock)
	if res.Error != nil {
		return storage("restock", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Available reports the current available stock of a product.
func (l *Ledger) Available(ctx context.Context, productID uuid.UUID) (int, error) {
	return l.available(ctx, productID)
}

func (l *Ledger) available(ctx context.Context, productID uuid.UUID) (int, error) {
	p, err := l.find(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.StockQuantity, nil
}

func (l *Ledger) find(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := l.conn(ctx).Select("id", "stock_quantity", "reserved_quantity").
		Where("id = ?", productID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, storage("find product", err)
	}
	return &p, nil
}

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

// CartLine is a cart row joined with the product it holds.
type CartLine struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity"`
	Name          string          `json:"name"`
	ImageURL      string          `json:"image_url"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (r *GormRepo) CartItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.conn(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CartItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.conn(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CartLines skips rows whose product no longer exists.
func (r *GormRepo) CartLines(ctx context.Context, userID uuid.UUID) ([]CartLine, error) {
	var lines []CartLine
	err := r.conn(ctx).
		Table("cart_items AS c").
		Select("c.product_id, c.quantity, p.name, p.image_url, p.price, p.stock_quantity").
		Joins("JOIN products p ON p.id = c.product_id").
		Where("c.user_id = ?", userID).
		Order("c.created_at ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return r.conn(ctx).Create(item).Error
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, item *models.CartItem, qty int) error {
	if err := r.conn(ctx).Model(item).Update("quantity", qty).Error; err != nil {
		return err
	}
	item.Quantity = qty
	return nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Where("id = ?", id).Delete(&models.CartItem{}).Error
}

func (r *GormRepo) DeleteCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.conn(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) DeleteCartRowsForProduct(ctx context.Context, productID uuid.UUID) error {
	return r.conn(ctx).Where("product_id = ?", productID).Delete(&models.CartItem{}).Error
}

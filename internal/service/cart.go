package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/inventory"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// CartService keeps each cart row backed by units reserved in the ledger.
type CartService struct {
	Repo   *repo.GormRepo
	Ledger *inventory.Ledger
	Events events.Emitter
}

type Cart struct {
	Items []repo.CartLine
	Total decimal.Decimal
	Count int
}

func summarize(lines []repo.CartLine) (decimal.Decimal, int) {
	total := decimal.Zero
	count := 0
	for _, l := range lines {
		total = total.Add(l.Subtotal())
		count += l.Quantity
	}
	return total, count
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	lines, err := s.Repo.CartLines(ctx, userID)
	if err != nil {
		return nil, storage(err)
	}
	if lines == nil {
		lines = []repo.CartLine{}
	}
	total, count := summarize(lines)
	return &Cart{Items: lines, Total: total, Count: count}, nil
}

func (s *CartService) CartSummary(ctx context.Context, userID uuid.UUID) (decimal.Decimal, int, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return cart.Total, cart.Count, nil
}

// AddToCart reserves qty more units of a product for the user.
func (s *CartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add", "user_id", userID, "product_id", productID)
	if qty < 1 {
		return nil, validation("quantity must be at least 1")
	}

	out, err := s.addOnce(ctx, userID, productID, qty)
	if isUniqueViolation(err) {
		// a concurrent add created the row first; the retry goes through the update path
		l.Debug("add_to_cart_retry", "reason", "row created concurrently")
		out, err = s.addOnce(ctx, userID, productID, qty)
	}
	if err != nil {
		l.Warn("add_to_cart_error", "quantity", qty, "error", err)
		return nil, storage(err)
	}

	s.Events.Emit(ctx, events.TopicCart, userID.String(), events.CartItemAdded, events.CartItemPayload{
		UserID: userID.String(), ProductID: productID.String(), Quantity: out.Quantity,
	})
	return out, nil
}

func (s *CartService) addOnce(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	var out *models.CartItem
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		item, err := tx.CartItem(ctx, userID, productID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if item != nil {
			out, err = s.setQuantity(ctx, tx, item, item.Quantity+qty)
			return err
		}

		if _, err := s.Ledger.WithTx(tx.DB).Reserve(ctx, productID, qty); err != nil {
			return err
		}
		item = &models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
		if err := tx.CreateCartItem(ctx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	return out, err
}

// UpdateQuantity sets the quantity of an existing cart row. Zero removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "cart.update", "user_id", userID, "product_id", productID)
	if qty < 0 {
		return nil, validation("quantity must not be negative")
	}
	if qty == 0 {
		return nil, s.RemoveFromCart(ctx, userID, productID)
	}

	var out *models.CartItem
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		item, err := tx.CartItem(ctx, userID, productID)
		if err != nil {
			return notFound(err, ErrCartItemNotFound)
		}
		out, err = s.setQuantity(ctx, tx, item, qty)
		return err
	})
	if err != nil {
		l.Warn("update_cart_error", "quantity", qty, "error", err)
		return nil, storage(err)
	}

	s.Events.Emit(ctx, events.TopicCart, userID.String(), events.CartItemUpdated, events.CartItemPayload{
		UserID: userID.String(), ProductID: productID.String(), Quantity: out.Quantity,
	})
	return out, nil
}

func (s *CartService) setQuantity(ctx context.Context, tx *repo.GormRepo, item *models.CartItem, qty int) (*models.CartItem, error) {
	if qty == item.Quantity {
		return item, nil
	}
	if _, err := s.Ledger.WithTx(tx.DB).Adjust(ctx, item.ProductID, item.Quantity-qty); err != nil {
		return nil, err
	}
	if err := tx.SetCartQuantity(ctx, item, qty); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveFromCart releases the row's units and deletes it. A missing row is a no-op.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "cart.remove", "user_id", userID, "product_id", productID)

	var removed *models.CartItem
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		item, err := tx.CartItem(ctx, userID, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := releaseRow(ctx, s.Ledger.WithTx(tx.DB), item); err != nil {
			return err
		}
		if err := tx.DeleteCartItem(ctx, item.ID); err != nil {
			return err
		}
		removed = item
		return nil
	})
	if err != nil {
		l.Warn("remove_from_cart_error", "error", err)
		return storage(err)
	}

	if removed != nil {
		s.Events.Emit(ctx, events.TopicCart, userID.String(), events.CartItemRemoved, events.CartItemPayload{
			UserID: userID.String(), ProductID: productID.String(), Quantity: removed.Quantity,
		})
	}
	return nil
}

// ClearCart releases and deletes every row of the cart in one transaction.
func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) (int, error) {
	l := logging.FromContext(ctx).With("svc", "cart.clear", "user_id", userID)

	var cleared int
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		items, err := tx.CartItems(ctx, userID)
		if err != nil {
			return err
		}
		led := s.Ledger.WithTx(tx.DB)
		for i := range items {
			if err := releaseRow(ctx, led, &items[i]); err != nil {
				return err
			}
		}
		if _, err := tx.DeleteCart(ctx, userID); err != nil {
			return err
		}
		cleared = len(items)
		return nil
	})
	if err != nil {
		l.Warn("clear_cart_error", "error", err)
		return 0, storage(err)
	}

	if cleared > 0 {
		s.Events.Emit(ctx, events.TopicCart, userID.String(), events.CartCleared, events.CartClearedPayload{
			UserID: userID.String(), Items: cleared,
		})
	}
	return cleared, nil
}

// releaseRow returns a row's units to stock. Rows pointing at a deleted
// product have nothing to return.
func releaseRow(ctx context.Context, led *inventory.Ledger, item *models.CartItem) error {
	_, err := led.Release(ctx, item.ProductID, item.Quantity)
	if errors.Is(err, inventory.ErrProductNotFound) {
		logging.FromContext(ctx).Warn("release_skipped", "reason", "product missing", "product_id", item.ProductID)
		return nil
	}
	return err
}

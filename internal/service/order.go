package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/inventory"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	minAddressLen = 10
	maxAddressLen = 500
)

type OrderService struct {
	Repo   *repo.GormRepo
	Ledger *inventory.Ledger
	Events events.Emitter
}

func validateCheckout(address, method string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(address))
	if n < minAddressLen || n > maxAddressLen {
		return validation("shipping address must be between %d and %d characters", minAddressLen, maxAddressLen)
	}
	if !models.ValidPaymentMethod(method) {
		return validation("unsupported payment method %q", method)
	}
	return nil
}

// Checkout turns the user's cart into a pending order. Prices are taken from
// the products at this moment and frozen on the order items. The cart rows
// already hold their units, so checkout only consumes the reservations.
// On any failure nothing is written and the cart stays as it was.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, address, method string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout", "user_id", userID)
	if err := validateCheckout(address, method); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		lines, err := tx.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			})
			total = total.Add(line.Subtotal())
		}
		if total.GreaterThan(models.MaxMoney) {
			return validation("order total must not exceed %s", models.MaxMoney.StringFixed(models.MoneyScale))
		}

		order = &models.Order{
			UserID:          userID,
			TotalAmount:     total,
			ShippingAddress: strings.TrimSpace(address),
			PaymentMethod:   method,
			Status:          models.StatusPending,
			Items:           items,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		led := s.Ledger.WithTx(tx.DB)
		for _, it := range items {
			if err := led.Consume(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if _, err := tx.DeleteCart(ctx, userID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		l.Warn("checkout_error", "error", err)
		return nil, storage(err)
	}

	l.Info("checkout_success", "order_id", order.ID, "total", order.TotalAmount.StringFixed(2))
	s.Events.Emit(ctx, events.TopicOrder, order.ID.String(), events.OrderPlaced, orderPlacedPayload(order))
	return order, nil
}

func orderPlacedPayload(o *models.Order) events.OrderPlacedPayload {
	items := make([]events.OrderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, events.OrderItemPayload{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}
	return events.OrderPlacedPayload{
		OrderID:     o.ID.String(),
		UserID:      o.UserID.String(),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       items,
	}
}

// UpdateOrderStatus overwrites the status of an order. Any valid status may
// follow any other.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_status", "order_id", orderID)
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	n, err := s.Repo.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		l.Error("update_status_error", "error", err)
		return nil, storage(err)
	}
	if n == 0 {
		return nil, ErrOrderNotFound
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}

	s.Events.Emit(ctx, events.TopicOrder, orderID.String(), events.OrderStatusChanged, events.OrderStatusPayload{
		OrderID: orderID.String(), Status: string(status),
	})
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, page int) (Page[models.Order], error) {
	page, offset, limit := window(page, OrdersPageSize, OrdersPageSize)
	total, orders, err := s.Repo.ListOrders(ctx, &userID, offset, limit)
	if err != nil {
		return Page[models.Order]{}, storage(err)
	}
	return newPage(orders, total, page, limit), nil
}

// GetOrder hides orders that belong to other users behind ErrOrderNotFound.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) RecentOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	_, orders, err := s.Repo.ListOrders(ctx, &userID, 0, RecentOrdersLimit)
	if err != nil {
		return nil, storage(err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *OrderService) ListAllOrders(ctx context.Context, page int) (Page[models.Order], error) {
	page, offset, limit := window(page, AdminOrdersPageSize, AdminOrdersPageSize)
	total, orders, err := s.Repo.ListOrders(ctx, nil, offset, limit)
	if err != nil {
		return Page[models.Order]{}, storage(err)
	}
	return newPage(orders, total, page, limit), nil
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "checkout", "invalid body", err)
	}

	order, err := h.Svc.Checkout(ctx, userID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		return writeError(l, "checkout", err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	page, err := h.Svc.ListOrders(ctx, userID, util.ParseIntDefault(c.QueryParam("page"), 1))
	if err != nil {
		return writeError(l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, listResponse(page))
}

func (h *OrderHTTP) Recent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.recent")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.RecentOrders(ctx, userID)
	if err != nil {
		return writeError(l, "recent_orders", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	orderID, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_order", "id is not a uuid", err)
	}
	order, err := h.Svc.GetOrder(ctx, userID, orderID)
	if err != nil {
		return writeError(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders")

	page, err := h.Svc.ListAllOrders(ctx, util.ParseIntDefault(c.QueryParam("page"), 1))
	if err != nil {
		return writeError(l, "list_all_orders", err)
	}
	return c.JSON(http.StatusOK, listResponse(page))
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order_status")

	orderID, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "update_order_status", "id is not a uuid", err)
	}
	var req transport.StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_order_status", "invalid body", err)
	}

	order, err := h.Svc.UpdateOrderStatus(ctx, orderID, models.OrderStatus(req.Status))
	if err != nil {
		return writeError(l, "update_order_status", err)
	}
	l.Info("update_order_status_success", "order_id", orderID, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

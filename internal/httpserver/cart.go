package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	cart, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return writeError(l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(cart.Items, cart.Total, cart.Count))
}

func (h *CartHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.summary")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	total, count, err := h.Svc.CartSummary(ctx, userID)
	if err != nil {
		return writeError(l, "cart_summary", err)
	}
	return c.JSON(http.StatusOK, transport.CartSummaryResponse{Total: total, Count: count})
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart", "invalid body", err)
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return badRequest(l, "add_to_cart", "product_id is not a uuid", err)
	}

	item, err := h.Svc.AddToCart(ctx, userID, productID, req.Quantity)
	if err != nil {
		return writeError(l, "add_to_cart", err)
	}

	l.Info("add_to_cart_success", "product_id", productID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	productID, err := parseID(c, "productId")
	if err != nil {
		return badRequest(l, "update_cart", "productId is not a uuid", err)
	}
	var req transport.UpdateCartRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return badRequest(l, "update_cart", "quantity is required", err)
	}

	item, err := h.Svc.UpdateQuantity(ctx, userID, productID, *req.Quantity)
	if err != nil {
		return writeError(l, "update_cart", err)
	}
	if item == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	productID, err := parseID(c, "productId")
	if err != nil {
		return badRequest(l, "remove_from_cart", "productId is not a uuid", err)
	}

	if err := h.Svc.RemoveFromCart(ctx, userID, productID); err != nil {
		return writeError(l, "remove_from_cart", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.Svc.ClearCart(ctx, userID)
	if err != nil {
		return writeError(l, "clear_cart", err)
	}

	l.Info("clear_cart_success", "removed", n)
	return c.JSON(http.StatusOK, map[string]int{"removed": n})
}

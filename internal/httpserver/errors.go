package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrLockedOut):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err under op and maps it to an HTTP error. Storage and
// unknown failures get a generic message.
func writeError(l *slog.Logger, op string, err error) error {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", status, "reason", "internal error", "error", err)
		return echo.NewHTTPError(status, "internal error")
	}

	l.Warn(op+"_error", "status", status, "reason", err.Error())
	var ise *service.InsufficientStockError
	if errors.As(err, &ise) {
		return echo.NewHTTPError(status, map[string]any{
			"message":   ise.Error(),
			"available": ise.Available,
		})
	}
	return echo.NewHTTPError(status, err.Error())
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func currentUser(c echo.Context) (uuid.UUID, error) {
	raw, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}
	return id, nil
}

func listResponse[T any](p service.Page[T]) transport.ListResponse[T] {
	return transport.ListResponse[T]{
		Data: p.Items,
		Meta: transport.PageMeta{
			Page:       p.Page,
			Size:       p.Size,
			Total:      p.Total,
			TotalPages: p.TotalPages(),
			HasPrev:    p.HasPrev(),
			HasNext:    p.HasNext(),
		},
	}
}

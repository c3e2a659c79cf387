package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/util"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users")

	page, err := h.Svc.ListUsers(ctx, util.ParseIntDefault(c.QueryParam("page"), 1))
	if err != nil {
		return writeError(l, "list_users", err)
	}

	out := service.Page[transport.UserResponse]{
		Items: make([]transport.UserResponse, 0, len(page.Items)),
		Total: page.Total,
		Page:  page.Page,
		Size:  page.Size,
	}
	for i := range page.Items {
		out.Items = append(out.Items, transport.NewUserResponse(&page.Items[i]))
	}
	return c.JSON(http.StatusOK, listResponse(out))
}

func (h *UserHTTP) UpdateRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.user_role")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "update_role", "id is not a uuid", err)
	}
	var req transport.RoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_role", "invalid body", err)
	}

	user, err := h.Svc.UpdateUserRole(ctx, id, req.Role)
	if err != nil {
		return writeError(l, "update_role", err)
	}
	l.Info("update_role_success", "user_id", id, "role", user.Role)
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

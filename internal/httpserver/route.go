package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	Auth    *AuthHTTP
	Cart    *CartHTTP
	Orders  *OrderHTTP
	Catalog *CatalogHTTP
	Users   *UserHTTP

	JWTSecret []byte
	Refresher middleware.Refresher
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.Refresher)

	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)
	auth.PATCH("/profile", d.Auth.UpdateProfile, authMW.RequireAuth)

	products := e.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/categories", d.Catalog.Categories)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.GET("/summary", d.Cart.Summary)
	cart.POST("/items", d.Cart.AddItem)
	cart.PUT("/items/:productId", d.Cart.UpdateItem)
	cart.DELETE("/items/:productId", d.Cart.RemoveItem)
	cart.DELETE("", d.Cart.Clear)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.POST("/checkout", d.Orders.Checkout)
	orders.GET("", d.Orders.List)
	orders.GET("/recent", d.Orders.Recent)
	orders.GET("/:id", d.Orders.Get)

	admin := e.Group("/admin", authMW.RequireAdmin)
	admin.GET("/products", d.Catalog.AdminProducts)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PATCH("/products/:id", d.Catalog.PatchProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.GET("/orders", d.Orders.ListAll)
	admin.PATCH("/orders/:id/status", d.Orders.UpdateStatus)
	admin.GET("/users", d.Users.List)
	admin.PATCH("/users/:id/role", d.Users.UpdateRole)
}

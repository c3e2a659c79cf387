package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), 0)

	res, err := h.Svc.ListProducts(ctx, page, size, c.QueryParam("category"))
	if err != nil {
		return writeError(l, "get_products", err)
	}
	return c.JSON(http.StatusOK, listResponse(res))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_product", "id is not a uuid", err)
	}
	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return writeError(l, "get_product", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.categories")

	cats, err := h.Svc.Categories(ctx)
	if err != nil {
		return writeError(l, "categories", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := c.QueryParam("q")
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.SearchProducts(ctx, q, page, size)
	if err != nil {
		return writeError(l, "search_products", err)
	}
	return c.JSON(http.StatusOK, listResponse(res))
}

func (h *CatalogHTTP) AdminProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), 0)

	res, err := h.Svc.ListAllProducts(ctx, page, size, c.QueryParam("category"))
	if err != nil {
		return writeError(l, "admin_products", err)
	}
	return c.JSON(http.StatusOK, listResponse(res))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create", "invalid body", err)
	}

	product, err := h.Svc.CreateProduct(ctx, service.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		return writeError(l, "product_create", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "product_patch", "id is not a uuid", err)
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_patch", "invalid body", err)
	}

	product, err := h.Svc.UpdateProduct(ctx, id, service.ProductPatch{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		return writeError(l, "product_patch", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "product_delete", "id is not a uuid", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return writeError(l, "product_delete", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

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
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/util"
)

type CatalogService struct {
	Repo     *repo.GormRepo
	Ledger   *inventory.Ledger
	Searcher search.Searcher
	Indexer  search.Indexer
	Events   events.Emitter
}

type ProductInput struct {
	Name          string
	Description   string
	Category      string
	ImageURL      string
	Price         decimal.Decimal
	StockQuantity int
}

// ProductPatch carries the fields an admin wants to change. Nil means keep.
type ProductPatch struct {
	Name          *string
	Description   *string
	Category      *string
	ImageURL      *string
	Price         *decimal.Decimal
	StockQuantity *int
}

func between(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

func validateName(v string) error {
	if !between(v, 1, 100) {
		return validation("name must be between 1 and 100 characters")
	}
	return nil
}

func validateDescription(v string) error {
	if v != "" && !between(v, 10, 1000) {
		return validation("description must be empty or between 10 and 1000 characters")
	}
	return nil
}

func validateCategory(v string) error {
	if !between(v, 1, 50) {
		return validation("category must be between 1 and 50 characters")
	}
	return nil
}

func validateImageURL(v string) error {
	if utf8.RuneCountInString(v) > 500 {
		return validation("image url must be at most 500 characters")
	}
	return nil
}

func validatePrice(v decimal.Decimal) error {
	if v.IsNegative() {
		return validation("price cannot be negative")
	}
	if !v.Equal(v.Round(models.MoneyScale)) {
		return validation("price must have at most %d decimal places", models.MoneyScale)
	}
	if v.GreaterThan(models.MaxMoney) {
		return validation("price must not exceed %s", models.MaxMoney.StringFixed(models.MoneyScale))
	}
	return nil
}

func validateStock(v int) error {
	if v < 0 {
		return validation("stock cannot be negative")
	}
	return nil
}

func (in *ProductInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	for _, err := range []error{
		validateName(in.Name),
		validateDescription(in.Description),
		validateCategory(in.Category),
		validateImageURL(in.ImageURL),
		validatePrice(in.Price),
		validateStock(in.StockQuantity),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *ProductPatch) apply(prod *models.Product) error {
	if p.Name != nil {
		v := strings.TrimSpace(*p.Name)
		if err := validateName(v); err != nil {
			return err
		}
		prod.Name = v
	}
	if p.Description != nil {
		v := strings.TrimSpace(*p.Description)
		if err := validateDescription(v); err != nil {
			return err
		}
		prod.Description = v
	}
	if p.Category != nil {
		v := strings.TrimSpace(*p.Category)
		if err := validateCategory(v); err != nil {
			return err
		}
		prod.Category = v
	}
	if p.ImageURL != nil {
		v := strings.TrimSpace(*p.ImageURL)
		if err := validateImageURL(v); err != nil {
			return err
		}
		prod.ImageURL = v
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
		prod.Price = *p.Price
	}
	if p.StockQuantity != nil {
		if err := validateStock(*p.StockQuantity); err != nil {
			return err
		}
	}
	return nil
}

// ListProducts returns in-stock products, newest first.
func (s *CatalogService) ListProducts(ctx context.Context, page, size int, category string) (Page[models.Product], error) {
	page, offset, limit := window(page, size, CatalogPageSize)
	f := repo.ProductFilter{Category: strings.TrimSpace(category), InStockOnly: true}
	total, items, err := s.Repo.ListProducts(ctx, f, offset, limit)
	if err != nil {
		return Page[models.Product]{}, storage(err)
	}
	return newPage(items, total, page, limit), nil
}

// ListAllProducts is the admin listing. Sold-out products and products whose
// units all sit in carts are included.
func (s *CatalogService) ListAllProducts(ctx context.Context, page, size int, category string) (Page[models.Product], error) {
	page, offset, limit := window(page, size, AdminProductsPageSize)
	f := repo.ProductFilter{Category: strings.TrimSpace(category)}
	total, items, err := s.Repo.ListProducts(ctx, f, offset, limit)
	if err != nil {
		return Page[models.Product]{}, storage(err)
	}
	return newPage(items, total, page, limit), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return p, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.Repo.Categories(ctx)
	if err != nil {
		return nil, storage(err)
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

// SearchProducts resolves search hits against the products table so stock
// and price are always current.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, page, size int) (Page[models.Product], error) {
	page, offset, limit := window(page, size, util.DefaultPageSize)
	res, err := s.Searcher.Search(ctx, q, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Error("search_error", "svc", "catalog.search", "error", err)
		return Page[models.Product]{}, storage(err)
	}
	items, err := s.Repo.ProductsByIDs(ctx, res.IDs)
	if err != nil {
		return Page[models.Product]{}, storage(err)
	}
	return newPage(items, res.Total, page, limit), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create")
	if err := in.normalize(); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:          in.Name,
		Description:   in.Description,
		Category:      in.Category,
		ImageURL:      in.ImageURL,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		l.Error("create_product_error", "error", err)
		return nil, storage(err)
	}

	s.reindex(ctx, p)
	s.Events.Emit(ctx, events.TopicProduct, p.ID.String(), events.ProductCreated, productPayload(p))
	return p, nil
}

// UpdateProduct applies a patch. A stock change goes through the ledger's
// Restock in the same transaction as the other fields.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update", "product_id", id)

	var out *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if err := patch.apply(p); err != nil {
			return err
		}
		if err := tx.SaveProductDetails(ctx, p); err != nil {
			return err
		}
		if patch.StockQuantity != nil {
			if err := s.Ledger.WithTx(tx.DB).Restock(ctx, id, *patch.StockQuantity); err != nil {
				return err
			}
		}
		out, err = tx.GetProduct(ctx, id)
		return err
	})
	if err != nil {
		l.Warn("update_product_error", "error", err)
		return nil, storage(err)
	}

	s.reindex(ctx, out)
	eventType := events.ProductUpdated
	if patch.StockQuantity != nil {
		eventType = events.ProductRestocked
	}
	s.Events.Emit(ctx, events.TopicProduct, id.String(), eventType, productPayload(out))
	return out, nil
}

// DeleteProduct removes a product and every cart row that holds it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete", "product_id", id)

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.DeleteCartRowsForProduct(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteProduct(ctx, id); err != nil {
			return notFound(err, ErrProductNotFound)
		}
		return nil
	})
	if err != nil {
		l.Warn("delete_product_error", "error", err)
		return storage(err)
	}

	if err := s.Indexer.Delete(ctx, id); err != nil {
		l.Error("unindex_error", "error", err)
	}
	s.Events.Emit(ctx, events.TopicProduct, id.String(), events.ProductDeleted, events.ProductPayload{ProductID: id.String()})
	return nil
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if err := s.Indexer.Index(ctx, p); err != nil {
		logging.FromContext(ctx).Error("index_error", "svc", "catalog", "product_id", p.ID, "error", err)
	}
}

func productPayload(p *models.Product) events.ProductPayload {
	return events.ProductPayload{
		ProductID:     p.ID.String(),
		Name:          p.Name,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
	}
}

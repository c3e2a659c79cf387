package search

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Result struct {
	Total int64
	IDs   []uuid.UUID
}

type Searcher interface {
	Search(ctx context.Context, q string, offset, limit int) (Result, error)
}

// Indexer keeps an external index in step with the products table.
type Indexer interface {
	Index(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func sanitizeQuery(q string) string {
	return strings.TrimSpace(q)
}

type NopIndexer struct{}

func (NopIndexer) Index(context.Context, *models.Product) error { return nil }
func (NopIndexer) Delete(context.Context, uuid.UUID) error      { return nil }

package search

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// DBSearcher matches name and description with a case-insensitive LIKE.
type DBSearcher struct {
	DB *gorm.DB
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *DBSearcher) Search(ctx context.Context, rawQ string, offset, limit int) (Result, error) {
	q := sanitizeQuery(rawQ)
	if q == "" {
		return Result{IDs: []uuid.UUID{}}, nil
	}
	pattern := "%" + strings.ToLower(escapeLike(q)) + "%"

	base := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Result{}, err
	}

	ids := make([]uuid.UUID, 0, limit)
	if err := base.Session(&gorm.Session{}).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return Result{}, err
	}
	return Result{Total: total, IDs: ids}, nil
}

// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/hash"
)

func init() {
	hash.Cost = 4
}

// NewDB returns a migrated in-memory database that is closed with the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func SeedProduct(t testing.TB, gdb *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:          name,
		Description:   "a product used by tests",
		Category:      "testing",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func SeedUser(t testing.TB, gdb *gorm.DB, username, role string) *models.User {
	t.Helper()

	pw, err := hash.HashPassword("Password1")
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pw,
		Role:         role,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func Reload(t testing.TB, gdb *gorm.DB, p *models.Product) *models.Product {
	t.Helper()

	var out models.Product
	require.NoError(t, gdb.First(&out, "id = ?", p.ID).Error)
	return &out
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/inventory"
	"github.com/Skotchmaster/storefront/internal/lockout"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

type emitted struct {
	Topic   string
	Key     string
	Type    string
	Payload any
}

type recordingEmitter struct {
	mu  sync.Mutex
	got []emitted
}

func (r *recordingEmitter) Emit(_ context.Context, topic, key, eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, emitted{Topic: topic, Key: key, Type: eventType, Payload: payload})
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, e := range r.got {
		out = append(out, e.Type)
	}
	return out
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	DB      *gorm.DB
	Events  *recordingEmitter
	Clock   *fakeClock
	Cart    *CartService
	Orders  *OrderService
	Catalog *CatalogService
	Auth    *AuthService
	Users   *UserService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := testutil.NewDB(t)
	r := repo.New(gdb)
	led := inventory.New(gdb)
	em := &recordingEmitter{}
	clock := &fakeClock{t: time.Now()}

	return &testEnv{
		DB:     gdb,
		Events: em,
		Clock:  clock,
		Cart:   &CartService{Repo: r, Ledger: led, Events: em},
		Orders: &OrderService{Repo: r, Ledger: led, Events: em},
		Catalog: &CatalogService{
			Repo:     r,
			Ledger:   led,
			Searcher: &search.DBSearcher{DB: gdb},
			Indexer:  search.NopIndexer{},
			Events:   em,
		},
		Auth: &AuthService{
			Repo:          r,
			Guard:         lockout.NewGuard(lockout.NewMemoryStore(clock.Now), 5, 15*time.Minute),
			JWTSecret:     []byte("service-test-access-secret-0123456"),
			RefreshSecret: []byte("service-test-refresh-secret-012345"),
			Now:           clock.Now,
		},
		Users: &UserService{Repo: r},
	}
}

func (e *testEnv) product(t *testing.T, name, price string, stock int) *models.Product {
	return testutil.SeedProduct(t, e.DB, name, price, stock)
}

func (e *testEnv) user(t *testing.T, name string) uuid.UUID {
	return testutil.SeedUser(t, e.DB, name, models.RoleCustomer).ID
}

func (e *testEnv) reload(t *testing.T, p *models.Product) *models.Product {
	return testutil.Reload(t, e.DB, p)
}

func (e *testEnv) cartRows(t *testing.T, userID uuid.UUID) []models.CartItem {
	t.Helper()
	var items []models.CartItem
	if err := e.DB.Where("user_id = ?", userID).Find(&items).Error; err != nil {
		t.Fatal(err)
	}
	return items
}

func (e *testEnv) heldUnits(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var sum int
	if err := e.DB.Model(&models.CartItem{}).Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").Scan(&sum).Error; err != nil {
		t.Fatal(err)
	}
	return sum
}

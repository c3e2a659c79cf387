package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/inventory"
	"github.com/Skotchmaster/storefront/internal/lockout"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var (
	testAccessSecret  = []byte("http-test-access-secret-0123456789")
	testRefreshSecret = []byte("http-test-refresh-secret-012345678")
)

type testServer struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestServer(t *testing.T, ready func(context.Context) error) *testServer {
	t.Helper()

	gdb := testutil.NewDB(t)
	r := repo.New(gdb)
	led := inventory.New(gdb)
	em := events.Nop{}

	authSvc := &service.AuthService{
		Repo:          r,
		Guard:         lockout.NewGuard(lockout.NewMemoryStore(time.Now), 5, 15*time.Minute),
		JWTSecret:     testAccessSecret,
		RefreshSecret: testRefreshSecret,
	}

	e := echo.New()
	Register(e, &Deps{
		Auth:   &AuthHTTP{Svc: authSvc},
		Cart:   &CartHTTP{Svc: &service.CartService{Repo: r, Ledger: led, Events: em}},
		Orders: &OrderHTTP{Svc: &service.OrderService{Repo: r, Ledger: led, Events: em}},
		Catalog: &CatalogHTTP{Svc: &service.CatalogService{
			Repo:     r,
			Ledger:   led,
			Searcher: &search.DBSearcher{DB: gdb},
			Indexer:  search.NopIndexer{},
			Events:   em,
		}},
		Users:     &UserHTTP{Svc: &service.UserService{Repo: r}},
		JWTSecret: testAccessSecret,
		Refresher: authSvc,
		Ready:     ready,
	})
	return &testServer{e: e, db: gdb}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// login seeds a user with the given role and returns its access token.
func (s *testServer) login(t *testing.T, username, role string) string {
	t.Helper()

	testutil.SeedUser(t, s.db, username, role)
	rec := s.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    username + "@example.com",
		"password": "Password1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out transport.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ok := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, ok.do(t, http.MethodGet, "/health/live", nil, "").Code)
	require.Equal(t, http.StatusOK, ok.do(t, http.MethodGet, "/health/ready", nil, "").Code)

	down := newTestServer(t, func(context.Context) error { return errors.New("db down") })
	require.Equal(t, http.StatusOK, down.do(t, http.MethodGet, "/health/live", nil, "").Code)
	require.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health/ready", nil, "").Code)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	reg := map[string]string{"username": "alice_1", "email": "alice@example.com", "password": "Secret123"}
	rec := s.do(t, http.MethodPost, "/auth/register", reg, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[transport.UserResponse](t, rec)
	require.Equal(t, "alice_1", user.Username)
	require.Equal(t, models.RoleCustomer, user.Role)
	require.NotContains(t, rec.Body.String(), "Secret123")

	rec = s.do(t, http.MethodPost, "/auth/register", reg, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/register",
		map[string]string{"username": "x", "email": "nope", "password": "short"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login",
		map[string]string{"email": "alice@example.com", "password": "Wrong1234"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login",
		map[string]string{"email": "alice@example.com", "password": "Secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pair := decode[transport.TokenResponse](t, rec)
	require.NotNil(t, pair.User)
	require.Equal(t, user.ID, pair.User.ID)

	var names []string
	for _, ck := range rec.Result().Cookies() {
		names = append(names, ck.Name)
	}
	require.ElementsMatch(t, []string{tokens.AccessCookie, tokens.RefreshCookie}, names)

	rec = s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := decode[transport.TokenResponse](t, rec)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	rec = s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/refresh", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": rotated.RefreshToken}, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": rotated.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginLockout(t *testing.T) {
	s := newTestServer(t, nil)
	testutil.SeedUser(t, s.db, "bob", models.RoleCustomer)

	bad := map[string]string{"email": "bob@example.com", "password": "Wrong1234"}
	for range 5 {
		require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/auth/login", bad, "").Code)
	}

	good := map[string]string{"email": "bob@example.com", "password": "Password1"}
	require.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, "/auth/login", good, "").Code)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	lamp := testutil.SeedProduct(t, s.db, "Desk Lamp", "25.00", 3)
	testutil.SeedProduct(t, s.db, "Sold Out Chair", "80.00", 0)

	rec := s.do(t, http.MethodGet, "/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[transport.ListResponse[models.Product]](t, rec)
	require.Len(t, list.Data, 1)
	require.Equal(t, lamp.ID, list.Data[0].ID)
	require.EqualValues(t, 1, list.Meta.Total)
	require.Equal(t, service.CatalogPageSize, list.Meta.Size)

	rec = s.do(t, http.MethodGet, "/products/"+lamp.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Product](t, rec)
	require.True(t, got.Price.Equal(lamp.Price))

	require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/products/not-a-uuid", nil, "").Code)
	require.Equal(t, http.StatusNotFound,
		s.do(t, http.MethodGet, "/products/00000000-0000-0000-0000-000000000001", nil, "").Code)

	rec = s.do(t, http.MethodGet, "/products/categories", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"testing"}, decode[[]string](t, rec))

	rec = s.do(t, http.MethodGet, "/products/search?q=lamp", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[transport.ListResponse[models.Product]](t, rec)
	require.Len(t, found.Data, 1)
	require.Equal(t, lamp.ID, found.Data[0].ID)
}

func TestProfileRoute(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "hana", models.RoleCustomer)
	testutil.SeedUser(t, s.db, "ivan", models.RoleCustomer)

	body := map[string]string{"username": "hana_k", "email": "hana.k@example.com"}
	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPatch, "/auth/profile", body, "").Code)

	rec := s.do(t, http.MethodPatch, "/auth/profile", body, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[transport.UserResponse](t, rec)
	require.Equal(t, "hana_k", got.Username)
	require.Equal(t, "hana.k@example.com", got.Email)

	rec = s.do(t, http.MethodPatch, "/auth/profile",
		map[string]string{"username": "ivan", "email": "hana.k@example.com"}, token)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPatch, "/auth/profile",
		map[string]string{"username": "hana_k", "email": "nope"}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminProductsListsSoldOut(t *testing.T) {
	s := newTestServer(t, nil)
	p := testutil.SeedProduct(t, s.db, "Last Lamp", "30.00", 1)
	customer := s.login(t, "jack", models.RoleCustomer)
	admin := s.login(t, "kate", models.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/cart/items", map[string]any{"product_id": p.ID.String(), "quantity": 1}, customer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/products", nil, "")
	require.Empty(t, decode[transport.ListResponse[models.Product]](t, rec).Data)

	require.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/admin/products", nil, customer).Code)

	rec = s.do(t, http.MethodGet, "/admin/products", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[transport.ListResponse[models.Product]](t, rec)
	require.Len(t, list.Data, 1)
	require.Equal(t, p.ID, list.Data[0].ID)
	require.Equal(t, 0, list.Data[0].StockQuantity)
	require.Equal(t, 1, list.Data[0].ReservedQuantity)
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	p := testutil.SeedProduct(t, s.db, "Mug", "10.00", 5)

	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/cart", nil, "").Code)

	token := s.login(t, "carol", models.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/cart/items", map[string]any{"product_id": p.ID.String(), "quantity": 2}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, 3, testutil.Reload(t, s.db, p).StockQuantity)

	rec = s.do(t, http.MethodPost, "/cart/items", map[string]any{"product_id": p.ID.String(), "quantity": 10}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	short := decode[map[string]any](t, rec)
	assert.EqualValues(t, 3, short["available"])
	assert.Contains(t, short["message"], "only 3 available")

	rec = s.do(t, http.MethodPost, "/cart/items", map[string]any{"product_id": "bad", "quantity": 1}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/cart", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[transport.CartResponse](t, rec)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 2, cart.Count)
	require.Equal(t, "20", cart.Total.String())
	require.Equal(t, "20", cart.Items[0].Subtotal.String())

	rec = s.do(t, http.MethodPut, "/cart/items/"+p.ID.String(), map[string]int{"quantity": 4}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, testutil.Reload(t, s.db, p).StockQuantity)

	rec = s.do(t, http.MethodPut, "/cart/items/"+p.ID.String(), map[string]any{}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/cart/items/"+p.ID.String(), map[string]int{"quantity": 0}, token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 5, testutil.Reload(t, s.db, p).StockQuantity)

	rec = s.do(t, http.MethodDelete, "/cart/items/"+p.ID.String(), nil, token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 5, testutil.Reload(t, s.db, p).StockQuantity)

	s.do(t, http.MethodPost, "/cart/items", map[string]any{"product_id": p.ID.String(), "quantity": 1}, token)
	rec = s.do(t, http.MethodGet, "/cart/summary", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[transport.CartSummaryResponse](t, rec)
	require.Equal(t, 1, sum.Count)

	rec = s.do(t, http.MethodDelete, "/cart", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]int{"removed": 1}, decode[map[string]int](t, rec))
	require.Equal(t, 5, testutil.Reload(t, s.db, p).StockQuantity)
}

func TestOrderRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	p := testutil.SeedProduct(t, s.db, "Kettle", "12.50", 4)
	token := s.login(t, "dave", models.RoleCustomer)
	other := s.login(t, "erin", models.RoleCustomer)

	checkout := map[string]string{"shipping_address": "1 Long Street, Springfield", "payment_method": "paypal"}
	rec := s.do(t, http.MethodPost, "/orders/checkout", checkout, token)
	require.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	s.do(t, http.MethodPost, "/cart/items", map[string]any{"product_id": p.ID.String(), "quantity": 2}, token)

	rec = s.do(t, http.MethodPost, "/orders/checkout",
		map[string]string{"shipping_address": "short", "payment_method": "paypal"}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/orders/checkout", checkout, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	require.Equal(t, models.StatusPending, order.Status)
	require.Equal(t, "25", order.TotalAmount.String())
	require.Len(t, order.Items, 1)

	after := testutil.Reload(t, s.db, p)
	require.Equal(t, 2, after.StockQuantity)
	require.Equal(t, 0, after.ReservedQuantity)

	rec = s.do(t, http.MethodGet, "/cart", nil, token)
	require.Empty(t, decode[transport.CartResponse](t, rec).Items)

	rec = s.do(t, http.MethodGet, "/orders", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[transport.ListResponse[models.Order]](t, rec)
	require.Len(t, list.Data, 1)
	require.Equal(t, order.ID, list.Data[0].ID)

	rec = s.do(t, http.MethodGet, "/orders/recent", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.Order](t, rec), 1)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/orders/"+order.ID.String(), nil, token).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/orders/"+order.ID.String(), nil, other).Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	customer := s.login(t, "frank", models.RoleCustomer)
	admin := s.login(t, "grace", models.RoleAdmin)

	create := map[string]any{
		"name":           "Standing Desk",
		"description":    "height adjustable desk",
		"category":       "furniture",
		"price":          "300.00",
		"stock_quantity": 7,
	}
	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/admin/products", create, "").Code)
	require.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/admin/products", create, customer).Code)

	rec := s.do(t, http.MethodPost, "/admin/products", create, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	desk := decode[models.Product](t, rec)
	require.Equal(t, 7, desk.StockQuantity)

	invalid := map[string]any{"name": "", "category": "furniture", "price": "1.00"}
	require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/admin/products", invalid, admin).Code)

	rec = s.do(t, http.MethodPatch, "/admin/products/"+desk.ID.String(), map[string]any{"stock_quantity": 2}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 2, decode[models.Product](t, rec).StockQuantity)
	require.Equal(t, "Standing Desk", testutil.Reload(t, s.db, &desk).Name)

	s.do(t, http.MethodPost, "/cart/items", map[string]any{"product_id": desk.ID.String(), "quantity": 1}, customer)
	rec = s.do(t, http.MethodPost, "/orders/checkout",
		map[string]string{"shipping_address": "22 Acacia Avenue, Leeds", "payment_method": "credit_card"}, customer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)

	rec = s.do(t, http.MethodGet, "/admin/orders", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decode[transport.ListResponse[models.Order]](t, rec).Meta.Total)

	status := "/admin/orders/" + order.ID.String() + "/status"
	require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, status, map[string]string{"status": "lost"}, admin).Code)
	rec = s.do(t, http.MethodPatch, status, map[string]string{"status": "shipped"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusShipped, decode[models.Order](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[transport.ListResponse[transport.UserResponse]](t, rec)
	require.Len(t, users.Data, 2)

	var frankID string
	for _, u := range users.Data {
		if u.Username == "frank" {
			frankID = u.ID.String()
		}
	}
	require.NotEmpty(t, frankID)
	rec = s.do(t, http.MethodPatch, "/admin/users/"+frankID+"/role", map[string]string{"role": "admin"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.RoleAdmin, decode[transport.UserResponse](t, rec).Role)
	require.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPatch, "/admin/users/"+frankID+"/role", map[string]string{"role": "root"}, admin).Code)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/admin/products/"+desk.ID.String(), nil, admin).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/admin/products/"+desk.ID.String(), nil, admin).Code)
}

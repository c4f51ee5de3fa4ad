package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ringside/internal/auth"
	"ringside/internal/config"
	"ringside/internal/delivery"
	"ringside/internal/domain"
	"ringside/internal/mailer"
	"ringside/internal/money"
	"ringside/internal/repository"
	"ringside/internal/service"
)

type fakeNewsletter struct {
	mu     sync.Mutex
	emails []string
	err    error
}

func (f *fakeNewsletter) Send(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.emails = append(f.emails, email)
	return nil
}

type testEnv struct {
	s          *Server
	verifier   *auth.Verifier
	newsletter *fakeNewsletter
	user       string
	admin      string
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	return newEnv(t, zaptest.NewLogger(t))
}

func newEnv(t *testing.T, log *zap.Logger) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	kv := repository.NewMemoryKV()
	carts := repository.NewCartStore(kv, log)
	orders := repository.NewOrderStore(kv, log)
	products := repository.NewProductStore(kv, log)

	usd := money.NewFormatter("$", false, "en")
	cartSvc := service.NewCartService(carts, usd, log)
	catalog := service.NewCatalogService(service.NewLocalSource(products), 0, log)
	productSvc := service.NewProductService(products)
	productSvc.OnChange(catalog.Invalidate)
	checkout := service.NewCheckoutService(carts, orders,
		delivery.NewCodeGeneratorWithSource(rand.NewPCG(3, 4)),
		service.NewValidator([]string{"4242424242424242"}), 0, log)
	feed := NewOrderFeed([]string{"*"}, log)
	checkout.Subscribe(feed)
	t.Cleanup(feed.Close)

	verifier := auth.NewVerifier(config.AuthConfig{JWTSecret: "test-secret", Issuer: "ringside"})
	userTok, _ := verifier.Mint("user-1", "anna@example.com", "anna", time.Hour)
	adminTok, _ := verifier.Mint("admin-1", "admin@ringside.pl", "", time.Hour)

	nl := &fakeNewsletter{}
	s := NewServer(Deps{
		Catalog:    catalog,
		Cart:       cartSvc,
		Checkout:   checkout,
		Orders:     service.NewOrderService(orders, log),
		Products:   productSvc,
		Customizer: service.NewCustomizerService(catalog, cartSvc, usd),
		Newsletter: nl,
		Verifier:   verifier,
		Feed:       feed,
		Log:        log,
	})
	return &testEnv{s: s, verifier: verifier, newsletter: nl, user: userTok, admin: adminTok}
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func checkoutBody() map[string]any {
	return map[string]any{
		"personalInfo": map[string]any{
			"firstName": "Anna", "lastName": "Nowak", "email": "anna@example.com", "phone": "+48 600 100 200",
		},
		"shippingMethodId": "pickup-point",
		"deliveryPointId":  "dp-centrum",
		"paymentMethod":    "card",
		"card":             map[string]any{"number": "4242 4242 4242 4242"},
	}
}

func TestCatalogRoutes(t *testing.T) {
	env := setupServer(t)

	w := doJSON(t, env.s, http.MethodGet, "/api/v1/catalog/products?q=gloves&on_sale=true", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v", w.Code)
	}
	list := decode[[]domain.Product](t, w)
	if len(list) != 1 || list[0].ID != "gloves-pro-16" {
		t.Fatalf("unexpected filter result %+v", list)
	}

	w = doJSON(t, env.s, http.MethodGet, "/api/v1/catalog/products?category=Gloves,Accessories&color=White", "", nil)
	if got := decode[[]domain.Product](t, w); len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}

	w = doJSON(t, env.s, http.MethodGet, "/api/v1/catalog/products/open-face-headgear", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("by slug code %v", w.Code)
	}
	w = doJSON(t, env.s, http.MethodGet, "/api/v1/catalog/products/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing product code %v", w.Code)
	}

	w = doJSON(t, env.s, http.MethodGet, "/api/v1/catalog/facets", "", nil)
	facets := decode[service.Facets](t, w)
	if len(facets.Categories) == 0 || len(facets.Colors) == 0 {
		t.Fatalf("empty facets %+v", facets)
	}

	for _, path := range []string{"/api/v1/health", "/api/v1/shipping-methods", "/api/v1/delivery-points", "/api/v1/customizer/options", "/api/v1/catalog/categories"} {
		if w := doJSON(t, env.s, http.MethodGet, path, "", nil); w.Code != http.StatusOK {
			t.Fatalf("%s code %v", path, w.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	env := setupServer(t)
	if w := doJSON(t, env.s, http.MethodGet, "/api/v1/cart", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", w.Code)
	}
	if w := doJSON(t, env.s, http.MethodGet, "/api/v1/cart", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %v", w.Code)
	}
	if w := doJSON(t, env.s, http.MethodGet, "/api/v1/admin/orders", env.user, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %v", w.Code)
	}
	w := doJSON(t, env.s, http.MethodGet, "/api/v1/me", env.admin, nil)
	if id := decode[auth.Identity](t, w); !id.Admin {
		t.Fatalf("expected admin identity, got %+v", id)
	}
}

func TestCartFlow(t *testing.T) {
	env := setupServer(t)
	item := map[string]any{"id": "wraps-180", "name": "Hand Wraps", "price": "$12.99", "quantity": 1, "size": "One size"}

	for i := 0; i < 2; i++ {
		if w := doJSON(t, env.s, http.MethodPost, "/api/v1/cart/items", env.user, item); w.Code != http.StatusOK {
			t.Fatalf("add code %v: %s", w.Code, w.Body)
		}
	}
	w := doJSON(t, env.s, http.MethodGet, "/api/v1/cart", env.user, nil)
	items := decode[[]domain.CartItem](t, w)
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected merged line, got %+v", items)
	}

	w = doJSON(t, env.s, http.MethodPatch, "/api/v1/cart/items/wraps-180", env.user, map[string]any{"size": "One size", "quantity": 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %v", w.Code)
	}
	w = doJSON(t, env.s, http.MethodPatch, "/api/v1/cart/items/wraps-180", env.user, map[string]any{"size": "One size", "quantity": 4})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v", w.Code)
	}
	w = doJSON(t, env.s, http.MethodGet, "/api/v1/cart/total", env.user, nil)
	if got := decode[map[string]string](t, w)["total"]; got != "$51.96" {
		t.Fatalf("total %q", got)
	}

	w = doJSON(t, env.s, http.MethodDelete, "/api/v1/cart/items/wraps-180?size=One+size", env.user, nil)
	if got := decode[[]domain.CartItem](t, w); len(got) != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}

	w = doJSON(t, env.s, http.MethodPost, "/api/v1/customizer/cart", env.user, map[string]any{
		"productId": "gloves-bag-12", "color": "Red", "material": "premium", "size": "12oz",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("customizer code %v: %s", w.Code, w.Body)
	}
	if w := doJSON(t, env.s, http.MethodPost, "/api/v1/session/logout", env.user, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout code %v", w.Code)
	}
	w = doJSON(t, env.s, http.MethodGet, "/api/v1/cart", env.user, nil)
	if got := decode[[]domain.CartItem](t, w); len(got) != 0 {
		t.Fatalf("logout should clear the cart, got %+v", got)
	}
}

func TestCheckoutFlow(t *testing.T) {
	env := setupServer(t)

	w := doJSON(t, env.s, http.MethodPost, "/api/v1/checkout", env.user, checkoutBody())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %v", w.Code)
	}

	if w := doJSON(t, env.s, http.MethodPost, "/api/v1/cart/items", env.user,
		map[string]any{"id": "gloves-pro-16", "name": "Gloves", "price": "$89.99", "quantity": 1, "size": "16oz"}); w.Code != http.StatusOK {
		t.Fatalf("add code %v: %s", w.Code, w.Body)
	}

	bad := checkoutBody()
	bad["shippingMethodId"] = "courier"
	w = doJSON(t, env.s, http.MethodPost, "/api/v1/checkout", env.user, bad)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", w.Code)
	}
	fields := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w).Fields
	if _, ok := fields["address.street"]; !ok {
		t.Fatalf("expected address.street error, got %v", fields)
	}

	w = doJSON(t, env.s, http.MethodPost, "/api/v1/checkout", env.user, checkoutBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout code %v: %s", w.Code, w.Body)
	}
	o := decode[domain.Order](t, w)
	if o.Status != domain.OrderStatusPending || o.TotalAmount != 99.98 {
		t.Fatalf("unexpected order %+v", o)
	}

	w = doJSON(t, env.s, http.MethodGet, "/api/v1/orders/latest", env.user, nil)
	if decode[domain.Order](t, w).ID != o.ID {
		t.Fatalf("latest order mismatch")
	}
	w = doJSON(t, env.s, http.MethodGet, "/api/v1/orders", env.user, nil)
	if got := decode[[]domain.Order](t, w); len(got) != 1 {
		t.Fatalf("expected 1 order, got %d", len(got))
	}

	// admin views
	w = doJSON(t, env.s, http.MethodPatch, "/api/v1/admin/orders/"+o.ID+"/status", env.admin, map[string]any{"status": "shipped"})
	if w.Code != http.StatusOK {
		t.Fatalf("status code %v", w.Code)
	}
	w = doJSON(t, env.s, http.MethodPatch, "/api/v1/admin/orders/"+o.ID+"/status", env.admin, map[string]any{"status": "teleported"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %v", w.Code)
	}
	w = doJSON(t, env.s, http.MethodGet, "/api/v1/orders/latest", env.user, nil)
	if decode[domain.Order](t, w).Status != domain.OrderStatusShipped {
		t.Fatalf("owner does not see new status")
	}
	w = doJSON(t, env.s, http.MethodGet, "/api/v1/admin/orders/export", env.admin, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("export code %v headers %v", w.Code, w.Header())
	}
}

func TestAdminProductFlow(t *testing.T) {
	env := setupServer(t)
	w := doJSON(t, env.s, http.MethodPost, "/api/v1/admin/products", env.admin, map[string]any{
		"name": "Speed Bag", "category": "Training", "price": 39.9, "inStock": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create code %v", w.Code)
	}
	p := decode[domain.Product](t, w)

	// catalog reads the admin list
	w = doJSON(t, env.s, http.MethodGet, "/api/v1/catalog/products/speed-bag", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("catalog does not see new product: %v", w.Code)
	}

	w = doJSON(t, env.s, http.MethodPut, "/api/v1/admin/products/"+p.ID, env.admin, map[string]any{
		"name": "Speed Bag Pro", "category": "Training", "price": 44.9,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v", w.Code)
	}
	if w := doJSON(t, env.s, http.MethodDelete, "/api/v1/admin/products/"+p.ID, env.admin, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete code %v", w.Code)
	}
	if w := doJSON(t, env.s, http.MethodGet, "/api/v1/admin/products/"+p.ID, env.admin, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete code %v", w.Code)
	}
}

func TestNewsletter(t *testing.T) {
	env := setupServer(t)
	if w := doJSON(t, env.s, http.MethodPost, "/api/v1/newsletter", "", map[string]any{"email": "nope"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}
	if w := doJSON(t, env.s, http.MethodPost, "/api/v1/newsletter", "", map[string]any{"email": "fan@example.com"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %v", w.Code)
	}
	env.newsletter.err = errors.Join(mailer.ErrUnavailable, errors.New("quota"))
	if w := doJSON(t, env.s, http.MethodPost, "/api/v1/newsletter", "", map[string]any{"email": "fan@example.com"}); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", w.Code)
	}
}

func TestOrderFeed(t *testing.T) {
	// hijacked connections outlive the test, so log to a no-op logger
	env := newEnv(t, zap.NewNop())
	srv := httptest.NewServer(env.s.Engine())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/admin/orders/feed?token=" + env.admin
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.s.Feed.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("feed client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if w := doJSON(t, env.s, http.MethodPost, "/api/v1/cart/items", env.user,
		map[string]any{"id": "wraps-180", "name": "Wraps", "price": "12.99", "quantity": 1}); w.Code != http.StatusOK {
		t.Fatalf("add code %v: %s", w.Code, w.Body)
	}
	w := doJSON(t, env.s, http.MethodPost, "/api/v1/checkout", env.user, checkoutBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout code %v", w.Code)
	}
	placed := decode[domain.Order](t, w)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pushed domain.Order
	if err := conn.ReadJSON(&pushed); err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if pushed.ID != placed.ID {
		t.Fatalf("feed pushed %s, want %s", pushed.ID, placed.ID)
	}

	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/admin/orders/feed?token="+env.user, nil); err == nil {
		t.Fatal("non-admin should not get a feed")
	}
}

func TestOrderFeed_SlowClientDoesNotBlock(t *testing.T) {
	env := newEnv(t, zap.NewNop())
	srv := httptest.NewServer(env.s.Engine())
	defer srv.Close()

	// the client never reads, so its socket fills up
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/admin/orders/feed?token=" + env.admin
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.s.Feed.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("feed client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	big := domain.Order{ID: "ORD-BIG", DeliveryCode: strings.Repeat("x", 256<<10)}
	start := time.Now()
	for i := 0; i < 200; i++ {
		env.s.Feed.OrderPlaced(context.Background(), big)
	}
	if took := time.Since(start); took > time.Second {
		t.Fatalf("broadcast took %v", took)
	}

	deadline = time.Now().Add(2 * time.Second)
	for env.s.Feed.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client was never dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrInvalidQuantity, http.StatusBadRequest},
		{service.ErrForbidden, http.StatusForbidden},
		{repository.ErrNotFound, http.StatusNotFound},
		{service.ErrInvalidState, http.StatusConflict},
		{&service.ValidationError{Fields: map[string]string{"a": "b"}}, http.StatusUnprocessableEntity},
		{auth.ErrUnauthenticated, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := mapErrorToStatus(c.err); got != c.want {
			t.Fatalf("%v: got %d want %d", c.err, got, c.want)
		}
	}
}

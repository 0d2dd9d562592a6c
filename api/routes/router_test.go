package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sitheefoods/storefront-backend/api/middleware"
	"github.com/sitheefoods/storefront-backend/internal/checkout"
	"github.com/sitheefoods/storefront-backend/internal/orders"
	"github.com/sitheefoods/storefront-backend/internal/products"
	"github.com/sitheefoods/storefront-backend/internal/session"
	"github.com/sitheefoods/storefront-backend/pkg/config"
	"github.com/sitheefoods/storefront-backend/pkg/pagination"
	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

type stubBackend struct{}

func (stubBackend) Login(context.Context, session.Credentials) (*session.AuthResult, error) {
	return &session.AuthResult{Token: "tok", User: session.User{ID: "u1", Name: "Priya"}}, nil
}

func (stubBackend) Signup(context.Context, session.SignupRequest) (*session.AuthResult, error) {
	return &session.AuthResult{Token: "tok", User: session.User{ID: "u1", Name: "Priya"}}, nil
}

func (stubBackend) Me(context.Context, string) (*session.User, error) {
	return &session.User{ID: "u1", Name: "Priya"}, nil
}

func (stubBackend) Create(_ context.Context, _ orders.Draft, token string) (*orders.CreateResult, error) {
	return &orders.CreateResult{OrderID: "ORD-123456", Guest: token == ""}, nil
}

func (stubBackend) ListUserOrders(context.Context, string) ([]orders.Order, error) {
	return []orders.Order{{ID: "ORD-123456", Status: "pending"}}, nil
}

func (stubBackend) GetOrder(_ context.Context, orderID, _ string) (*orders.Order, error) {
	return &orders.Order{ID: orderID, Status: "pending"}, nil
}

func (stubBackend) Cancel(_ context.Context, orderID, _ string) (*orders.Order, error) {
	return &orders.Order{ID: orderID, Status: "cancelled"}, nil
}

func (stubBackend) List(context.Context, pagination.Params, string) (*products.Page, error) {
	return &products.Page{Products: []products.Product{{ID: "A", Name: "Chilli Powder"}}, Total: 1}, nil
}

func (stubBackend) Get(_ context.Context, productID string) (*products.Product, error) {
	return &products.Product{ID: productID, Name: "Chilli Powder"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	backend := stubBackend{}
	manager, err := checkout.NewManager(storage.NewMemory(), backend, backend, checkout.Policy{ShippingFee: 50}, nil, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	cfg := &config.Config{App: config.AppConfig{Env: "dev", Port: "8080"}}
	return NewRouter(cfg, nil, storage.NewMemory(), manager, backend, backend, prometheus.NewRegistry())
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ShopperKeyHeader, "k1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthEndpoints(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := doRequest(t, router, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
		if rec.Header().Get("X-Sithee-Env") != "dev" {
			t.Fatalf("%s missing env header", path)
		}
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics returned %d", rec.Code)
	}
}

func TestRouterAssignsShopperKey(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("cart returned %d", rec.Code)
	}
	if rec.Header().Get(middleware.ShopperKeyHeader) == "" {
		t.Fatal("a shopper key must be issued when none is sent")
	}
}

func TestRouterCartAndCheckoutFlow(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	if rec := doRequest(t, router, http.MethodPost, "/api/v1/cart/items", `{"id":"A","price":120,"stock":5,"quantity":2}`); rec.Code != http.StatusOK {
		t.Fatalf("add returned %d: %s", rec.Code, rec.Body.String())
	}
	if rec := doRequest(t, router, http.MethodPut, "/api/v1/checkout/delivery", `{
		"fullName":"Priya Raman","email":"priya@example.com","phone":"9876543210",
		"address":"12 Gandhi Street, Old Town","city":"Madurai","state":"Tamil Nadu","zip":"625001"
	}`); rec.Code != http.StatusOK {
		t.Fatalf("delivery returned %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout/next", ""); rec.Code != http.StatusOK {
		t.Fatalf("next returned %d: %s", rec.Code, rec.Body.String())
	}
	if rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout/next", ""); rec.Code != http.StatusOK {
		t.Fatalf("next returned %d", rec.Code)
	}

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout/submit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("submit returned %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Step    string `json:"step"`
			OrderID string `json:"orderId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.Step != "complete" || envelope.Data.OrderID != "ORD-123456" {
		t.Fatalf("unexpected completion: %+v", envelope.Data)
	}
}

func TestRouterOrdersAndProducts(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	if rec := doRequest(t, router, http.MethodGet, "/api/v1/orders", ""); rec.Code != http.StatusOK {
		t.Fatalf("orders returned %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/api/v1/orders/ORD-123456", ""); rec.Code != http.StatusOK {
		t.Fatalf("order detail returned %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPost, "/api/v1/orders/ORD-123456/cancel", ""); rec.Code != http.StatusOK {
		t.Fatalf("order cancel returned %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/api/v1/products?page=1&limit=10", ""); rec.Code != http.StatusOK {
		t.Fatalf("products returned %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/api/v1/products/A", ""); rec.Code != http.StatusOK {
		t.Fatalf("product detail returned %d", rec.Code)
	}
}

func TestRouterAuthFlow(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	if rec := doRequest(t, router, http.MethodGet, "/api/v1/auth/me", ""); rec.Code != http.StatusOK {
		t.Fatalf("guest me returned %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/login", `{"email":"priya@example.com","password":"secret123"}`); rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	if rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/logout", ""); rec.Code != http.StatusOK {
		t.Fatalf("logout returned %d", rec.Code)
	}
}

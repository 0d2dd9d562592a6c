package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/sitheefoods/storefront-backend/internal/cart"
	"github.com/sitheefoods/storefront-backend/internal/session"
	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

type stubAuthClient struct{}

func (stubAuthClient) Login(context.Context, session.Credentials) (*session.AuthResult, error) {
	return &session.AuthResult{Token: "tok", User: session.User{ID: "u1"}}, nil
}

func (stubAuthClient) Signup(context.Context, session.SignupRequest) (*session.AuthResult, error) {
	return &session.AuthResult{Token: "tok", User: session.User{ID: "u1"}}, nil
}

func (stubAuthClient) Me(context.Context, string) (*session.User, error) {
	return &session.User{ID: "u1"}, nil
}

func newManager(t *testing.T, slots storage.Slots) *Manager {
	t.Helper()
	manager, err := NewManager(slots, stubAuthClient{}, &stubOrderCreator{}, Policy{ShippingFee: 50}, nil, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestManagerReusesShopperState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	manager := newManager(t, storage.NewMemory())

	first, err := manager.Shopper(ctx, "k1")
	if err != nil {
		t.Fatalf("shopper: %v", err)
	}
	second, err := manager.Shopper(ctx, "k1")
	if err != nil {
		t.Fatalf("shopper: %v", err)
	}
	if first != second {
		t.Fatal("same key must yield the same state")
	}

	other, err := manager.Shopper(ctx, "k2")
	if err != nil {
		t.Fatalf("shopper: %v", err)
	}
	if other == first {
		t.Fatal("different keys must be isolated")
	}
}

func TestManagerIsolatesCarts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	manager := newManager(t, storage.NewMemory())
	a, err := manager.Shopper(ctx, "k1")
	if err != nil {
		t.Fatalf("shopper: %v", err)
	}
	b, err := manager.Shopper(ctx, "k2")
	if err != nil {
		t.Fatalf("shopper: %v", err)
	}

	if _, err := a.Cart.Add(ctx, cart.Line{ID: "A", Price: 10}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !b.Cart.IsEmpty() {
		t.Fatal("one shopper's cart must not leak into another's")
	}
}

func TestManagerRestoresFromStorageAfterEviction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	slots := storage.NewMemory()
	manager := newManager(t, slots)

	shopper, err := manager.Shopper(ctx, "k1")
	if err != nil {
		t.Fatalf("shopper: %v", err)
	}
	if _, err := shopper.Cart.Add(ctx, cart.Line{ID: "A", Price: 120, Stock: 5}, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if dropped := manager.Prune(time.Hour); dropped != 1 {
		t.Fatalf("expected one eviction, got %d", dropped)
	}
	if manager.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", manager.Len())
	}

	restored, err := manager.Shopper(ctx, "k1")
	if err != nil {
		t.Fatalf("shopper: %v", err)
	}
	if restored.Cart.ItemCount() != 2 {
		t.Fatalf("expected restored cart, got %d items", restored.Cart.ItemCount())
	}
}

func TestManagerRequiresKey(t *testing.T) {
	t.Parallel()

	manager := newManager(t, storage.NewMemory())
	if _, err := manager.Shopper(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

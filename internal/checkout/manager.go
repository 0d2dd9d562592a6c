package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sitheefoods/storefront-backend/internal/cart"
	"github.com/sitheefoods/storefront-backend/internal/session"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
	"github.com/sitheefoods/storefront-backend/pkg/metrics"
	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

// Shopper bundles one shopper key's state: the cart, the session, and the
// checkout workflow, all bound to that key's storage slots.
type Shopper struct {
	Cart     *cart.Store
	Session  *session.Holder
	Workflow *Workflow

	lastSeen time.Time
}

// authClient is the slice of the auth service the manager wires into holders.
type authClient interface {
	Login(ctx context.Context, creds session.Credentials) (*session.AuthResult, error)
	Signup(ctx context.Context, req session.SignupRequest) (*session.AuthResult, error)
	Me(ctx context.Context, token string) (*session.User, error)
}

// Manager lazily builds and caches per-shopper state. State is rebuilt from
// storage on first access after a restart, so eviction only costs a restore.
type Manager struct {
	mu       sync.Mutex
	shoppers map[string]*Shopper

	slots   storage.Slots
	auth    authClient
	orders  orderCreator
	policy  Policy
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
}

// NewManager builds the registry over the shared storage backend.
func NewManager(slots storage.Slots, auth authClient, orderAPI orderCreator, policy Policy, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Manager, error) {
	if slots == nil {
		return nil, fmt.Errorf("checkout: slot storage required")
	}
	if auth == nil {
		return nil, fmt.Errorf("checkout: auth client required")
	}
	if orderAPI == nil {
		return nil, fmt.Errorf("checkout: order client required")
	}
	return &Manager{
		shoppers: map[string]*Shopper{},
		slots:    slots,
		auth:     auth,
		orders:   orderAPI,
		policy:   policy,
		logg:     logg,
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Shopper returns the state for the given key, restoring it from storage on
// first access.
func (m *Manager) Shopper(ctx context.Context, key string) (*Shopper, error) {
	if key == "" {
		return nil, fmt.Errorf("checkout: shopper key required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.shoppers[key]; ok {
		existing.lastSeen = m.now()
		return existing, nil
	}

	store, err := cart.NewStore(ctx, m.slots, storage.CartSlot(key), m.logg, m.metrics)
	if err != nil {
		return nil, err
	}
	holder, err := session.NewHolder(ctx, m.slots, storage.TokenSlot(key), storage.UserSlot(key), m.auth, m.logg)
	if err != nil {
		return nil, err
	}
	workflow, err := NewWorkflow(store, holder, m.orders, m.policy, m.logg, m.metrics)
	if err != nil {
		return nil, err
	}

	shopper := &Shopper{
		Cart:     store,
		Session:  holder,
		Workflow: workflow,
		lastSeen: m.now(),
	}
	m.shoppers[key] = shopper
	return shopper, nil
}

// Prune evicts shoppers idle longer than the given age and reports how many
// were dropped. Their state stays in storage and restores on next access.
func (m *Manager) Prune(olderThan time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-olderThan)
	dropped := 0
	for key, shopper := range m.shoppers {
		if shopper.lastSeen.Before(cutoff) {
			delete(m.shoppers, key)
			dropped++
		}
	}
	return dropped
}

// Len reports how many shoppers are currently cached.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shoppers)
}

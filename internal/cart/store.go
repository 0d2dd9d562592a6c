package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sitheefoods/storefront-backend/pkg/logger"
	"github.com/sitheefoods/storefront-backend/pkg/metrics"
	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

// envelopeVersion tags the persisted cart payload so future shape changes can
// migrate or discard old data deliberately.
const envelopeVersion = 1

type envelope struct {
	Version int    `json:"version"`
	Items   []Line `json:"items"`
}

type rawEnvelope struct {
	Version int               `json:"version"`
	Items   []json.RawMessage `json:"items"`
}

// storedLine tolerates the legacy `_id` key some catalog payloads carry.
type storedLine struct {
	Line
	AltID string `json:"_id"`
}

// Store is the single source of truth for one shopper's cart. All mutation
// goes through the pure reducer; every transition is written through to the
// backing slot before the call returns.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	slots   storage.Slots
	slot    string
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
}

// NewStore restores the cart from its slot, dropping entries that fail the
// line invariant and discarding unparseable payloads wholesale.
func NewStore(ctx context.Context, slots storage.Slots, slotName string, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Store, error) {
	if slots == nil {
		return nil, fmt.Errorf("cart: slot storage required")
	}
	if slotName == "" {
		return nil, fmt.Errorf("cart: slot name required")
	}

	s := &Store{
		slots:   slots,
		slot:    slotName,
		logg:    logg,
		metrics: m,
	}
	s.lines = s.restore(ctx)
	return s, nil
}

func (s *Store) restore(ctx context.Context) []Line {
	payload, err := s.slots.Get(ctx, s.slot)
	if err != nil {
		if !errors.Is(err, storage.ErrSlotNotFound) {
			s.warn(ctx, "cart.restore.read_failed")
		}
		return []Line{}
	}

	items, ok := decodeItems(payload)
	if !ok {
		s.warn(ctx, "cart.restore.discarded")
		return []Line{}
	}

	lines := make([]Line, 0, len(items))
	for _, raw := range items {
		var stored storedLine
		if err := json.Unmarshal(raw, &stored); err != nil {
			s.dropEntry(ctx)
			continue
		}
		line := stored.Line
		if line.ID == "" {
			line.ID = stored.AltID
		}
		if line.ID == "" || line.Quantity <= 0 {
			s.dropEntry(ctx)
			continue
		}
		s.metrics.IncRestored("kept")
		lines = append(lines, line)
	}
	return lines
}

// decodeItems accepts the current versioned envelope or a legacy bare array.
func decodeItems(payload []byte) ([]json.RawMessage, bool) {
	var env rawEnvelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Version == envelopeVersion {
		return env.Items, true
	}

	var legacy []json.RawMessage
	if err := json.Unmarshal(payload, &legacy); err == nil {
		return legacy, true
	}
	return nil, false
}

func (s *Store) dropEntry(ctx context.Context) {
	s.metrics.IncRestored("dropped")
	s.warn(ctx, "cart.restore.entry_dropped")
}

func (s *Store) warn(ctx context.Context, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "slot", s.slot), msg)
}

// Add merges the line into the cart and persists the result.
func (s *Store) Add(ctx context.Context, line Line, qty int) ([]Line, error) {
	return s.dispatch(ctx, "add", func(state []Line) []Line {
		return Add(state, line, qty)
	})
}

// Remove drops the line with the given id and persists the result.
func (s *Store) Remove(ctx context.Context, id string) ([]Line, error) {
	return s.dispatch(ctx, "remove", func(state []Line) []Line {
		return Remove(state, id)
	})
}

// UpdateQuantity adjusts a line's quantity and persists the result.
func (s *Store) UpdateQuantity(ctx context.Context, id string, direction Direction, delta int) ([]Line, error) {
	return s.dispatch(ctx, "update_quantity", func(state []Line) []Line {
		return UpdateQuantity(state, id, direction, delta)
	})
}

// Clear empties the cart and persists the result.
func (s *Store) Clear(ctx context.Context) ([]Line, error) {
	return s.dispatch(ctx, "clear", func(state []Line) []Line {
		return Clear(state)
	})
}

func (s *Store) dispatch(ctx context.Context, action string, transition func([]Line) []Line) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := transition(s.lines)
	if err := s.persist(ctx, next); err != nil {
		return s.snapshot(), err
	}
	s.lines = next
	s.metrics.IncCartAction(action)
	return s.snapshot(), nil
}

func (s *Store) persist(ctx context.Context, lines []Line) error {
	payload, err := json.Marshal(envelope{Version: envelopeVersion, Items: lines})
	if err != nil {
		return fmt.Errorf("cart: marshal cart: %w", err)
	}
	if err := s.slots.Set(ctx, s.slot, payload); err != nil {
		return fmt.Errorf("cart: persist cart: %w", err)
	}
	return nil
}

// Lines returns a copy of the current state.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// ItemCount is the sum of quantities currently in the cart.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ItemCount(s.lines)
}

// Subtotal is the current cart subtotal.
func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Subtotal(s.lines)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

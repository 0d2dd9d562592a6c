package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

func newTestStore(t *testing.T, seed []byte) (*Store, storage.Slots) {
	t.Helper()
	slots := storage.NewMemory()
	if seed != nil {
		if err := slots.Set(context.Background(), storage.CartSlot("k1"), seed); err != nil {
			t.Fatalf("seed slot: %v", err)
		}
	}
	store, err := NewStore(context.Background(), slots, storage.CartSlot("k1"), nil, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, slots
}

func persistedLines(t *testing.T, slots storage.Slots) []Line {
	t.Helper()
	payload, err := slots.Get(context.Background(), storage.CartSlot("k1"))
	if err != nil {
		t.Fatalf("read slot: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Version != envelopeVersion {
		t.Fatalf("unexpected envelope version %d", env.Version)
	}
	return env.Items
}

func TestStoreStartsEmpty(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, nil)
	if !store.IsEmpty() {
		t.Fatal("expected empty cart on first load")
	}
}

func TestStoreWriteThroughOnEveryTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, slots := newTestStore(t, nil)

	if _, err := store.Add(ctx, Line{ID: "A", Price: 100, Stock: 5}, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := persistedLines(t, slots); len(got) != 1 || got[0].Quantity != 2 {
		t.Fatalf("expected persisted add, got %+v", got)
	}

	if _, err := store.UpdateQuantity(ctx, "A", DirectionIncrease, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := persistedLines(t, slots); got[0].Quantity != 3 {
		t.Fatalf("expected persisted quantity 3, got %+v", got)
	}

	if _, err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := persistedLines(t, slots); len(got) != 0 {
		t.Fatalf("expected persisted empty cart, got %+v", got)
	}
}

func TestStoreRestoresVersionedEnvelope(t *testing.T) {
	t.Parallel()

	seed := []byte(`{"version":1,"items":[{"id":"A","name":"Chilli Powder","price":120,"quantity":2,"stock":5}]}`)
	store, _ := newTestStore(t, seed)

	lines := store.Lines()
	if len(lines) != 1 || lines[0].ID != "A" || lines[0].Quantity != 2 {
		t.Fatalf("unexpected restored lines: %+v", lines)
	}
}

func TestStoreRestoresLegacyBareArray(t *testing.T) {
	t.Parallel()

	seed := []byte(`[{"id":"A","price":120,"quantity":1}]`)
	store, _ := newTestStore(t, seed)

	if lines := store.Lines(); len(lines) != 1 || lines[0].ID != "A" {
		t.Fatalf("unexpected restored lines: %+v", lines)
	}
}

func TestStoreRestoreDropsInvalidEntries(t *testing.T) {
	t.Parallel()

	seed := []byte(`{"version":1,"items":[
		{"id":"A","price":120,"quantity":2},
		{"id":"B","price":50,"quantity":"two"},
		{"id":"","price":10,"quantity":1},
		{"id":"C","price":10,"quantity":0}
	]}`)
	store, _ := newTestStore(t, seed)

	lines := store.Lines()
	if len(lines) != 1 || lines[0].ID != "A" {
		t.Fatalf("expected only the valid line to survive, got %+v", lines)
	}
}

func TestStoreRestoreAcceptsLegacyAltID(t *testing.T) {
	t.Parallel()

	seed := []byte(`[{"_id":"64f1","price":99,"quantity":1}]`)
	store, _ := newTestStore(t, seed)

	if lines := store.Lines(); len(lines) != 1 || lines[0].ID != "64f1" {
		t.Fatalf("expected _id to be adopted, got %+v", lines)
	}
}

func TestStoreRestoreDiscardsCorruptPayloadWholesale(t *testing.T) {
	t.Parallel()

	for _, seed := range [][]byte{
		[]byte(`not json at all`),
		[]byte(`"just a string"`),
		[]byte(`{"version":99,"items":[{"id":"A","quantity":1}]}`),
	} {
		store, _ := newTestStore(t, seed)
		if !store.IsEmpty() {
			t.Fatalf("expected wholesale discard for %s", seed)
		}
	}
}

func TestStoreDerivedViews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, _ := newTestStore(t, nil)
	if _, err := store.Add(ctx, Line{ID: "A", Price: 100, Stock: 9}, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add(ctx, Line{ID: "B", Price: 40, Stock: 9}, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	if got := store.ItemCount(); got != 5 {
		t.Fatalf("expected item count 5, got %d", got)
	}
	if got := store.Subtotal(); got != 320 {
		t.Fatalf("expected subtotal 320, got %d", got)
	}
}

func TestStoreLinesReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, _ := newTestStore(t, nil)
	if _, err := store.Add(ctx, Line{ID: "A", Price: 100}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines := store.Lines()
	lines[0].Quantity = 42

	if store.Lines()[0].Quantity != 1 {
		t.Fatal("mutating the returned slice must not affect the store")
	}
}

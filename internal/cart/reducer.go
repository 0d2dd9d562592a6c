// Package cart holds the shopper's cart: a pure reducer over an ordered line
// sequence, and a store that owns the state and writes it through to storage.
package cart

// Line is one entry in the cart, keyed by product id. Price is in the
// catalog's smallest currency unit.
type Line struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Stock    int    `json:"stock,omitempty"`
	Image    string `json:"image,omitempty"`
	Weight   string `json:"weight,omitempty"`
	Category string `json:"category,omitempty"`
}

// MaxQuantity bounds a line's quantity when the product's stock is unknown.
const MaxQuantity = 999

// Direction selects how UpdateQuantity applies its delta.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
	DirectionSet      Direction = "set"
)

// Add merges a line into the state. An existing line (same id) has its
// quantity increased by qty, clamped to the stock bound; the incoming stock
// value replaces a stale one. A new line appends at the tail, so insertion
// order drives summary and rendering order.
func Add(state []Line, line Line, qty int) []Line {
	if qty <= 0 {
		qty = 1
	}

	for i, existing := range state {
		if existing.ID != line.ID {
			continue
		}
		next := make([]Line, len(state))
		copy(next, state)

		merged := existing
		if line.Stock > 0 {
			merged.Stock = line.Stock
		}
		merged.Quantity = clampQuantity(existing.Quantity+qty, merged.Stock)
		next[i] = merged
		return next
	}

	line.Quantity = clampQuantity(qty, line.Stock)
	next := make([]Line, 0, len(state)+1)
	next = append(next, state...)
	return append(next, line)
}

// Remove filters out the line with the given id. No-op when absent.
func Remove(state []Line, id string) []Line {
	next := make([]Line, 0, len(state))
	for _, line := range state {
		if line.ID != id {
			next = append(next, line)
		}
	}
	return next
}

// UpdateQuantity adjusts the matching line's quantity. Decrease floors at 1
// and never removes the line; removal below quantity 1 is the caller's call.
// No-op when the id is absent.
func UpdateQuantity(state []Line, id string, direction Direction, delta int) []Line {
	if delta <= 0 {
		delta = 1
	}

	next := make([]Line, len(state))
	copy(next, state)
	for i, line := range next {
		if line.ID != id {
			continue
		}
		switch direction {
		case DirectionIncrease:
			line.Quantity = clampQuantity(line.Quantity+delta, line.Stock)
		case DirectionDecrease:
			line.Quantity = line.Quantity - delta
			if line.Quantity < 1 {
				line.Quantity = 1
			}
		case DirectionSet:
			line.Quantity = clampQuantity(delta, line.Stock)
		}
		next[i] = line
		break
	}
	return next
}

// Clear resets to the empty sequence.
func Clear([]Line) []Line {
	return []Line{}
}

// ItemCount sums the quantities across all lines.
func ItemCount(state []Line) int {
	count := 0
	for _, line := range state {
		count += line.Quantity
	}
	return count
}

// Subtotal sums price x quantity across all lines.
func Subtotal(state []Line) int64 {
	var total int64
	for _, line := range state {
		total += LineSubtotal(line)
	}
	return total
}

// LineSubtotal is a single line's price x quantity.
func LineSubtotal(line Line) int64 {
	return line.Price * int64(line.Quantity)
}

func clampQuantity(qty, stock int) int {
	bound := MaxQuantity
	if stock > 0 && stock < bound {
		bound = stock
	}
	if qty > bound {
		qty = bound
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}

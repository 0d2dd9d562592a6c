// Package storage provides named byte slots with pluggable durable backends.
// Each shopper-visible piece of state (cart, session token, user profile)
// lives in its own slot and is written through on every change.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrSlotNotFound is returned when a slot has never been written or was deleted.
var ErrSlotNotFound = errors.New("storage: slot not found")

// Slots is the narrow persistence surface the cart store and session holder use.
type Slots interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Set(ctx context.Context, name string, payload []byte) error
	Delete(ctx context.Context, name string) error
}

// Pinger exposes the health-check surface of a backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Slot name prefixes. One cart slot, one token slot, and one profile slot per
// shopper key, mirroring the three storage slots the storefront relies on.
const (
	cartPrefix  = "cart"
	tokenPrefix = "token"
	userPrefix  = "user"
)

func CartSlot(shopperKey string) string  { return buildName(cartPrefix, shopperKey) }
func TokenSlot(shopperKey string) string { return buildName(tokenPrefix, shopperKey) }
func UserSlot(shopperKey string) string  { return buildName(userPrefix, shopperKey) }

func buildName(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, ":")
}

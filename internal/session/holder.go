package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgerrors "github.com/sitheefoods/storefront-backend/pkg/errors"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

// authAPI is the slice of the auth service the holder needs.
type authAPI interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Signup(ctx context.Context, req SignupRequest) (*AuthResult, error)
	Me(ctx context.Context, token string) (*User, error)
}

// Holder owns one shopper's authentication state. The token and cached
// profile are written through to their slots on every change, and restored
// (with expired tokens discarded) when the holder is built.
type Holder struct {
	mu        sync.RWMutex
	token     string
	user      *User
	slots     storage.Slots
	tokenSlot string
	userSlot  string
	api       authAPI
	logg      *logger.Logger
	now       func() time.Time
}

// NewHolder builds a holder bound to the given slots and restores any
// persisted session.
func NewHolder(ctx context.Context, slots storage.Slots, tokenSlot, userSlot string, api authAPI, logg *logger.Logger) (*Holder, error) {
	h := &Holder{
		slots:     slots,
		tokenSlot: tokenSlot,
		userSlot:  userSlot,
		api:       api,
		logg:      logg,
		now:       time.Now,
	}
	if err := h.restore(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// restore loads the persisted token and profile. A token past its exp claim
// is deleted rather than adopted; a malformed token (no parseable claims) is
// kept, since the auth service is the authority on validity.
func (h *Holder) restore(ctx context.Context) error {
	payload, err := h.slots.Get(ctx, h.tokenSlot)
	switch {
	case errors.Is(err, storage.ErrSlotNotFound):
		return nil
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session token")
	}

	token := string(payload)
	if token == "" {
		return nil
	}
	if expired, known := tokenExpired(token, h.now()); known && expired {
		h.warn(ctx, "dropping expired session token")
		_ = h.slots.Delete(ctx, h.tokenSlot)
		_ = h.slots.Delete(ctx, h.userSlot)
		return nil
	}
	h.token = token

	userPayload, err := h.slots.Get(ctx, h.userSlot)
	if err != nil {
		if !errors.Is(err, storage.ErrSlotNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session profile")
		}
		return nil
	}
	var user User
	if err := json.Unmarshal(userPayload, &user); err != nil {
		h.warn(ctx, "dropping unreadable session profile")
		_ = h.slots.Delete(ctx, h.userSlot)
		return nil
	}
	h.user = &user
	return nil
}

// tokenExpired inspects the exp claim without verifying the signature. The
// second return reports whether an expiry could be determined at all.
func tokenExpired(token string, at time.Time) (expired bool, known bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, false
	}
	return exp.Before(at), true
}

// Login authenticates and persists the resulting session.
func (h *Holder) Login(ctx context.Context, creds Credentials) (*User, error) {
	result, err := h.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := h.adopt(ctx, result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

// Signup creates an account and persists the resulting session.
func (h *Holder) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	result, err := h.api.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := h.adopt(ctx, result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

func (h *Holder) adopt(ctx context.Context, result *AuthResult) error {
	userPayload, err := json.Marshal(result.User)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal session profile")
	}
	if err := h.slots.Set(ctx, h.tokenSlot, []byte(result.Token)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session token")
	}
	if err := h.slots.Set(ctx, h.userSlot, userPayload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session profile")
	}

	h.mu.Lock()
	h.token = result.Token
	user := result.User
	h.user = &user
	h.mu.Unlock()
	return nil
}

// Logout discards the session locally. The token itself is stateless; there
// is nothing to revoke server-side.
func (h *Holder) Logout(ctx context.Context) error {
	if err := h.slots.Delete(ctx, h.tokenSlot); err != nil && !errors.Is(err, storage.ErrSlotNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "discard session token")
	}
	if err := h.slots.Delete(ctx, h.userSlot); err != nil && !errors.Is(err, storage.ErrSlotNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "discard session profile")
	}

	h.mu.Lock()
	h.token = ""
	h.user = nil
	h.mu.Unlock()
	return nil
}

// Token returns the current bearer token, empty when the shopper is a guest.
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// IsAuthenticated reports whether a token is held.
func (h *Holder) IsAuthenticated() bool {
	return h.Token() != ""
}

// CachedUser returns the locally cached profile without a network round trip.
func (h *Holder) CachedUser() *User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.user == nil {
		return nil
	}
	user := *h.user
	return &user
}

// CurrentUser fetches the fresh profile from the auth service. An
// unauthorized response drops the stale session and reports guest state.
func (h *Holder) CurrentUser(ctx context.Context) (*User, error) {
	token := h.Token()
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}

	user, err := h.api.Me(ctx, token)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
			h.warn(ctx, "session token rejected upstream, dropping it")
			_ = h.Logout(ctx)
		}
		return nil, err
	}

	userPayload, marshalErr := json.Marshal(user)
	if marshalErr == nil {
		_ = h.slots.Set(ctx, h.userSlot, userPayload)
	}

	h.mu.Lock()
	cached := *user
	h.user = &cached
	h.mu.Unlock()
	return user, nil
}

func (h *Holder) warn(ctx context.Context, msg string) {
	if h.logg != nil {
		h.logg.Warn(ctx, msg)
	}
}

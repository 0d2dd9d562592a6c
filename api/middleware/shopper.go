package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sitheefoods/storefront-backend/pkg/logger"
)

// ShopperKeyHeader carries the anonymous key that scopes cart, session, and
// checkout state. The browser holds it the way it would hold a cart cookie.
const ShopperKeyHeader = "X-Cart-Key"

type shopperKeyCtxKey struct{}

// ShopperKey assigns a fresh key when the request carries none and echoes the
// key back so the client can persist it.
func ShopperKey(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(ShopperKeyHeader)
			if key == "" {
				key = uuid.NewString()
			}

			w.Header().Set(ShopperKeyHeader, key)

			ctx := context.WithValue(r.Context(), shopperKeyCtxKey{}, key)
			if logg != nil {
				ctx = logg.WithCartKey(ctx, key)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ShopperKeyFromContext returns the key assigned by the ShopperKey middleware.
func ShopperKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(shopperKeyCtxKey{}).(string); ok {
		return key
	}
	return ""
}

package controllers

import (
	"net/http"

	"github.com/sitheefoods/storefront-backend/api/responses"
	"github.com/sitheefoods/storefront-backend/pkg/config"
	pkgerrors "github.com/sitheefoods/storefront-backend/pkg/errors"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sithee-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the storage backend when it exposes a ping surface.
// Memory and file backends have nothing to probe and are always ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, slots storage.Slots) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sithee-Env", cfg.App.Env)

		if pinger, ok := slots.(storage.Pinger); ok {
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage backend unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

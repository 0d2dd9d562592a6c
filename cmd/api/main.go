package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sitheefoods/storefront-backend/api/routes"
	"github.com/sitheefoods/storefront-backend/internal/checkout"
	"github.com/sitheefoods/storefront-backend/internal/orders"
	"github.com/sitheefoods/storefront-backend/internal/products"
	"github.com/sitheefoods/storefront-backend/internal/session"
	"github.com/sitheefoods/storefront-backend/pkg/config"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
	"github.com/sitheefoods/storefront-backend/pkg/metrics"
	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	slots, closeSlots, err := buildStorage(context.Background(), cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap storage backend", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeSlots(); err != nil {
			logg.Error(context.Background(), "error closing storage backend", err)
		}
	}()

	orderClient, err := orders.NewClient(cfg.Storefront.APIBaseURL, orders.WithTimeout(cfg.Storefront.RequestTimeout))
	if err != nil {
		logg.Error(context.Background(), "failed to build order client", err)
		os.Exit(1)
	}
	productClient, err := products.NewClient(cfg.Storefront.APIBaseURL, products.WithTimeout(cfg.Storefront.RequestTimeout))
	if err != nil {
		logg.Error(context.Background(), "failed to build catalog client", err)
		os.Exit(1)
	}
	authClient, err := session.NewClient(cfg.Storefront.APIBaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to build auth client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	manager, err := checkout.NewManager(slots, authClient, orderClient, checkout.Policy{
		ShippingFee:   cfg.Checkout.ShippingFee,
		LocalFallback: cfg.Checkout.LocalFallback,
		FallbackDelay: cfg.Checkout.FallbackDelay,
		RedirectDelay: cfg.Checkout.RedirectDelay,
	}, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout manager", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Backend,
	})
	logg.Info(ctx, "starting storefront api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, slots, manager, orderClient, productClient, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildStorage selects the slot backend named in config. The returned closer
// is a no-op for backends with nothing to release.
func buildStorage(ctx context.Context, cfg *config.Config) (storage.Slots, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.StorageBackendMemory:
		return storage.NewMemory(), noop, nil
	case config.StorageBackendFile:
		store, err := storage.NewFileStore(cfg.Storage.FileDir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case config.StorageBackendSQLite, config.StorageBackendPostgres:
		dbCfg := cfg.DB
		dbCfg.Driver = cfg.Storage.Backend
		store, err := storage.NewDBStore(ctx, dbCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.StorageBackendRedis:
		store, err := storage.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return storage.NewMemory(), noop, nil
}

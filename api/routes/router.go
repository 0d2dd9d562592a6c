package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sitheefoods/storefront-backend/api/controllers"
	"github.com/sitheefoods/storefront-backend/api/middleware"
	"github.com/sitheefoods/storefront-backend/internal/checkout"
	"github.com/sitheefoods/storefront-backend/pkg/config"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	slots storage.Slots,
	manager *checkout.Manager,
	orderAPI controllers.OrderAPI,
	catalogAPI controllers.CatalogAPI,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, slots))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ShopperKey(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(manager, logg))
			r.Delete("/", controllers.CartClear(manager, logg))
			r.Post("/items", controllers.CartAddItem(manager, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(manager, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(manager, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutState(manager, logg))
			r.Put("/delivery", controllers.CheckoutUpdateDelivery(manager, logg))
			r.Put("/payment-method", controllers.CheckoutSetPaymentMethod(manager, logg))
			r.Post("/next", controllers.CheckoutNext(manager, logg))
			r.Post("/back", controllers.CheckoutBack(manager, logg))
			r.Post("/submit", controllers.CheckoutSubmit(manager, logg))
			r.Post("/reset", controllers.CheckoutReset(manager, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(manager, orderAPI, logg))
			r.Get("/{orderId}", controllers.OrderDetail(manager, orderAPI, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(manager, orderAPI, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(catalogAPI, logg))
			r.Get("/{productId}", controllers.ProductDetail(catalogAPI, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", controllers.AuthLogin(manager, logg))
			r.Post("/signup", controllers.AuthSignup(manager, logg))
			r.Post("/logout", controllers.AuthLogout(manager, logg))
			r.Get("/me", controllers.AuthMe(manager, logg))
		})
	})

	return r
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tiendaya/marketplace-backend/api/controllers"
	salescontrollers "github.com/tiendaya/marketplace-backend/api/controllers/sales"
	"github.com/tiendaya/marketplace-backend/api/middleware"
	"github.com/tiendaya/marketplace-backend/internal/notifications"
	"github.com/tiendaya/marketplace-backend/internal/sales"
	"github.com/tiendaya/marketplace-backend/pkg/config"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
	"github.com/tiendaya/marketplace-backend/pkg/logger"
	pkgredis "github.com/tiendaya/marketplace-backend/pkg/redis"
)

// Deps are the services and probes the router mounts.
type Deps struct {
	DB            controllers.Pinger
	Redis         controllers.Pinger
	Idempotency   pkgredis.IdempotencyStore
	Sales         sales.Service
	Notifications notifications.Service
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	idempotent := middleware.Idempotency(deps.Idempotency, cfg.Idempotency.TTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/sales", func(r chi.Router) {
			r.With(idempotent).Post("/", salescontrollers.PlaceOrder(deps.Sales, logg))
			r.Get("/purchases", salescontrollers.ListPurchases(deps.Sales, logg))
			r.Get("/{saleId}", salescontrollers.GetSale(deps.Sales, logg))
			r.With(idempotent).Post("/{saleId}/decision", salescontrollers.RespondToOrder(deps.Sales, logg))
			r.With(idempotent).Post("/{saleId}/cancel", salescontrollers.CancelOrder(deps.Sales, logg))
		})
		r.Get("/stores/{storeId}/sales", salescontrollers.ListStoreSales(deps.Sales, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleModerator, enums.UserRoleSuperAdmin))
		r.With(idempotent).Post("/sales/{saleId}/expire", salescontrollers.ExpireSale(deps.Sales, logg))
	})

	return r
}

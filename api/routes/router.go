package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vartasolar/fieldops-backend/api/controllers"
	"github.com/vartasolar/fieldops-backend/api/middleware"
	"github.com/vartasolar/fieldops-backend/pkg/config"
	"github.com/vartasolar/fieldops-backend/pkg/db"
	"github.com/vartasolar/fieldops-backend/pkg/logger"
	pkgredis "github.com/vartasolar/fieldops-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	coord controllers.Coordinator,
	cacheDB db.Pinger,
	remoteDB db.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	metricsRegistry *prometheus.Registry,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, cacheDB, remoteDB))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.Auth, logg),
			middleware.Idempotency(idempotencyStore, logg),
		)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(coord, logg))
			r.Post("/", controllers.CreateOrder(coord, logg))
			r.Post("/{id}/start", controllers.StartOrder(coord, logg))
			r.Post("/{id}/finish", controllers.FinishOrder(coord, logg))
			r.Patch("/{id}", controllers.UpdateOrder(coord, logg))
			r.Delete("/{id}", controllers.DeleteOrder(coord, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", controllers.TriggerSync(coord, logg))
			r.Get("/status", controllers.SyncStatus(coord))
		})
	})

	return r
}

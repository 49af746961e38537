package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servico/notifier/api/handlers"
	"github.com/servico/notifier/api/middleware"
	"github.com/servico/notifier/pkg/config"
	"github.com/servico/notifier/pkg/logger"
)

// NewRouter builds the operational HTTP surface of the notifier: liveness,
// readiness and Prometheus metrics.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	checks map[string]handlers.Check,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, "/healthz", "/readyz", "/metrics"),
	)

	r.Get("/healthz", handlers.Healthz(cfg))
	r.Get("/readyz", handlers.Readyz(logg, checks))
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clarify/internal/handlers"
	"clarify/internal/metrics"
	"clarify/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	JournalService  service.JournalService
	SocraticService service.SocraticService
	HealthChecks    []handlers.HealthCheck

	// Metrics may be nil, in which case requests are not instrumented.
	Metrics *metrics.Metrics
	// Gatherer backs /metrics. The endpoint is omitted when nil.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(Instrument(deps.Metrics))
	r.Use(CORS)

	journalHandler := handlers.NewJournalHandler(deps.JournalService)
	socraticHandler := handlers.NewSocraticHandler(deps.SocraticService)
	entryPageHandler := handlers.NewEntryPageHandler(deps.JournalService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks...)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/journal", journalHandler.Routes)
		r.Method(http.MethodPost, "/socratic", socraticHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	r.Get("/journal/{id}", entryPageHandler.ServeHTTP)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/kicker-elo/internal/api/handler"
	"github.com/albapepper/kicker-elo/internal/api/respond"
	"github.com/albapepper/kicker-elo/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(h *handler.Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", SecretHeader},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// The response contract is JSON throughout, including routing errors.
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respond.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/store", h.HealthCheckStore)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes. Webhook deliveries and manual triggers share the
	// shared-secret check.
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(SecretMiddleware(cfg.WebhookSecret))
			r.Post("/elo/webhook", h.TriggerRating)
			r.Get("/elo/webhook", h.TriggerRating)
		})
	})

	// Legacy path kept for integrations configured against the serverless
	// deployment.
	r.Group(func(r chi.Router) {
		r.Use(SecretMiddleware(cfg.WebhookSecret))
		r.Post("/api/elo", h.TriggerRating)
		r.Get("/api/elo", h.TriggerRating)
	})

	return r
}

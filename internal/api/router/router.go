package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/crm-assistant/internal/assistant"
	httpmiddleware "github.com/wolfman30/crm-assistant/internal/http/middleware"
	"github.com/wolfman30/crm-assistant/internal/tenantselect"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Assistant          *assistant.Handler
	TenantSelection    *tenantselect.Handler
	AuthSecret         string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
	HealthChecks       map[string]HealthCheck
}

// New creates the chi router for the assistant API.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Authenticated assistant API
	r.Route("/api/assistant", func(api chi.Router) {
		api.Use(httpmiddleware.CallerJWT(cfg.AuthSecret))
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		api.Use(validateTenantHeader)

		if cfg.Assistant != nil {
			api.Post("/command", cfg.Assistant.Command)
		}
		if cfg.TenantSelection != nil {
			api.Mount("/tenant", cfg.TenantSelection.Routes())
		}
	})

	return r
}

// healthHandler reports "ok" when every dependency answers, 503 otherwise.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

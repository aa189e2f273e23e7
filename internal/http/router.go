package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Bookings   *BookingHandler
	Resources  *ResourceHandler
	Analytics  *AnalyticsHandler
	Middleware []func(http.Handler) http.Handler
	// AllowedOrigins configures CORS for browser callers. Empty disables CORS.
	AllowedOrigins []string
}

// NewRouter assembles the API routes with the shared middleware stack.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-User-Admin"},
			AllowCredentials: true,
		}))
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		if cfg.Bookings != nil {
			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", cfg.Bookings.Create)
				r.Get("/{id}", cfg.Bookings.Get)
				r.Post("/{id}/cancel", cfg.Bookings.Cancel)
				r.Post("/{id}/checkin", cfg.Bookings.CheckIn)
				r.Post("/{id}/checkout", cfg.Bookings.CheckOut)
			})
		}
		if cfg.Resources != nil {
			r.Route("/resources/{id}", func(r chi.Router) {
				r.Get("/availability", cfg.Resources.Availability)
				r.Get("/alternatives", cfg.Resources.Alternatives)
			})
		}
		if cfg.Analytics != nil {
			r.Get("/analytics/summary", cfg.Analytics.Summary)
		}
	})

	return r
}

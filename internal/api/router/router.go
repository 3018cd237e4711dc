package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/therapy-booking/internal/http/middleware"
	"github.com/wolfman30/therapy-booking/internal/widget"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

// requestTimeout bounds a request including delivery to email and the queue.
const requestTimeout = 30 * time.Second

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	WidgetHandler      *widget.Handler
	MetricsHandler     http.Handler
	RateLimiter        *httpmiddleware.RateLimiter
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(requestTimeout))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", cfg.WidgetHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(cfg.RateLimiter.Middleware)
		}
		api.Mount("/api", cfg.WidgetHandler.Routes())
	})

	return r
}

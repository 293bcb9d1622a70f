package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/wellness-companion/internal/companion"
	"github.com/wolfman30/wellness-companion/internal/contacts"
	httpmiddleware "github.com/wolfman30/wellness-companion/internal/http/middleware"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *companion.Handler
	ContactsHandler    *contacts.Handler
	ChatRateLimiter    *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	HealthChecks       map[string]HealthCheck
	CORSAllowedOrigins []string

	// AuthJWTSecret verifies user bearer tokens; empty trusts X-User-Id.
	AuthJWTSecret string
	// AdminAuthSecret verifies admin tokens; empty disables the admin API.
	AdminAuthSecret string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.UserIdentity(cfg.AuthJWTSecret))
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	// Public endpoints
	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ChatHandler != nil {
		r.Route("/api/chat", func(chat chi.Router) {
			chat.Use(httpmiddleware.RateLimit(cfg.ChatRateLimiter))
			chat.Post("/message", cfg.ChatHandler.HandleMessage)
		})
	}

	// Admin routes (HS256 JWT with role=admin)
	if cfg.ContactsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/emergency-contact", cfg.ContactsHandler.GetActive)
			admin.Put("/emergency-contact", cfg.ContactsHandler.Replace)
		})
	}

	return r
}

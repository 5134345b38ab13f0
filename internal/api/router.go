package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pulsechat/relay/internal/api/middleware"
	"github.com/pulsechat/relay/internal/handlers"
	"github.com/pulsechat/relay/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, redisStore *store.RedisStore, whitelist []string) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting needs Redis; without it the endpoints run unlimited.
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger,
			middleware.RateLimiterConfig{Whitelist: whitelist})
		r.Use(limiter.Middleware)
	}

	// CORS - allow all origins (clients connect from anywhere)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handlers.SessionHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	auth := middleware.NewAuthMiddleware(h.Issuer())

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Post("/login", h.Login)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/events", h.Events)
		r.Post("/join", h.Join)
		r.Post("/leave", h.Leave)
		r.Post("/logout", h.Logout)
		r.Get("/presence", h.Presence)

		r.Post("/messages", h.SendMessage)
		r.Get("/messages", h.GetMessages)
		r.Post("/dm/{id}", h.SendDM)
		r.Get("/dm/{id}", h.GetDMs)
		r.Get("/conversations", h.Conversations)

		r.Post("/typing", h.Typing)
		r.Post("/dm/{id}/typing", h.PersonalTyping)
	})

	return r
}

package handler

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/C-gyeltshen/Web102-Cap2/internal/config"
	"github.com/C-gyeltshen/Web102-Cap2/internal/metrics"
	"github.com/C-gyeltshen/Web102-Cap2/internal/ratelimit"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Auth    *AuthHandler
	Pokemon *PokemonHandler
	System  *SystemHandler

	Verifier TokenVerifier

	// CreateLimiter guards POST /pokemon, LoginLimiter guards POST /login.
	CreateLimiter  ratelimit.Limiter
	LoginLimiter   ratelimit.Limiter
	RateLimitScope string
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix

	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter builds the chi router of the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(TrustedRealIP(cfg.TrustedProxies))
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Instrument(cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/", cfg.System.Home)
	r.Get("/health", cfg.System.Health)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Post("/signUp", cfg.Auth.SignUp)
	r.With(RateLimit(cfg.LoginLimiter, RateLimitOptions{
		Name:    "login",
		Scope:   config.RateLimitScopeClient,
		Message: "Too many login attempts",
		Metrics: cfg.Metrics,
		Logger:  cfg.Logger,
	})).Post("/login", cfg.Auth.Login)

	r.With(RateLimit(cfg.CreateLimiter, RateLimitOptions{
		Name:    "pokemon_create",
		Scope:   cfg.RateLimitScope,
		Message: "Rate limit exceeded",
		Metrics: cfg.Metrics,
		Logger:  cfg.Logger,
	})).Post("/pokemon", cfg.Pokemon.Create)
	r.Get("/pokemon/records", cfg.Pokemon.List)
	r.Patch("/pokemon/update", cfg.Pokemon.Update)
	r.Delete("/pokemon/delete", cfg.Pokemon.Delete)

	r.Route("/protected", func(r chi.Router) {
		r.Use(RequireJWT(cfg.Verifier, cfg.Logger))
		r.Get("/session", cfg.System.Session)
		// anything else under /protected is authenticated before it is a 404
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			respondWithError(w, http.StatusNotFound, "Not found", cfg.Logger)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found", cfg.Logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", cfg.Logger)
	})

	return r
}

// NewWorkerRouter exposes the health check and metrics of a worker process.
func NewWorkerRouter(system *SystemHandler, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", system.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found", logger)
	})
	return r
}

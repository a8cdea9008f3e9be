package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/popcornpicks/backend/internal/metrics"
	"github.com/popcornpicks/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Credentials CredentialService
	Tokens      TokenService
	Recommender Recommender
	Enricher    Enricher
	Watchlist   WatchlistStore
	RateLimiter middleware.RateLimiter
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

// TokenService issues and verifies access tokens.
type TokenService interface {
	TokenIssuer
	middleware.TokenVerifier
}

// NewRouter wires HTTP handlers and middleware into a chi router.
func NewRouter(deps Dependencies, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	health := HealthHandler{}
	authHandler := AuthHandler{Credentials: deps.Credentials, Tokens: deps.Tokens}
	recommendations := RecommendationHandler{Recommender: deps.Recommender, Enricher: deps.Enricher}
	watchlist := WatchlistHandler{Watchlist: deps.Watchlist}

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(req.Context(), w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(req.Context(), w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.Handle)

		r.With(middleware.RateLimit(deps.RateLimiter, "register")).Post("/register", authHandler.Register)
		r.With(middleware.RateLimit(deps.RateLimiter, "login")).Post("/login", authHandler.Login)
		r.With(middleware.RateLimit(deps.RateLimiter, "recommendations")).Post("/recommendations", recommendations.Create)

		r.Route("/watchlist", func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Tokens))
			r.Post("/", watchlist.Add)
			r.Get("/", watchlist.List)
			r.Delete("/{movieId}", watchlist.Remove)
			r.Get("/check/{movieId}", watchlist.Check)
		})
	})

	return r
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userdesk/userdesk/internal/auth"
	"github.com/userdesk/userdesk/internal/observability"
	"github.com/userdesk/userdesk/internal/platform/httpx"
	"github.com/userdesk/userdesk/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	Pool         *pgxpool.Pool
	AuthHandler  *auth.Handler
	AuthService  *auth.Service
	UsersHandler *users.Handler
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router with the application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"message": "API de gestion des utilisateurs opérationnelle",
		})
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := params.Pool.Ping(r.Context()); err != nil {
			params.Logger.Error("health check", slog.Any("error", err))
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":   "error",
				"database": "disconnected",
			})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"database": "connected",
		})
	})

	r.Route("/api/auth", params.AuthHandler.MountRoutes)
	r.Route("/api/users", func(r chi.Router) {
		params.UsersHandler.MountRoutes(r, auth.Bearer(params.AuthService))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

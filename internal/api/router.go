package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/gamehub-console/internal/api/handler"
	"github.com/mcoot/gamehub-console/internal/api/middleware"
	shared "github.com/mcoot/gamehub-console/internal/middleware"
	"github.com/mcoot/gamehub-console/internal/modules"
)

// readyTimeout bounds the readiness checks of one probe
const readyTimeout = 2 * time.Second

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Sessions middleware.Sessions
	Storage  handler.Pinger
	Registry *modules.Registry
}

// Register adds the /api/v1 routes to r
func Register(r *mux.Router, cfg RouterConfig) {
	healthHandler := handler.NewHealthHandler(cfg.Logger, readyTimeout,
		handler.NamedCheck{Name: "storage", Pinger: cfg.Storage},
	)
	consoleHandler := handler.NewConsoleHandler(cfg.Registry)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(shared.Logging(cfg.Logger))

	// Probes (no auth)
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/ready", healthHandler.Ready).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(cfg.Sessions))
	protected.HandleFunc("/session", consoleHandler.Session).Methods(http.MethodGet)
	protected.HandleFunc("/modules", consoleHandler.Modules).Methods(http.MethodGet)
	protected.HandleFunc("/modules/{name}", consoleHandler.Module).Methods(http.MethodGet)
}

// NewRouter creates a router serving only the API routes
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	Register(r, cfg)
	return r
}

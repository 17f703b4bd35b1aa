package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	shared "github.com/mcoot/gamehub-console/internal/middleware"
	"github.com/mcoot/gamehub-console/internal/modules"
	"github.com/mcoot/gamehub-console/internal/services/auth"
	"github.com/mcoot/gamehub-console/internal/services/forms"
	"github.com/mcoot/gamehub-console/internal/services/listing"
	"github.com/mcoot/gamehub-console/internal/services/profile"
	"github.com/mcoot/gamehub-console/internal/services/stats"
	"github.com/mcoot/gamehub-console/internal/web/handler"
	"github.com/mcoot/gamehub-console/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	ListingService *listing.Service
	FormService    *forms.Service
	ProfileService *profile.Service
	StatsService   *stats.Service
	Registry       *modules.Registry
	CookieSecure   bool
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := shared.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	flashMiddleware := middleware.Flash()
	authMiddleware := middleware.Auth(cfg.AuthService, cfg.Logger)

	// Apply global middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.CookieSecure, cfg.Logger)
	shellHandler := handler.NewShellHandler(cfg.AuthService, cfg.ListingService, cfg.Registry, cfg.Logger)
	moduleHandler := handler.NewModuleHandler(handler.ModuleServices{
		Auth:     cfg.AuthService,
		Listing:  cfg.ListingService,
		Forms:    cfg.FormService,
		Profile:  cfg.ProfileService,
		Stats:    cfg.StatsService,
		Registry: cfg.Registry,
	}, cfg.Logger)

	// Public routes
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
	public.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	public.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	// Protected routes (require a console session)
	protected := r.NewRoute().Subrouter()
	protected.Use(flashMiddleware)
	protected.Use(authMiddleware)

	protected.HandleFunc("/", shellHandler.Home).Methods(http.MethodGet)
	protected.HandleFunc("/partials/navbar", shellHandler.Navbar).Methods(http.MethodGet)

	// Profile routes come before the {name} patterns
	protected.HandleFunc("/modules/profile/form", moduleHandler.ProfileForm).Methods(http.MethodGet)
	protected.HandleFunc("/modules/profile", moduleHandler.ProfileSubmit).Methods(http.MethodPost)

	// Module routes
	protected.HandleFunc("/modules/{name}", moduleHandler.Load).Methods(http.MethodGet)
	protected.HandleFunc("/modules/{name}/list", moduleHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/modules/{name}/list", moduleHandler.Navigate).Methods(http.MethodPost)
	protected.HandleFunc("/modules/{name}/form", moduleHandler.NewForm).Methods(http.MethodGet)
	protected.HandleFunc("/modules/{name}/form", moduleHandler.Submit).Methods(http.MethodPost)
	protected.HandleFunc("/modules/{name}/items/{id}/edit", moduleHandler.EditForm).Methods(http.MethodGet)
	protected.HandleFunc("/modules/{name}/items/{id}/delete", moduleHandler.Delete).Methods(http.MethodPost)

	return r
}

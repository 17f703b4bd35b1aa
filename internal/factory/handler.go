package factory

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gamehub-console/internal/api"
	"github.com/mcoot/gamehub-console/internal/web"
)

// Handler returns the console's HTTP surface: the /api/v1 JSON routes
// followed by the HTML console
func (a *App) Handler(logger *slog.Logger, cookieSecure bool) http.Handler {
	router := mux.NewRouter()

	// API routes are registered first so /api/v1 never reaches the console
	api.Register(router, api.RouterConfig{
		Logger:   logger,
		Sessions: a.AuthService,
		Storage:  a.Storage,
		Registry: a.Registry,
	})

	router.PathPrefix("/").Handler(web.NewRouter(web.RouterConfig{
		Logger:         logger,
		AuthService:    a.AuthService,
		ListingService: a.ListingService,
		FormService:    a.FormService,
		ProfileService: a.ProfileService,
		StatsService:   a.StatsService,
		Registry:       a.Registry,
		CookieSecure:   cookieSecure,
	}))

	return router
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/modules"
	"github.com/mcoot/gamehub-console/internal/services/auth"
	"github.com/mcoot/gamehub-console/internal/services/listing"
	"github.com/mcoot/gamehub-console/internal/web/middleware"
	"github.com/mcoot/gamehub-console/internal/web/templates"
)

// Module loader names that are not list modules
const (
	ProfileModule = "profile"
	StatsModule   = "stats"
)

// ShellHandler serves the console page and its navbar
type ShellHandler struct {
	authService *auth.Service
	listing     *listing.Service
	registry    *modules.Registry
	respond     responder
}

// NewShellHandler creates a new ShellHandler
func NewShellHandler(authService *auth.Service, listingService *listing.Service, registry *modules.Registry, logger *slog.Logger) *ShellHandler {
	return &ShellHandler{
		authService: authService,
		listing:     listingService,
		registry:    registry,
		respond:     responder{sessions: authService, logger: logger},
	}
}

// Home runs the identity check and renders the console shell. A rejected
// token ends the session; an unreachable API keeps the cached user.
func (h *ShellHandler) Home(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	flash := middleware.GetFlash(r.Context())

	verified, err := h.authService.Verify(r.Context(), session.ID)
	switch {
	case err == nil:
		session = verified
	case errors.Is(err, auth.ErrRejected), errors.Is(err, auth.ErrNoSession):
		h.respond.logger.Info("identity check rejected the session", slog.String("session_id", session.ID))
		middleware.ClearSessionCookie(w)
		middleware.SetFlash(w, "error", "Your session has expired. Please log in again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	default:
		h.respond.logger.Warn("identity check failed", slog.String("error", err.Error()))
		flash = &templates.FlashMessage{Type: "error", Message: "Could not reach the server"}
	}

	// A shell reload starts with fresh dropdown options
	h.listing.ForgetOptions(session.ID)

	data := templates.ShellData{
		PageData: templates.PageData{Title: "Console", Flash: flash},
		Navbar:   NavbarFor(session, h.registry),
	}
	h.respond.render(w, r, http.StatusOK, templates.Shell(data))
}

// Navbar renders the navigation fragment
func (h *ShellHandler) Navbar(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	h.respond.render(w, r, http.StatusOK, templates.Navbar(NavbarFor(session, h.registry)))
}

// NavbarFor builds the navbar of a session: one trigger per list module,
// then the profile and stats modules
func NavbarFor(session *model.AuthSession, registry *modules.Registry) templates.NavbarData {
	defs := registry.All()
	menu := make([]templates.MenuItem, 0, len(defs)+2)
	for _, d := range defs {
		menu = append(menu, templates.MenuItem{Name: d.Name, Title: d.Title})
	}
	menu = append(menu,
		templates.MenuItem{Name: ProfileModule, Title: "My profile"},
		templates.MenuItem{Name: StatsModule, Title: "Statistics"},
	)

	return templates.NavbarData{
		Greeting: templates.Greeting(session.User),
		IsAdmin:  session.Capabilities().IsAdmin(),
		Menu:     menu,
	}
}

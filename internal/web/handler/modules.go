package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/modules"
	"github.com/mcoot/gamehub-console/internal/services/auth"
	"github.com/mcoot/gamehub-console/internal/services/forms"
	"github.com/mcoot/gamehub-console/internal/services/listing"
	"github.com/mcoot/gamehub-console/internal/services/profile"
	"github.com/mcoot/gamehub-console/internal/services/stats"
	"github.com/mcoot/gamehub-console/internal/web/middleware"
	"github.com/mcoot/gamehub-console/internal/web/templates"
)

// ModuleHandler is the module loader plus the list, form, profile and
// stats module endpoints
type ModuleHandler struct {
	authService *auth.Service
	listing     *listing.Service
	forms       *forms.Service
	profile     *profile.Service
	stats       *stats.Service
	registry    *modules.Registry
	respond     responder
}

// ModuleServices groups the services behind the module endpoints
type ModuleServices struct {
	Auth     *auth.Service
	Listing  *listing.Service
	Forms    *forms.Service
	Profile  *profile.Service
	Stats    *stats.Service
	Registry *modules.Registry
}

// NewModuleHandler creates a new ModuleHandler
func NewModuleHandler(svc ModuleServices, logger *slog.Logger) *ModuleHandler {
	return &ModuleHandler{
		authService: svc.Auth,
		listing:     svc.Listing,
		forms:       svc.Forms,
		profile:     svc.Profile,
		stats:       svc.Stats,
		registry:    svc.Registry,
		respond:     responder{sessions: svc.Auth, logger: logger},
	}
}

// Load renders a whole module into the container
func (h *ModuleHandler) Load(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	session := middleware.GetSession(r.Context())

	switch name {
	case ProfileModule:
		h.loadProfile(w, r, session)
		return
	case StatsModule:
		h.loadStats(w, r, session)
		return
	}

	def, err := h.registry.Get(name)
	if err != nil {
		h.respond.fail(w, r, name, err)
		return
	}

	data := templates.ListModuleData{Module: def}

	view, err := h.listing.Load(r.Context(), session, def)
	if err != nil {
		if isAuthFailure(err) || errors.Is(err, listing.ErrStale) {
			h.respond.fail(w, r, name, err)
			return
		}
		h.respond.logger.Error("module failed to load",
			slog.String("module", name),
			slog.String("error", err.Error()),
		)
		data.Error = inlineMessage(err)
	} else {
		data.List = &templates.ListData{View: view}
	}

	if session.Capabilities().CanManageCatalog() {
		form, err := h.openForm(r, session, def, "")
		if err != nil {
			if isAuthFailure(err) {
				h.respond.endSession(w, r)
				return
			}
			h.respond.logger.Error("module form failed to open",
				slog.String("module", name),
				slog.String("error", err.Error()),
			)
			if data.Error == "" {
				data.Error = inlineMessage(err)
			}
		}
		data.Form = form
	}

	h.respond.render(w, r, http.StatusOK, templates.ListModule(data))
}

// List re-renders the list body with the stored view state
func (h *ModuleHandler) List(w http.ResponseWriter, r *http.Request) {
	def, session, ok := h.module(w, r)
	if !ok {
		return
	}

	view, err := h.listing.Load(r.Context(), session, def)
	if err != nil {
		h.respond.fail(w, r, def.Name, err)
		return
	}

	data := templates.ListData{
		View:        view,
		ClearStatus: r.URL.Query().Get("clear_status") == "1",
	}
	h.respond.render(w, r, http.StatusOK, templates.ListBody(data))
}

// Navigate applies a pagination or sort control
func (h *ModuleHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	def, session, ok := h.module(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	action := listing.Action(r.FormValue("action"))
	view, err := h.listing.Navigate(r.Context(), session, def, action, r.FormValue("value"))
	if err != nil {
		h.respond.fail(w, r, def.Name, err)
		return
	}

	h.respond.render(w, r, http.StatusOK, templates.ListBody(templates.ListData{View: view}))
}

// NewForm renders the module form in create mode
func (h *ModuleHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderOpenForm(w, r, "")
}

// EditForm fetches an entity and renders the module form in edit mode
func (h *ModuleHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	h.renderOpenForm(w, r, mux.Vars(r)["id"])
}

func (h *ModuleHandler) renderOpenForm(w http.ResponseWriter, r *http.Request, id string) {
	def, session, ok := h.module(w, r)
	if !ok {
		return
	}

	form, err := h.openForm(r, session, def, id)
	if err != nil {
		if isAuthFailure(err) || id == "" || errors.Is(err, forms.ErrNotPermitted) {
			h.respond.fail(w, r, def.Name, err)
			return
		}
		h.respond.logger.Warn("failed to open entity",
			slog.String("module", def.Name),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		h.statusOnly(w, r, def.Name, inlineMessage(err))
		return
	}

	h.respond.render(w, r, http.StatusOK, templates.Form(*form))
}

// Submit creates or updates an entity from the module form
func (h *ModuleHandler) Submit(w http.ResponseWriter, r *http.Request) {
	def, session, ok := h.module(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	view, err := h.forms.Submit(r.Context(), session, def, r.PostForm)
	if err != nil {
		h.respond.fail(w, r, def.Name, err)
		return
	}

	opts, err := h.listing.Options(r.Context(), session, def)
	if err != nil {
		h.respond.logger.Warn("failed to load form options",
			slog.String("module", def.Name),
			slog.String("error", err.Error()),
		)
	}

	h.respond.render(w, r, http.StatusOK, templates.Form(templates.FormData{
		View:    view,
		Options: opts,
		Delay:   forms.ReloadDelay,
	}))
}

// Delete removes an entity and re-renders the list body. A failure keeps
// the list and shows the message in the form status.
func (h *ModuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	def, session, ok := h.module(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	view, err := h.listing.Delete(r.Context(), session, def, id)
	if err != nil {
		// A stale reload means the delete went through and a newer load owns the list
		if isAuthFailure(err) || errors.Is(err, listing.ErrStale) {
			h.respond.fail(w, r, def.Name, err)
			return
		}
		h.respond.logger.Warn("delete failed",
			slog.String("module", def.Name),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		h.statusOnly(w, r, def.Name, inlineMessage(err))
		return
	}

	h.respond.render(w, r, http.StatusOK, templates.ListBody(templates.ListData{View: view}))
}

// statusOnly leaves the swap target alone and shows msg in the form status
func (h *ModuleHandler) statusOnly(w http.ResponseWriter, r *http.Request, module, msg string) {
	w.Header().Set("HX-Reswap", "none")
	h.respond.render(w, r, http.StatusOK, templates.FormStatus(module, forms.Status{Kind: forms.StatusError, Message: msg}))
}

func (h *ModuleHandler) openForm(r *http.Request, session *model.AuthSession, def *modules.Definition, id string) (*templates.FormData, error) {
	view, err := h.forms.Open(r.Context(), session, def, id)
	if err != nil {
		return nil, err
	}
	opts, err := h.listing.Options(r.Context(), session, def)
	if err != nil {
		return nil, err
	}
	return &templates.FormData{View: view, Options: opts, Delay: forms.ReloadDelay}, nil
}

// module resolves the {name} route variable to a list module
func (h *ModuleHandler) module(w http.ResponseWriter, r *http.Request) (*modules.Definition, *model.AuthSession, bool) {
	name := mux.Vars(r)["name"]
	def, err := h.registry.Get(name)
	if err != nil {
		h.respond.fail(w, r, name, err)
		return nil, nil, false
	}
	return def, middleware.GetSession(r.Context()), true
}

func (h *ModuleHandler) loadStats(w http.ResponseWriter, r *http.Request, session *model.AuthSession) {
	data := templates.StatsData{Empty: stats.EmptyLeaderboardText}

	view, err := h.stats.Load(r.Context(), session)
	if err != nil {
		if isAuthFailure(err) {
			h.respond.endSession(w, r)
			return
		}
		h.respond.logger.Error("stats failed to load", slog.String("error", err.Error()))
		data.Error = inlineMessage(err)
	}
	data.View = view

	h.respond.render(w, r, http.StatusOK, templates.Stats(data))
}

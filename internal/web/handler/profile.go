package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/services/profile"
	"github.com/mcoot/gamehub-console/internal/web/middleware"
	"github.com/mcoot/gamehub-console/internal/web/templates"
)

func (h *ModuleHandler) loadProfile(w http.ResponseWriter, r *http.Request, session *model.AuthSession) {
	view, err := h.profile.Load(r.Context(), session)
	if err != nil {
		h.respond.fail(w, r, ProfileModule, err)
		return
	}
	h.respond.render(w, r, http.StatusOK, templates.Profile(templates.ProfileData{View: view, Delay: profile.ReloadDelay}))
}

// ProfileForm reloads the profile form from the API
func (h *ModuleHandler) ProfileForm(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	view, err := h.profile.Load(r.Context(), session)
	if err != nil {
		h.respond.fail(w, r, ProfileModule, err)
		return
	}
	h.respond.render(w, r, http.StatusOK, templates.ProfileForm(templates.ProfileData{View: view, Delay: profile.ReloadDelay}))
}

// ProfileSubmit saves the profile. After a save the navbar is swapped
// out of band so the greeting follows the merged user.
func (h *ModuleHandler) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	view, err := h.profile.Submit(r.Context(), session, r.PostForm)
	if err != nil {
		h.respond.fail(w, r, ProfileModule, err)
		return
	}

	data := templates.ProfileData{View: view, Delay: profile.ReloadDelay}
	if view.Reload {
		merged, err := h.authService.Current(r.Context(), session.ID)
		if err != nil {
			h.respond.logger.Warn("failed to reload merged user", slog.String("error", err.Error()))
		} else {
			navbar := NavbarFor(merged, h.registry)
			navbar.OOB = true
			data.Navbar = &navbar
		}
	}

	h.respond.render(w, r, http.StatusOK, templates.ProfileForm(data))
}

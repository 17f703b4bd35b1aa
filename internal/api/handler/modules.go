package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gamehub-console/internal/api/apierr"
	"github.com/mcoot/gamehub-console/internal/api/middleware"
	"github.com/mcoot/gamehub-console/internal/api/response"
	"github.com/mcoot/gamehub-console/internal/modules"
)

// ConsoleHandler describes the console to authenticated callers
type ConsoleHandler struct {
	registry *modules.Registry
}

// NewConsoleHandler creates a new ConsoleHandler
func NewConsoleHandler(registry *modules.Registry) *ConsoleHandler {
	return &ConsoleHandler{registry: registry}
}

// Modules handles GET /api/v1/modules
func (h *ConsoleHandler) Modules(w http.ResponseWriter, _ *http.Request) {
	defs := h.registry.All()
	resp := response.Modules{Modules: make([]response.Module, len(defs))}
	for i, d := range defs {
		resp.Modules[i] = response.ModuleFromDefinition(d)
	}
	response.JSON(w, http.StatusOK, resp)
}

// Module handles GET /api/v1/modules/{name}
func (h *ConsoleHandler) Module(w http.ResponseWriter, r *http.Request) {
	def, err := h.registry.Get(mux.Vars(r)["name"])
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ModuleFromDefinition(def))
}

// Session handles GET /api/v1/session
func (h *ConsoleHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

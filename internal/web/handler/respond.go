package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/services/auth"
	"github.com/mcoot/gamehub-console/internal/services/forms"
	"github.com/mcoot/gamehub-console/internal/services/listing"
	"github.com/mcoot/gamehub-console/internal/web/middleware"
)

// SessionClearer drops a console session after the API rejected its token
type SessionClearer interface {
	Clear(ctx context.Context, id string) error
}

// responder renders components and maps service errors onto responses
type responder struct {
	sessions SessionClearer
	logger   *slog.Logger
}

func (rs responder) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := c.Render(r.Context(), w); err != nil {
		rs.logger.Error("render failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// fail answers a request whose service call failed. Authentication
// failures end the session; stale or already-consumed submissions and
// failed refreshes answer 204 so the page keeps what it shows.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, module string, err error) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized), errors.Is(err, auth.ErrNoSession):
		rs.endSession(w, r)
	case errors.Is(err, listing.ErrStale), errors.Is(err, forms.ErrStaleForm):
		rs.logger.Debug("discarding stale request",
			slog.String("module", module),
			slog.String("error", err.Error()),
		)
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, listing.ErrInvalidAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, listing.ErrNotPermitted), errors.Is(err, forms.ErrNotPermitted):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, model.ErrUnknownModule):
		rs.logger.Warn("unknown module", slog.String("module", module))
		http.NotFound(w, r)
	default:
		rs.logger.Error("module request failed",
			slog.String("module", module),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (rs responder) endSession(w http.ResponseWriter, r *http.Request) {
	if id := middleware.SessionID(r); id != "" {
		if err := rs.sessions.Clear(r.Context(), id); err != nil {
			rs.logger.Error("failed to clear session", slog.String("error", err.Error()))
		}
	}
	middleware.ClearSessionCookie(w)
	middleware.RedirectToLogin(w, r)
}

// inlineMessage is the text shown inside a module for a failed call
func inlineMessage(err error) string {
	switch {
	case errors.Is(err, backend.ErrUnavailable):
		return forms.UnreachableMessage
	case errors.Is(err, listing.ErrNotPermitted), errors.Is(err, forms.ErrNotPermitted):
		return "Administrator role required"
	}
	return backend.Message(err, "Unexpected error")
}

// isAuthFailure reports whether err must end the console session
func isAuthFailure(err error) bool {
	return errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, auth.ErrNoSession)
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/services/auth"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"

	// SessionCookieName holds the console session id
	SessionCookieName = "console_session"
)

// Sessions resolves a console session id
type Sessions interface {
	Current(ctx context.Context, id string) (*model.AuthSession, error)
}

// GetSession retrieves the console session from the request context
// Returns nil if the request is not authenticated
func GetSession(ctx context.Context) *model.AuthSession {
	session, _ := ctx.Value(sessionContextKey).(*model.AuthSession)
	return session
}

// WithSession returns a context carrying the session
func WithSession(ctx context.Context, session *model.AuthSession) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionID returns the session id from the cookie, or ""
func SessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Auth returns middleware that requires a console session.
// Without one the browser is sent to the login page.
func Auth(sessions Sessions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessions.Current(r.Context(), SessionID(r))
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) {
					logger.Error("session lookup failed", slog.String("error", err.Error()))
				}
				ClearSessionCookie(w)
				RedirectToLogin(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// IsHTMX reports whether the request was issued by HTMX
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// RedirectToLogin navigates the whole page to /login. HTMX requests get an
// HX-Redirect so the browser leaves the fragment swap.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// SetSessionCookie stores the console session id in the browser
func SetSessionCookie(w http.ResponseWriter, id string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the console session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/gamehub-console/internal/api/apierr"
	shared "github.com/mcoot/gamehub-console/internal/middleware"
	"github.com/mcoot/gamehub-console/internal/model"
	webmw "github.com/mcoot/gamehub-console/internal/web/middleware"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Sessions resolves a console session id
type Sessions interface {
	Current(ctx context.Context, id string) (*model.AuthSession, error)
}

// Auth requires a console session, taken from the session cookie or from
// an "Authorization: Session <id>" header
func Auth(sessions Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessions.Current(r.Context(), extractSessionID(r))
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractSessionID(r *http.Request) string {
	if id, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Session "); ok {
		return strings.TrimSpace(id)
	}
	return webmw.SessionID(r)
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *model.AuthSession {
	session, _ := ctx.Value(sessionContextKey).(*model.AuthSession)
	return session
}

// Recovery answers panics with the JSON internal error body
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return shared.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

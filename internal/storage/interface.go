package storage

import (
	"context"

	"github.com/mcoot/gamehub-console/internal/model"
)

// Storage persists console-session state: the bearer token and user
// snapshot of each signed-in browser plus the per-module state that
// belongs to it. Entity data is never stored here.
type Storage interface {
	// Session operations
	SaveSession(ctx context.Context, session *model.AuthSession) error
	GetSession(ctx context.Context, id string) (*model.AuthSession, error)
	// DeleteSession removes the session and every value scoped to it
	DeleteSession(ctx context.Context, id string) error

	// View state operations
	SaveViewState(ctx context.Context, sessionID, module string, state model.ViewState) error
	GetViewState(ctx context.Context, sessionID, module string) (model.ViewState, bool, error)

	// Request sequencing. Tokens increase monotonically per session and module.
	NextRequestToken(ctx context.Context, sessionID, module string) (int64, error)
	LatestRequestToken(ctx context.Context, sessionID, module string) (int64, error)

	// Form binding operations. At most one nonce is bound per form; binding
	// replaces the previous one and consuming succeeds once.
	BindForm(ctx context.Context, sessionID, form, nonce string) error
	FormBinding(ctx context.Context, sessionID, form string) (model.BindingState, error)
	ConsumeFormBinding(ctx context.Context, sessionID, form, nonce string) (bool, error)

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error
}

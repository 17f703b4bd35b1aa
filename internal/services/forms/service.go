package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/modules"
)

// ErrNotPermitted is returned when a non-admin opens or submits a catalog form
var ErrNotPermitted = errors.New("administrator role required")

// ReloadDelay is how long a success message stays before the list reloads
const ReloadDelay = time.Second

// UnreachableMessage is shown when the API cannot be reached
const UnreachableMessage = "Could not reach the server"

// Mode is create or edit, derived from the identifier field
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// ModeFor returns edit when id is non-empty
func ModeFor(id string) Mode {
	if strings.TrimSpace(id) == "" {
		return ModeCreate
	}
	return ModeEdit
}

// Target returns the method and path a submission with this id goes to
func Target(def *modules.Definition, id string) (method, path string) {
	if ModeFor(id) == ModeCreate {
		return http.MethodPost, backend.CollectionPath(def.Collection)
	}
	return http.MethodPut, backend.ItemPath(def.Collection, strings.TrimSpace(id))
}

// StatusKind colours an inline status message
type StatusKind string

const (
	StatusNone    StatusKind = ""
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the inline message area of a form
type Status struct {
	Kind    StatusKind
	Message string
}

// API is the part of the REST API forms use
type API interface {
	GetOne(ctx context.Context, token, collection, singular, id string) (json.RawMessage, error)
	Create(ctx context.Context, token, collection string, payload any) (map[string]json.RawMessage, error)
	Update(ctx context.Context, token, collection, id string, payload any) (map[string]json.RawMessage, error)
}

// View is a rendered form
type View struct {
	Module *modules.Definition
	Mode   Mode
	ID     string
	Values map[string]string
	Nonce  string
	Status Status
	// Reload asks the page to reload the list after ReloadDelay
	Reload bool
}

// Service runs the create/edit forms of list modules
type Service struct {
	api    API
	binder *Binder
	logger *slog.Logger
}

// New creates a new forms Service
func New(api API, binder *Binder, logger *slog.Logger) *Service {
	return &Service{api: api, binder: binder, logger: logger}
}

// Open renders the form in create mode (empty id) or edit mode. Edit mode
// fetches the entity fresh. Either way a new binding replaces the old one.
func (s *Service) Open(ctx context.Context, session *model.AuthSession, def *modules.Definition, id string) (*View, error) {
	if !session.Capabilities().CanManageCatalog() {
		return nil, ErrNotPermitted
	}

	view := &View{Module: def, Mode: ModeFor(id), Values: def.Defaults()}
	if view.Mode == ModeEdit {
		raw, err := s.api.GetOne(ctx, session.Token, def.Collection, def.Singular, id)
		if err != nil {
			return nil, err
		}
		values, err := def.Populate(raw)
		if err != nil {
			return nil, err
		}
		view.Values = values
		view.ID = modules.EntityID(raw)
		if view.ID == "" {
			view.ID = id
		}
	}

	nonce, err := s.binder.Bind(ctx, session.ID, def.Name)
	if err != nil {
		return nil, err
	}
	view.Nonce = nonce
	return view, nil
}

// Submit sends the form to the API. POST or PUT is re-derived from the
// submitted id every time. API and transport errors come back as a view
// with an inline message and the input retained; only authentication
// failures, stale nonces and storage errors are returned as errors.
func (s *Service) Submit(ctx context.Context, session *model.AuthSession, def *modules.Definition, form url.Values) (*View, error) {
	if !session.Capabilities().CanManageCatalog() {
		return nil, ErrNotPermitted
	}
	if err := s.binder.Consume(ctx, session.ID, def.Name, form.Get("nonce")); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(form.Get("id"))
	payload := def.Payload(form)
	method, path := Target(def, id)

	var err error
	switch method {
	case http.MethodPost:
		_, err = s.api.Create(ctx, session.Token, def.Collection, payload)
	default:
		_, err = s.api.Update(ctx, session.Token, def.Collection, id, payload)
	}

	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return nil, err
		}
		s.logger.Warn("form submission failed",
			slog.String("module", def.Name),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return s.retry(ctx, session, def, id, form, errorStatus(err))
	}

	s.logger.Info("form submitted",
		slog.String("module", def.Name),
		slog.String("method", method),
		slog.String("path", path),
	)

	nonce, err := s.binder.Bind(ctx, session.ID, def.Name)
	if err != nil {
		return nil, err
	}
	return &View{
		Module: def,
		Mode:   ModeCreate,
		Values: def.Defaults(),
		Nonce:  nonce,
		Status: Status{Kind: StatusSuccess, Message: "✅ " + capitalize(def.Singular) + " saved!"},
		Reload: true,
	}, nil
}

// retry re-renders the submitted input with a message and a fresh binding
func (s *Service) retry(ctx context.Context, session *model.AuthSession, def *modules.Definition, id string, form url.Values, status Status) (*View, error) {
	values := make(map[string]string, len(def.Fields))
	for _, f := range def.Fields {
		values[f.Name] = form.Get(f.Name)
	}

	nonce, err := s.binder.Bind(ctx, session.ID, def.Name)
	if err != nil {
		return nil, err
	}
	return &View{
		Module: def,
		Mode:   ModeFor(id),
		ID:     id,
		Values: values,
		Nonce:  nonce,
		Status: status,
	}, nil
}

func errorStatus(err error) Status {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return Status{Kind: StatusError, Message: apiErr.Message}
	}
	if errors.Is(err, backend.ErrUnavailable) {
		return Status{Kind: StatusError, Message: UnreachableMessage}
	}
	return Status{Kind: StatusError, Message: fmt.Sprintf("Unexpected error: %v", err)}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

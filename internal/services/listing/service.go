package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/modules"
	"github.com/mcoot/gamehub-console/internal/storage"
)

// Errors
var (
	// ErrStale means a newer load for the same module was issued while this
	// one was in flight; its result must not be rendered
	ErrStale         = errors.New("stale list response")
	ErrInvalidAction = errors.New("invalid list action")
	ErrNotPermitted  = errors.New("administrator role required")
)

// Action is a pagination or ordering control
type Action string

const (
	ActionPrev    Action = "prev"
	ActionNext    Action = "next"
	ActionSort    Action = "sort"
	ActionLimit   Action = "limit"
	ActionRefresh Action = "refresh"
)

// API is the part of the REST API list modules use
type API interface {
	List(ctx context.Context, token, collection string, q backend.ListQuery) (*backend.ListResult, error)
	Remove(ctx context.Context, token, collection, id string) error
}

// View is one rendered page of a list module
type View struct {
	Module    *modules.Definition
	Rows      []modules.Row
	State     model.ViewState
	Pager     modules.Pager
	CanManage bool
}

// ColumnCount is the number of table columns, including actions for managers
func (v *View) ColumnCount() int {
	n := len(v.Module.Columns)
	if v.CanManage {
		n++
	}
	return n
}

// Service runs the list modules
type Service struct {
	api     API
	storage storage.Storage
	options *OptionCache
	logger  *slog.Logger
}

// New creates a new listing Service
func New(api API, storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		api:     api,
		storage: storage,
		options: NewOptionCache(),
		logger:  logger,
	}
}

// State returns the module's stored view state, or its initial state
func (s *Service) State(ctx context.Context, sessionID string, def *modules.Definition) (model.ViewState, error) {
	state, found, err := s.storage.GetViewState(ctx, sessionID, def.Name)
	if err != nil {
		return model.ViewState{}, err
	}
	if !found {
		return def.InitialState(), nil
	}
	return state, nil
}

// Load fetches the page the module's view state points at
func (s *Service) Load(ctx context.Context, session *model.AuthSession, def *modules.Definition) (*View, error) {
	state, err := s.State(ctx, session.ID, def)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, session, def, state)
}

// Navigate applies a control to a candidate copy of the view state and
// loads it. The candidate is stored only if the load succeeds, so a
// failed load leaves the module where it was.
func (s *Service) Navigate(ctx context.Context, session *model.AuthSession, def *modules.Definition, action Action, value string) (*View, error) {
	state, err := s.State(ctx, session.ID, def)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionPrev:
		if state.Page > 1 {
			state.Page--
		}
	case ActionNext:
		state.Page++
	case ActionSort:
		if !def.AllowsSort(value) {
			return nil, fmt.Errorf("%w: sort %q", ErrInvalidAction, value)
		}
		state.Sort = value
		if def.ResetOnSort {
			state.Page = 1
		}
	case ActionLimit:
		size, err := strconv.Atoi(value)
		if err != nil || !def.AllowsPageSize(size) {
			return nil, fmt.Errorf("%w: page size %q", ErrInvalidAction, value)
		}
		state.PageSize = size
		if def.ResetOnSort {
			state.Page = 1
		}
	case ActionRefresh:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	return s.load(ctx, session, def, state)
}

// Delete removes an entity and reloads the list with the same state
func (s *Service) Delete(ctx context.Context, session *model.AuthSession, def *modules.Definition, id string) (*View, error) {
	if !session.Capabilities().CanManageCatalog() {
		return nil, ErrNotPermitted
	}
	if id == "" {
		return nil, model.ErrMissingID
	}

	if err := s.api.Remove(ctx, session.Token, def.Collection, id); err != nil {
		return nil, err
	}
	s.logger.Info("entity deleted",
		slog.String("module", def.Name),
		slog.String("id", id),
	)
	return s.Load(ctx, session, def)
}

func (s *Service) load(ctx context.Context, session *model.AuthSession, def *modules.Definition, state model.ViewState) (*View, error) {
	seq, err := s.storage.NextRequestToken(ctx, session.ID, def.Name)
	if err != nil {
		return nil, err
	}

	result, err := s.api.List(ctx, session.Token, def.Collection, backend.ListQuery{
		Page:  state.Page,
		Limit: state.PageSize,
		Sort:  state.Sort,
	})
	if err != nil {
		return nil, err
	}

	latest, err := s.storage.LatestRequestToken(ctx, session.ID, def.Name)
	if err != nil {
		return nil, err
	}
	if latest != seq {
		return nil, ErrStale
	}

	rows := make([]modules.Row, 0, len(result.Items))
	for _, raw := range result.Items {
		row, err := def.RenderRow(raw)
		if err != nil {
			s.logger.Warn("skipping malformed row",
				slog.String("module", def.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		rows = append(rows, row)
	}

	if err := s.storage.SaveViewState(ctx, session.ID, def.Name, state); err != nil {
		return nil, err
	}

	return &View{
		Module:    def,
		Rows:      rows,
		State:     state,
		Pager:     modules.Pager{Page: state.Page, Size: state.PageSize, Total: result.Total},
		CanManage: session.Capabilities().CanManageCatalog(),
	}, nil
}

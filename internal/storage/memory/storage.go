package memory

import (
	"context"
	"sync"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	sessions map[string]model.AuthSession
	scopes   map[string]*scope
}

// scope holds the values that live and die with one console session
type scope struct {
	views    map[string]model.ViewState
	tokens   map[string]int64
	bindings map[string]string
}

func newScope() *scope {
	return &scope{
		views:    make(map[string]model.ViewState),
		tokens:   make(map[string]int64),
		bindings: make(map[string]string),
	}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions: make(map[string]model.AuthSession),
		scopes:   make(map[string]*scope),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.AuthSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	if _, ok := s.scopes[session.ID]; !ok {
		s.scopes[session.ID] = newScope()
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id string) (*model.AuthSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.scopes, id)
	return nil
}

// Scoped writes for a session that no longer exists are dropped

// View state operations

func (s *Storage) SaveViewState(ctx context.Context, sessionID, module string, state model.ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, ok := s.scopes[sessionID]; ok {
		sc.views[module] = state
	}
	return nil
}

func (s *Storage) GetViewState(ctx context.Context, sessionID, module string) (model.ViewState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scopes[sessionID]
	if !ok {
		return model.ViewState{}, false, nil
	}
	state, ok := sc.views[module]
	return state, ok, nil
}

// Request sequencing

func (s *Storage) NextRequestToken(ctx context.Context, sessionID, module string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scopes[sessionID]
	if !ok {
		return 0, nil
	}
	sc.tokens[module]++
	return sc.tokens[module], nil
}

func (s *Storage) LatestRequestToken(ctx context.Context, sessionID, module string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scopes[sessionID]
	if !ok {
		return 0, nil
	}
	return sc.tokens[module], nil
}

// Form binding operations

func (s *Storage) BindForm(ctx context.Context, sessionID, form, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, ok := s.scopes[sessionID]; ok {
		sc.bindings[form] = nonce
	}
	return nil
}

func (s *Storage) FormBinding(ctx context.Context, sessionID, form string) (model.BindingState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sc, ok := s.scopes[sessionID]; ok {
		if _, bound := sc.bindings[form]; bound {
			return model.BindingBound, nil
		}
	}
	return model.BindingUnbound, nil
}

func (s *Storage) ConsumeFormBinding(ctx context.Context, sessionID, form, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scopes[sessionID]
	if !ok || nonce == "" {
		return false, nil
	}
	if current, bound := sc.bindings[form]; !bound || current != nonce {
		return false, nil
	}
	delete(sc.bindings, form)
	return true, nil
}

// Ping always succeeds
func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

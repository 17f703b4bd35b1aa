package listing

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/modules"
)

// OptionCache keeps dropdown options per console session and module.
// Empty lists are not kept, so they are fetched again next time.
type OptionCache struct {
	mu      sync.Mutex
	entries map[string]map[string]modules.Options
}

// NewOptionCache creates an empty cache
func NewOptionCache() *OptionCache {
	return &OptionCache{entries: make(map[string]map[string]modules.Options)}
}

func (c *OptionCache) get(sessionID, module, field string) []modules.Choice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[sessionID][module][field]
}

func (c *OptionCache) put(sessionID, module, field string, choices []modules.Choice) {
	if len(choices) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	byModule, ok := c.entries[sessionID]
	if !ok {
		byModule = make(map[string]modules.Options)
		c.entries[sessionID] = byModule
	}
	opts, ok := byModule[module]
	if !ok {
		opts = make(modules.Options)
		byModule[module] = opts
	}
	opts[field] = choices
}

// Holds reports whether anything is cached for the session
func (c *OptionCache) Holds(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[sessionID]
	return ok
}

// Invalidate drops every cached option list of a session
func (c *OptionCache) Invalidate(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
}

// Options returns the dropdown choices for the module's reference fields,
// fetching any list not cached yet
func (s *Service) Options(ctx context.Context, session *model.AuthSession, def *modules.Definition) (modules.Options, error) {
	out := make(modules.Options)
	for _, f := range def.RefFields() {
		if cached := s.options.get(session.ID, def.Name, f.Name); len(cached) > 0 {
			out[f.Name] = cached
			continue
		}

		result, err := s.api.List(ctx, session.Token, f.Source, backend.ListQuery{})
		if err != nil {
			return nil, err
		}

		choices := make([]modules.Choice, 0, len(result.Items))
		for _, raw := range result.Items {
			var ref model.Ref
			if err := json.Unmarshal(raw, &ref); err != nil || ref.ID == "" {
				continue
			}
			choices = append(choices, modules.Choice{Value: ref.ID, Label: ref.Label(ref.ID)})
		}

		s.logger.Debug("loaded options",
			slog.String("module", def.Name),
			slog.String("field", f.Name),
			slog.Int("count", len(choices)),
		)
		s.options.put(session.ID, def.Name, f.Name, choices)
		out[f.Name] = choices
	}
	return out, nil
}

// ForgetOptions drops the session's cached options
func (s *Service) ForgetOptions(sessionID string) {
	s.options.Invalidate(sessionID)
}

// HasOptions reports whether the session has cached options
func (s *Service) HasOptions(sessionID string) bool {
	return s.options.Holds(sessionID)
}

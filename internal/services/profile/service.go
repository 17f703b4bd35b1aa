package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/services/forms"
)

// FormName is the binding key of the profile form
const FormName = "profile"

// ReloadDelay is how long the success message stays before the profile reloads
const ReloadDelay = 800 * time.Millisecond

const (
	collection = "players"
	singular   = "player"

	missingIDMessage = "Player ID not found in session"
	updatedMessage   = "✅ Profile updated!"
)

// API is the part of the REST API the profile uses
type API interface {
	GetOne(ctx context.Context, token, collection, singular, id string) (json.RawMessage, error)
	Update(ctx context.Context, token, collection, id string, payload any) (map[string]json.RawMessage, error)
}

// Users merges player records into the cached user
type Users interface {
	SetUser(ctx context.Context, id string, patch json.RawMessage) (*model.AuthSession, error)
}

// View is the rendered profile form
type View struct {
	ID        string
	Username  string
	Email     string
	Role      model.Role
	Score     string
	CreatedAt string
	Roles     []model.Role
	// RoleEditable is false unless the viewer is an admin
	RoleEditable bool
	Nonce        string
	Status       forms.Status
	Reload       bool
}

// Service loads and saves the logged-in player's profile
type Service struct {
	api    API
	users  Users
	binder *forms.Binder
	logger *slog.Logger
}

// New creates a new profile Service
func New(api API, users Users, binder *forms.Binder, logger *slog.Logger) *Service {
	return &Service{api: api, users: users, binder: binder, logger: logger}
}

// Load fetches the player record of the cached user id. API and transport
// errors are shown inline; authentication failures are returned.
func (s *Service) Load(ctx context.Context, session *model.AuthSession) (*View, error) {
	view := s.blank(session)

	nonce, err := s.binder.Bind(ctx, session.ID, FormName)
	if err != nil {
		return nil, err
	}
	view.Nonce = nonce

	id := session.User.ID
	if id == "" {
		view.Status = forms.Status{Kind: forms.StatusError, Message: missingIDMessage}
		return view, nil
	}

	raw, err := s.api.GetOne(ctx, session.Token, collection, singular, id)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return nil, err
		}
		s.logger.Warn("profile load failed", slog.String("player_id", id), slog.String("error", err.Error()))
		view.Status = errorStatus(err)
		return view, nil
	}

	var player model.Player
	if err := json.Unmarshal(raw, &player); err != nil {
		s.logger.Warn("malformed player record", slog.String("player_id", id), slog.String("error", err.Error()))
		view.ID = id
		return view, nil
	}

	if player.ID == "" {
		player.ID = id
	}
	fill(view, player)

	if _, err := s.users.SetUser(ctx, session.ID, raw); err != nil {
		return nil, err
	}
	return view, nil
}

// Submit updates the player. The password is sent only when entered and
// the role only when the viewer is an admin.
func (s *Service) Submit(ctx context.Context, session *model.AuthSession, form url.Values) (*View, error) {
	if err := s.binder.Consume(ctx, session.ID, FormName, form.Get("nonce")); err != nil {
		return nil, err
	}

	// The profile only ever edits the logged-in player
	view := s.blank(session)
	view.ID = session.User.ID
	if posted := strings.TrimSpace(form.Get("id")); posted != "" && posted != view.ID {
		s.logger.Warn("ignoring posted player id",
			slog.String("player_id", view.ID),
			slog.String("posted_id", posted),
		)
	}
	view.Username = strings.TrimSpace(form.Get("username"))
	view.Email = strings.TrimSpace(form.Get("email"))
	view.Role = model.Role(form.Get("role"))
	view.Score = form.Get("totalScore")
	view.CreatedAt = form.Get("createdAt")

	nonce, err := s.binder.Bind(ctx, session.ID, FormName)
	if err != nil {
		return nil, err
	}
	view.Nonce = nonce

	if view.ID == "" {
		view.Status = forms.Status{Kind: forms.StatusError, Message: missingIDMessage}
		return view, nil
	}

	payload := map[string]any{
		"username": view.Username,
		"email":    view.Email,
	}
	if password := strings.TrimSpace(form.Get("password")); password != "" {
		payload["password"] = password
	}
	if view.RoleEditable && view.Role != "" {
		payload["role"] = string(view.Role)
	}

	result, err := s.api.Update(ctx, session.Token, collection, view.ID, payload)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return nil, err
		}
		s.logger.Warn("profile update failed", slog.String("player_id", view.ID), slog.String("error", err.Error()))
		view.Status = errorStatus(err)
		return view, nil
	}

	patch, ok := result[singular]
	if !ok || string(patch) == "null" {
		delete(payload, "password")
		patch, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	if _, err := s.users.SetUser(ctx, session.ID, patch); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("player_id", view.ID))
	view.Status = forms.Status{Kind: forms.StatusSuccess, Message: updatedMessage}
	view.Reload = true
	return view, nil
}

func (s *Service) blank(session *model.AuthSession) *View {
	return &View{
		Roles:        model.AssignableRoles,
		RoleEditable: session.Capabilities().CanEditRole(),
	}
}

func fill(view *View, p model.Player) {
	view.ID = p.ID
	view.Username = p.Username
	view.Email = p.Email
	view.Role = p.Role
	view.Score = strconv.Itoa(p.TotalScore)
	if p.CreatedAt != nil {
		view.CreatedAt = p.CreatedAt.UTC().Format("2006-01-02 15:04")
	}
}

func errorStatus(err error) forms.Status {
	if errors.Is(err, backend.ErrUnavailable) {
		return forms.Status{Kind: forms.StatusError, Message: forms.UnreachableMessage}
	}
	return forms.Status{Kind: forms.StatusError, Message: backend.Message(err, "Could not load the profile")}
}

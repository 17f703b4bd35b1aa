package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/dependencies/clock"
	"github.com/mcoot/gamehub-console/internal/dependencies/random"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/storage"
)

// Errors
var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no session")
	ErrRejected           = errors.New("token rejected by the API")
	ErrTokenExpired       = errors.New("token expired")
)

// sessionIDLength is the length of console session identifiers
const sessionIDLength = 32

// API is the part of the REST API the session store talks to
type API interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResponse, error)
	Me(ctx context.Context, token string) (model.User, error)
}

// Service is the console's session store: it exchanges credentials for a
// bearer token, persists token and user snapshot, and runs the identity check
type Service struct {
	api     API
	storage storage.Storage
	clock   clock.Clock
	random  random.Random

	sessionDuration time.Duration
	onClear         []func(id string)
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(api API, storage storage.Storage, clock clock.Clock, random random.Random, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		api:             api,
		storage:         storage,
		clock:           clock,
		random:          random,
		sessionDuration: cfg.SessionDuration,
	}
}

// TokenClaims is what the console reads from a bearer token without
// verifying it. Opaque tokens yield the zero value.
type TokenClaims struct {
	ExpiresAt time.Time
	Role      model.Role
}

// DecodeToken reads exp and role from a JWT payload. The signature is not
// checked; the API remains the authority on token validity.
func DecodeToken(token string) TokenClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}
	}

	var out TokenClaims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = model.Role(role)
	}
	return out
}

// Login exchanges credentials for a token and starts a console session
func (s *Service) Login(ctx context.Context, email, password string) (*model.AuthSession, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, backend.Message(err, "rejected"))
		}
		return nil, err
	}

	return s.Start(ctx, resp.Token, resp.User)
}

// Start persists a new console session for an already issued token
func (s *Service) Start(ctx context.Context, token string, user model.User) (*model.AuthSession, error) {
	now := s.clock.Now()
	claims := DecodeToken(token)
	if clock.Expired(s.clock, claims.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	if user.Role == "" {
		user.Role = claims.Role
	}

	expires := now.Add(s.sessionDuration)
	if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(expires) {
		expires = claims.ExpiresAt
	}

	session := &model.AuthSession{
		ID:        random.Token(s.random, sessionIDLength),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Current returns the stored session, or ErrNoSession when it is absent or
// expired. Expired sessions are cleared.
func (s *Service) Current(ctx context.Context, id string) (*model.AuthSession, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	session, err := s.storage.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	if session.Token == "" || clock.Expired(s.clock, session.ExpiresAt) {
		_ = s.Clear(ctx, id)
		return nil, ErrNoSession
	}
	return session, nil
}

// Verify runs the identity check. A rejected token clears the session and
// returns ErrRejected; transport failures are returned as-is and keep it.
// On success the cached user is replaced with the API's record.
func (s *Service) Verify(ctx context.Context, id string) (*model.AuthSession, error) {
	session, err := s.Current(ctx, id)
	if err != nil {
		return nil, err
	}

	user, err := s.api.Me(ctx, session.Token)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			_ = s.Clear(ctx, id)
			return nil, ErrRejected
		}
		return nil, err
	}

	session.User = user
	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetUser merges a partial user record into the cached user. Fields the
// patch omits keep their value.
func (s *Service) SetUser(ctx context.Context, id string, patch json.RawMessage) (*model.AuthSession, error) {
	session, err := s.Current(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := session.User.Merge(patch)
	if err != nil {
		return nil, err
	}
	session.User = merged

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Clear removes the session and all state scoped to it
func (s *Service) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	err := s.storage.DeleteSession(ctx, id)
	for _, fn := range s.onClear {
		fn(id)
	}
	return err
}

// OnClear registers fn to run whenever a session is cleared, whether by
// logout, expiry or a rejected token. Register before serving requests.
func (s *Service) OnClear(fn func(id string)) {
	s.onClear = append(s.onClear, fn)
}

package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/dependencies/mocks"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/storage/memory"
	"github.com/mcoot/gamehub-console/internal/testutil"
	"github.com/mcoot/gamehub-console/internal/testutil/fakeapi"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type ServiceSuite struct {
	suite.Suite
	api     *fakeapi.Server
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.api = fakeapi.New(s.T())
	s.storage = memory.New()
	// The fake API signs tokens against the wall clock
	s.clock = mocks.NewMockClock(time.Now())
	s.random = mocks.NewMockRandom()
	client := backend.New(backend.Config{BaseURL: s.api.URL()}, testutil.NopLogger())
	s.service = New(client, s.storage, s.clock, s.random, DefaultConfig())
	s.ctx = context.Background()
}

func unsignedToken(claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		panic(err)
	}
	return token
}

// Login tests

func (s *ServiceSuite) TestLoginCreatesSession() {
	session, err := s.service.Login(s.ctx, fakeapi.AdminEmail, fakeapi.AdminPassword)
	s.Require().NoError(err)

	s.Equal("tok-1", session.ID)
	s.NotEmpty(session.Token)
	s.Equal(fakeapi.AdminID, session.User.ID)
	s.True(session.Capabilities().IsAdmin())

	stored, err := s.storage.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.Token, stored.Token)
}

func (s *ServiceSuite) TestLoginSessionEndsWithToken() {
	session, err := s.service.Login(s.ctx, fakeapi.PlayerEmail, fakeapi.PlayerPassword)
	s.Require().NoError(err)

	// The fake API issues one-hour tokens, shorter than the session duration
	s.WithinDuration(s.clock.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)
}

func (s *ServiceSuite) TestLoginInvalidCredentials() {
	_, err := s.service.Login(s.ctx, fakeapi.AdminEmail, "nope")
	s.ErrorIs(err, ErrInvalidCredentials)
	s.Contains(err.Error(), "Invalid credentials")
}

func (s *ServiceSuite) TestLoginMissingCredentials() {
	_, err := s.service.Login(s.ctx, "", "x")
	s.ErrorIs(err, ErrMissingCredentials)
	s.Empty(s.api.Requests(), "nothing is sent without credentials")
}

// Start / token decode tests

func (s *ServiceSuite) TestStartRejectsExpiredToken() {
	token := unsignedToken(jwt.MapClaims{"exp": s.clock.Now().Add(-time.Minute).Unix()})
	_, err := s.service.Start(s.ctx, token, model.User{ID: "u1"})
	s.ErrorIs(err, ErrTokenExpired)
}

func (s *ServiceSuite) TestStartAcceptsOpaqueToken() {
	session, err := s.service.Start(s.ctx, "opaque-token", model.User{ID: "u1"})
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(24*time.Hour), session.ExpiresAt)
}

func (s *ServiceSuite) TestStartFillsRoleFromToken() {
	token := unsignedToken(jwt.MapClaims{"role": "admin"})
	session, err := s.service.Start(s.ctx, token, model.User{ID: "u1"})
	s.Require().NoError(err)
	s.Equal(model.RoleAdmin, session.User.Role)
}

func (s *ServiceSuite) TestDecodeToken() {
	exp := epoch.Add(time.Hour)
	claims := DecodeToken(unsignedToken(jwt.MapClaims{"exp": exp.Unix(), "role": "player"}))
	s.True(claims.ExpiresAt.Equal(exp))
	s.Equal(model.RolePlayer, claims.Role)

	s.Equal(TokenClaims{}, DecodeToken("not.a.jwt"))
}

// Current tests

func (s *ServiceSuite) TestCurrentMissing() {
	_, err := s.service.Current(s.ctx, "")
	s.ErrorIs(err, ErrNoSession)

	_, err = s.service.Current(s.ctx, "unknown")
	s.ErrorIs(err, ErrNoSession)
}

func (s *ServiceSuite) TestCurrentExpiredIsCleared() {
	session, err := s.service.Start(s.ctx, "opaque", model.User{ID: "u1"})
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)

	_, err = s.service.Current(s.ctx, session.ID)
	s.ErrorIs(err, ErrNoSession)
	_, err = s.storage.GetSession(s.ctx, session.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Verify tests

func (s *ServiceSuite) TestVerifyCachesUser() {
	token := s.api.IssueToken(fakeapi.PlayerID, time.Hour)
	session, err := s.service.Start(s.ctx, token, model.User{ID: fakeapi.PlayerID})
	s.Require().NoError(err)

	verified, err := s.service.Verify(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(fakeapi.PlayerName, verified.User.Username)

	stored, _ := s.storage.GetSession(s.ctx, session.ID)
	s.Equal(fakeapi.PlayerName, stored.User.Username)
}

func (s *ServiceSuite) TestVerifyRejectedClearsSession() {
	token := s.api.IssueToken(fakeapi.PlayerID, time.Hour)
	session, err := s.service.Start(s.ctx, token, model.User{ID: fakeapi.PlayerID})
	s.Require().NoError(err)
	s.Require().NoError(s.storage.SaveViewState(s.ctx, session.ID, "games", model.ViewState{Page: 2, PageSize: 5}))

	s.api.Revoke(token)

	_, err = s.service.Verify(s.ctx, session.ID)
	s.ErrorIs(err, ErrRejected)

	_, err = s.storage.GetSession(s.ctx, session.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, found, _ := s.storage.GetViewState(s.ctx, session.ID, "games")
	s.False(found)
}

func (s *ServiceSuite) TestVerifyUnavailableKeepsSession() {
	token := s.api.IssueToken(fakeapi.PlayerID, time.Hour)
	session, err := s.service.Start(s.ctx, token, model.User{ID: fakeapi.PlayerID})
	s.Require().NoError(err)

	s.api.Close()

	_, err = s.service.Verify(s.ctx, session.ID)
	s.ErrorIs(err, backend.ErrUnavailable)

	_, err = s.storage.GetSession(s.ctx, session.ID)
	s.NoError(err)
}

// SetUser tests

func (s *ServiceSuite) TestSetUserMerges() {
	score := 40
	session, err := s.service.Start(s.ctx, "opaque", model.User{
		ID: "u1", Username: "alice", Email: "a@x.io", Role: model.RolePlayer,
		TotalScore: &score, CreatedAt: "2024-01-01T12:00:00Z",
	})
	s.Require().NoError(err)

	updated, err := s.service.SetUser(s.ctx, session.ID, json.RawMessage(`{"username":"alice2"}`))
	s.Require().NoError(err)
	s.Equal("alice2", updated.User.Username)
	s.Equal("2024-01-01T12:00:00Z", updated.User.CreatedAt)
	s.Equal("u1", updated.User.ID)

	stored, _ := s.storage.GetSession(s.ctx, session.ID)
	s.Equal("alice2", stored.User.Username)
	s.Equal("a@x.io", stored.User.Email)
}

// Clear tests

func (s *ServiceSuite) TestClear() {
	session, err := s.service.Start(s.ctx, "opaque", model.User{ID: "u1"})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Clear(s.ctx, session.ID))
	_, err = s.service.Current(s.ctx, session.ID)
	s.ErrorIs(err, ErrNoSession)

	s.NoError(s.service.Clear(s.ctx, ""))
}

func (s *ServiceSuite) TestClearRunsHooks() {
	var cleared []string
	s.service.OnClear(func(id string) { cleared = append(cleared, id) })

	first, err := s.service.Start(s.ctx, "opaque", model.User{ID: "u1"})
	s.Require().NoError(err)
	s.Require().NoError(s.service.Clear(s.ctx, first.ID))

	second, err := s.service.Start(s.ctx, "opaque", model.User{ID: "u2"})
	s.Require().NoError(err)
	s.clock.Advance(25 * time.Hour)
	_, err = s.service.Current(s.ctx, second.ID)
	s.ErrorIs(err, ErrNoSession)

	s.Equal([]string{first.ID, second.ID}, cleared)
}

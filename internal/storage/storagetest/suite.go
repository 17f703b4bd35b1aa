// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/storage"
)

// Suite runs against the storage returned by New, called once per test
type Suite struct {
	suite.Suite
	New     func() storage.Storage
	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.Storage = s.New()
	s.Ctx = context.Background()
}

func (s *Suite) session(id string) *model.AuthSession {
	score := 40
	return &model.AuthSession{
		ID:    id,
		Token: "token-" + id,
		User: model.User{
			ID:         "player-1",
			Username:   "alice",
			Email:      "alice@example.com",
			Role:       model.RolePlayer,
			TotalScore: &score,
			CreatedAt:  "2024-01-01T12:00:00Z",
		},
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
	}
}

func (s *Suite) start(id string) {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.session(id)))
}

// Session tests

func (s *Suite) TestSaveAndGetSession() {
	err := s.Storage.SaveSession(s.Ctx, s.session("sess-1"))
	s.Require().NoError(err)

	retrieved, err := s.Storage.GetSession(s.Ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal("token-sess-1", retrieved.Token)
	s.Equal("alice", retrieved.User.Username)
	s.Require().NotNil(retrieved.User.TotalScore)
	s.Equal(40, *retrieved.User.TotalScore)
	s.True(retrieved.ExpiresAt.Equal(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)))
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Storage.GetSession(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestSaveSessionOverwrites() {
	sess := s.session("sess-1")
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, sess))

	sess.User.Username = "alice2"
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, sess))

	retrieved, err := s.Storage.GetSession(s.Ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal("alice2", retrieved.User.Username)
}

func (s *Suite) TestDeleteSessionDropsScopedState() {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.session("sess-1")))
	s.Require().NoError(s.Storage.SaveViewState(s.Ctx, "sess-1", "games", model.ViewState{Page: 3, PageSize: 5}))
	_, err := s.Storage.NextRequestToken(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Require().NoError(s.Storage.BindForm(s.Ctx, "sess-1", "games", "nonce-1"))

	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "sess-1"))

	_, err = s.Storage.GetSession(s.Ctx, "sess-1")
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, found, err := s.Storage.GetViewState(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.False(found)

	latest, err := s.Storage.LatestRequestToken(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(int64(0), latest)

	state, err := s.Storage.FormBinding(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(model.BindingUnbound, state)
}

func (s *Suite) TestDeleteSessionLeavesOthers() {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.session("sess-1")))
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.session("sess-2")))
	s.Require().NoError(s.Storage.SaveViewState(s.Ctx, "sess-2", "games", model.ViewState{Page: 2, PageSize: 5}))

	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "sess-1"))

	_, err := s.Storage.GetSession(s.Ctx, "sess-2")
	s.NoError(err)
	_, found, err := s.Storage.GetViewState(s.Ctx, "sess-2", "games")
	s.Require().NoError(err)
	s.True(found)
}

func (s *Suite) TestWritesAfterDeleteAreDropped() {
	s.start("sess-1")
	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "sess-1"))

	s.Require().NoError(s.Storage.SaveViewState(s.Ctx, "sess-1", "games", model.ViewState{Page: 2, PageSize: 5}))
	s.Require().NoError(s.Storage.BindForm(s.Ctx, "sess-1", "games", "nonce-1"))
	_, err := s.Storage.NextRequestToken(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)

	_, found, err := s.Storage.GetViewState(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.False(found)

	latest, err := s.Storage.LatestRequestToken(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(int64(0), latest)

	state, err := s.Storage.FormBinding(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(model.BindingUnbound, state)

	// Saving the session again starts from an empty scope
	s.start("sess-1")
	first, err := s.Storage.NextRequestToken(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(int64(1), first)
}

// View state tests

func (s *Suite) TestViewStatePerModule() {
	s.start("sess-1")
	s.Require().NoError(s.Storage.SaveViewState(s.Ctx, "sess-1", "games", model.ViewState{Page: 2, PageSize: 5, Sort: "-title"}))
	s.Require().NoError(s.Storage.SaveViewState(s.Ctx, "sess-1", "genres", model.ViewState{Page: 1, PageSize: 20}))

	games, found, err := s.Storage.GetViewState(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.True(found)
	s.Equal(model.ViewState{Page: 2, PageSize: 5, Sort: "-title"}, games)

	genres, found, err := s.Storage.GetViewState(s.Ctx, "sess-1", "genres")
	s.Require().NoError(err)
	s.True(found)
	s.Equal(20, genres.PageSize)

	_, found, err = s.Storage.GetViewState(s.Ctx, "sess-2", "games")
	s.Require().NoError(err)
	s.False(found)
}

// Request sequencing tests

func (s *Suite) TestRequestTokensIncrease() {
	s.start("sess-1")
	latest, err := s.Storage.LatestRequestToken(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(int64(0), latest)

	first, err := s.Storage.NextRequestToken(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	second, err := s.Storage.NextRequestToken(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Greater(second, first)

	latest, err = s.Storage.LatestRequestToken(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(second, latest)

	other, err := s.Storage.NextRequestToken(s.Ctx, "sess-1", "genres")
	s.Require().NoError(err)
	s.Equal(int64(1), other, "modules count independently")
}

// Form binding tests

func (s *Suite) TestBindingConsumedOnce() {
	s.start("sess-1")
	state, err := s.Storage.FormBinding(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(model.BindingUnbound, state)

	s.Require().NoError(s.Storage.BindForm(s.Ctx, "sess-1", "games", "nonce-1"))
	state, err = s.Storage.FormBinding(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(model.BindingBound, state)

	ok, err := s.Storage.ConsumeFormBinding(s.Ctx, "sess-1", "games", "nonce-1")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.Storage.ConsumeFormBinding(s.Ctx, "sess-1", "games", "nonce-1")
	s.Require().NoError(err)
	s.False(ok, "a consumed binding cannot be replayed")

	state, err = s.Storage.FormBinding(s.Ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(model.BindingUnbound, state)
}

func (s *Suite) TestRebindReplacesNonce() {
	s.start("sess-1")
	s.Require().NoError(s.Storage.BindForm(s.Ctx, "sess-1", "games", "nonce-1"))
	s.Require().NoError(s.Storage.BindForm(s.Ctx, "sess-1", "games", "nonce-2"))

	ok, err := s.Storage.ConsumeFormBinding(s.Ctx, "sess-1", "games", "nonce-1")
	s.Require().NoError(err)
	s.False(ok, "the replaced nonce is stale")

	ok, err = s.Storage.ConsumeFormBinding(s.Ctx, "sess-1", "games", "nonce-2")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *Suite) TestConsumeRejectsEmptyNonce() {
	ok, err := s.Storage.ConsumeFormBinding(s.Ctx, "sess-1", "games", "")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *Suite) TestPing() {
	s.NoError(s.Storage.Ping(s.Ctx))
}

package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/storage"
	"github.com/mcoot/gamehub-console/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		New: func() storage.Storage {
			mini := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewWithClient(client, DefaultConfig())
		},
	})
}

type RedisSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestRedisSuite(t *testing.T) {
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
}

func (s *RedisSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *RedisSuite) TestSessionHasTTL() {
	ctx := s.T().Context()
	err := s.storage.SaveSession(ctx, &model.AuthSession{ID: "sess-1", Token: "t"})
	s.Require().NoError(err)

	s.Equal(time.Hour, s.mini.TTL(sessionKey("sess-1")))
}

func (s *RedisSuite) TestSessionExpires() {
	ctx := s.T().Context()
	s.Require().NoError(s.storage.SaveSession(ctx, &model.AuthSession{ID: "sess-1", Token: "t"}))
	s.Require().NoError(s.storage.SaveViewState(ctx, "sess-1", "games", model.ViewState{Page: 2, PageSize: 5}))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(ctx, "sess-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, found, err := s.storage.GetViewState(ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.False(found)
}

func (s *RedisSuite) TestScopedKeysAreIndexed() {
	ctx := s.T().Context()
	s.Require().NoError(s.storage.SaveSession(ctx, &model.AuthSession{ID: "sess-1", Token: "t"}))
	s.Require().NoError(s.storage.SaveViewState(ctx, "sess-1", "games", model.ViewState{Page: 1, PageSize: 5}))
	s.Require().NoError(s.storage.BindForm(ctx, "sess-1", "games", "n1"))
	_, err := s.storage.NextRequestToken(ctx, "sess-1", "games")
	s.Require().NoError(err)

	members, err := s.mini.Members(sessionIndexKey("sess-1"))
	s.Require().NoError(err)
	s.ElementsMatch([]string{
		viewKey("sess-1", "games"),
		bindingKey("sess-1", "games"),
		seqKey("sess-1", "games"),
	}, members)

	s.Equal(time.Hour, s.mini.TTL(bindingKey("sess-1", "games")))
}

func (s *RedisSuite) TestDeleteSessionRemovesIndex() {
	ctx := s.T().Context()
	s.Require().NoError(s.storage.SaveSession(ctx, &model.AuthSession{ID: "sess-1", Token: "t"}))
	s.Require().NoError(s.storage.BindForm(ctx, "sess-1", "profile", "n1"))

	s.Require().NoError(s.storage.DeleteSession(ctx, "sess-1"))

	s.False(s.mini.Exists(sessionIndexKey("sess-1")))
	s.False(s.mini.Exists(bindingKey("sess-1", "profile")))
}

func (s *RedisSuite) TestWriteAfterDeleteLeavesNoKeys() {
	ctx := s.T().Context()
	s.Require().NoError(s.storage.SaveSession(ctx, &model.AuthSession{ID: "sess-1", Token: "t"}))
	s.Require().NoError(s.storage.DeleteSession(ctx, "sess-1"))

	s.Require().NoError(s.storage.BindForm(ctx, "sess-1", "games", "n1"))
	n, err := s.storage.NextRequestToken(ctx, "sess-1", "games")
	s.Require().NoError(err)
	s.Equal(int64(0), n)

	s.False(s.mini.Exists(sessionIndexKey("sess-1")))
	s.False(s.mini.Exists(bindingKey("sess-1", "games")))
	s.False(s.mini.Exists(seqKey("sess-1", "games")))
}

func (s *RedisSuite) TestPingFailsWhenServerDown() {
	s.mini.Close()
	s.Error(s.storage.Ping(s.T().Context()))
	s.mini = nil
}

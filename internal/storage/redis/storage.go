package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/storage"
)

// consumeScript deletes a binding only if it still holds the given nonce
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Scoped writes check the session key first, so nothing is written for a
// session that was already deleted. KEYS: session, key, index.
// ARGV[2] is the TTL in milliseconds, 0 for none.
var scopedSetScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("SET", KEYS[2], ARGV[1])
redis.call("SADD", KEYS[3], KEYS[2])
if tonumber(ARGV[2]) > 0 then
	redis.call("PEXPIRE", KEYS[2], ARGV[2])
	redis.call("PEXPIRE", KEYS[3], ARGV[2])
end
return 1
`)

var scopedIncrScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
local n = redis.call("INCR", KEYS[2])
redis.call("SADD", KEYS[3], KEYS[2])
if tonumber(ARGV[1]) > 0 then
	redis.call("PEXPIRE", KEYS[2], ARGV[1])
	redis.call("PEXPIRE", KEYS[3], ARGV[1])
end
return n
`)

func (s *Storage) scopedKeys(sessionID, key string) []string {
	return []string{sessionKey(sessionID), key, sessionIndexKey(sessionID)}
}

func (s *Storage) ttlMillis() int64 {
	return s.cfg.SessionTTL.Milliseconds()
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.AuthSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.ID), data, s.cfg.SessionTTL).Err()
}

func (s *Storage) GetSession(ctx context.Context, id string) (*model.AuthSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	indexKey := sessionIndexKey(id)

	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	// Delete the session, its scoped keys and the index in one pipeline
	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(id))
	for _, key := range keys {
		pipe.Del(ctx, key)
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}

// View state operations

func (s *Storage) SaveViewState(ctx context.Context, sessionID, module string, state model.ViewState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	key := viewKey(sessionID, module)
	return scopedSetScript.Run(ctx, s.client, s.scopedKeys(sessionID, key), data, s.ttlMillis()).Err()
}

func (s *Storage) GetViewState(ctx context.Context, sessionID, module string) (model.ViewState, bool, error) {
	data, err := s.client.Get(ctx, viewKey(sessionID, module)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ViewState{}, false, nil
		}
		return model.ViewState{}, false, err
	}

	var state model.ViewState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.ViewState{}, false, err
	}
	return state, true, nil
}

// Request sequencing

func (s *Storage) NextRequestToken(ctx context.Context, sessionID, module string) (int64, error) {
	key := seqKey(sessionID, module)
	return scopedIncrScript.Run(ctx, s.client, s.scopedKeys(sessionID, key), s.ttlMillis()).Int64()
}

func (s *Storage) LatestRequestToken(ctx context.Context, sessionID, module string) (int64, error) {
	n, err := s.client.Get(ctx, seqKey(sessionID, module)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Form binding operations

func (s *Storage) BindForm(ctx context.Context, sessionID, form, nonce string) error {
	key := bindingKey(sessionID, form)
	return scopedSetScript.Run(ctx, s.client, s.scopedKeys(sessionID, key), nonce, s.ttlMillis()).Err()
}

func (s *Storage) FormBinding(ctx context.Context, sessionID, form string) (model.BindingState, error) {
	exists, err := s.client.Exists(ctx, bindingKey(sessionID, form)).Result()
	if err != nil {
		return model.BindingUnbound, err
	}
	if exists > 0 {
		return model.BindingBound, nil
	}
	return model.BindingUnbound, nil
}

func (s *Storage) ConsumeFormBinding(ctx context.Context, sessionID, form, nonce string) (bool, error) {
	if nonce == "" {
		return false, nil
	}
	n, err := consumeScript.Run(ctx, s.client, []string{bindingKey(sessionID, form)}, nonce).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Ping checks the Redis connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

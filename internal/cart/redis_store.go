package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redisclient "github.com/karibu-app/karibu-backend/pkg/redis"
)

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// RedisStore persists one owner's cart as a JSON snapshot in Redis. The TTL
// lets abandoned carts expire on their own.
type RedisStore struct {
	kv  kvStore
	key string
	ttl time.Duration
}

// NewRedisStore binds a store to the owner's cart key.
func NewRedisStore(client *redisclient.Client, owner string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		kv:  client,
		key: client.CartKey(owner),
		ttl: ttl,
	}
}

// Save writes the serialized snapshot, refreshing the TTL.
func (s *RedisStore) Save(ctx context.Context, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, string(payload), s.ttl)
}

// Load fetches and decodes the snapshot. A missing key or a corrupt payload
// both report found=false; only transport failures surface as errors.
func (s *RedisStore) Load(ctx context.Context) (State, bool, error) {
	payload, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return State{}, false, nil
		}
		return State{}, false, err
	}
	var state State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return State{}, false, nil
	}
	return state, true, nil
}

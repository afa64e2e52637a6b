package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"LPSentinel/internal/model"
)

// DefaultRedisKey is the key the state document is stored under.
const DefaultRedisKey = "lpsentinel:state"

// RedisStore keeps the same JSON document in a single Redis key. SET
// replaces the value in one step, matching the file store's atomicity.
type RedisStore struct {
	Client  redis.Cmdable
	Key     string
	Timeout time.Duration
}

// NewRedisStore connects to addr. The connection is lazy; the first Load
// surfaces connectivity errors.
func NewRedisStore(addr, password string, db int, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		Key:     key,
		Timeout: 5 * time.Second,
	}
}

// Load reads the state. A missing key yields a zero state.
func (r *RedisStore) Load() (*model.MonitorState, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	data, err := r.Client.Get(ctx, r.Key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.MonitorState{}, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", r.Key, err)
	}
	return decode(data)
}

// Save writes the state with no expiry.
func (r *RedisStore) Save(state *model.MonitorState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.Client.Set(ctx, r.Key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.Key, err)
	}
	return nil
}

func (r *RedisStore) ctx() (context.Context, context.CancelFunc) {
	t := r.Timeout
	if t <= 0 {
		t = 5 * time.Second
	}
	return context.WithTimeout(context.Background(), t)
}

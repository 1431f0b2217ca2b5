package usage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript increments KEYS[1] unless it already reached ARGV[1] (-1 = no cap).
// ARGV[2] is an optional TTL in milliseconds applied when the key is created.
// Returns {count, 1} on increment or {current, 0} when capped.
var incrementScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local max = tonumber(ARGV[1])
if max >= 0 and current >= max then
	return {current, 0}
end
local count = redis.call('INCR', KEYS[1])
local ttl = tonumber(ARGV[2])
if ttl > 0 and count == 1 then
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return {count, 1}
`)

// RedisStore implements ConditionalStore on Redis.
// The check-and-increment runs as a Lua script, so it is atomic across every
// process sharing the Redis instance.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces all keys, e.g. "myapp:". Empty by default.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithKeyTTL expires counters ttl after their creation. Zero (the default) keeps them
// forever; pick a TTL longer than the longest reset window or lifetime limits will reset.
func WithKeyTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the counter; a missing key is not an error.
func (s *RedisStore) Get(ctx context.Context, key Key) (int64, bool, error) {
	count, err := s.client.Get(ctx, s.redisKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// Increment adds one to the counter.
func (s *RedisStore) Increment(ctx context.Context, key Key) (int64, error) {
	count, _, err := s.run(ctx, key, -1)
	return count, err
}

// IncrementIfBelow adds one to the counter while it is below max.
func (s *RedisStore) IncrementIfBelow(ctx context.Context, key Key, max int64) (int64, bool, error) {
	return s.run(ctx, key, max)
}

func (s *RedisStore) run(ctx context.Context, key Key, max int64) (int64, bool, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{s.redisKey(key)}, max, s.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, false, err
	}
	if len(res) != 2 {
		return 0, false, errors.New("unexpected increment script reply")
	}
	return res[0], res[1] == 1, nil
}

func (s *RedisStore) redisKey(key Key) string {
	return s.prefix + key.String()
}

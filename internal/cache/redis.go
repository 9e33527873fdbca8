package cache

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/redis/go-redis/v9"

	u "qr2png/internal/utils"
)

const redisOpTimeout = 1 * time.Second

// Redis is a Store backed by a shared Redis instance, for deployments with
// more than one replica. The key expiration carries the idle clock and is
// refreshed on every read; the fixed time-to-live is enforced on read against
// an insertion timestamp stored with the payload. The entry bound is left to
// Redis memory policy. Errors degrade to a cache miss.
type Redis struct {
	client  *redis.Client
	ttl     time.Duration
	idleTTL time.Duration
}

// NewRedis creates a Redis-backed store with the given expiration policy.
func NewRedis(client *redis.Client, ttl, idleTTL time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, idleTTL: idleTTL}
}

// Get fetches the entry and refreshes its idle expiration.
func (r *Redis) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.client.GetEx(ctx, key, r.idleTTL).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		u.Warn("Redis read failed", "key", key, "error", err)
		return nil, false
	}
	if len(raw) < 8 {
		return nil, false
	}

	insertedAt := time.Unix(int64(binary.BigEndian.Uint64(raw[:8])), 0)
	if time.Since(insertedAt) >= r.ttl {
		r.client.Del(ctx, key)
		return nil, false
	}
	return raw[8:], true
}

// Set stores the entry with the idle expiration and an embedded insertion
// timestamp for the fixed time-to-live.
func (r *Redis) Set(key string, val []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw := make([]byte, 8+len(val))
	binary.BigEndian.PutUint64(raw[:8], uint64(time.Now().Unix()))
	copy(raw[8:], val)

	if err := r.client.Set(ctx, key, raw, r.idleTTL).Err(); err != nil {
		u.Warn("Redis write failed", "key", key, "error", err)
	}
}

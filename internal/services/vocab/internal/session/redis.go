package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// advanceScript increments an existing cursor and refreshes its TTL in one step.
// It returns -1 when the cursor does not exist.
var advanceScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
local n = redis.call("INCR", KEYS[1])
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return n - 1
`)

type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Redis{
		rdb: rdb,
		ttl: cfg.TTL,
	}
}

func (r *Redis) Create(ctx context.Context, userID int64, sessionID string) error {
	ok, err := r.rdb.SetNX(ctx, key(userID, sessionID), 0, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("store session in redis: %w", err)
	}
	if !ok {
		return ErrExists
	}

	return nil
}

func (r *Redis) Advance(ctx context.Context, userID int64, sessionID string) (int64, error) {
	pos, err := advanceScript.Run(ctx, r.rdb, []string{key(userID, sessionID)}, r.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("advance session in redis: %w", err)
	}
	if pos < 0 {
		return 0, ErrNotFound
	}

	return pos, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

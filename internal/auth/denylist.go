package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "revoked_jti:"

// Denylist records revoked token IDs in Redis until their natural expiry.
// Logout writes here; the auth middleware reads. Keys carry a TTL equal to
// the token's remaining life, so the set never grows beyond live tokens.
type Denylist struct {
	redisdb *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewDenylist(cfg RedisConfig) *Denylist {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Denylist{redisdb: redisdb}
}

func (d *Denylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// already expired; nothing to deny
		return nil
	}

	return d.redisdb.Set(ctx, denylistPrefix+jti, "1", ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.redisdb.Exists(ctx, denylistPrefix+jti).Result()

	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (d *Denylist) Ping(ctx context.Context) error {
	return d.redisdb.Ping(ctx).Err()
}

func (d *Denylist) Close() error {
	return d.redisdb.Close()
}

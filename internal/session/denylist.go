// Package session tracks revoked access tokens in Redis.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Denylist struct {
	rdb     *redis.Client
	timeout time.Duration
}

func NewDenylist(rdb *redis.Client, timeout time.Duration) *Denylist {
	return &Denylist{rdb: rdb, timeout: timeout}
}

func key(jti string) string {
	return fmt.Sprintf("revoked_token_%s", jti)
}

// Revoke remembers jti until the token would have expired anyway.
func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return d.rdb.Set(ctx, key(jti), 1, ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	n, err := d.rdb.Exists(ctx, key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pinger is the slice of redis.Client the readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// retryInterval is shortened by tests.
var retryInterval = 2 * time.Second

// NewClient builds the seat cache client. Timeouts stay short so a missing
// cache cannot stall startup.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          0, // use default DB
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
}

// WaitForRedis polls the seat cache until it answers a ping or the timeout
// elapses. The cache is optional at startup, so callers treat the returned
// error as a warning rather than a fatal stage failure.
func WaitForRedis(ctx context.Context, client Pinger, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("redis not ready within %s: %w", timeout, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// Package cache connects to the Redis instance shared by the dashboard cache
// and the background job queue.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned when no Redis address is configured.
var ErrDisabled = errors.New("platform/cache: redis address not configured")

const pingTimeout = 5 * time.Second

// Options selects the Redis instance.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether an address is configured.
func (o Options) Enabled() bool {
	return strings.TrimSpace(o.Addr) != ""
}

// Queue returns the asynq connection options for the same instance.
func (o Options) Queue() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: strings.TrimSpace(o.Addr), Password: o.Password, DB: o.DB}
}

// New creates a Redis client and checks it answers a ping.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	if !opts.Enabled() {
		return nil, ErrDisabled
	}
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(opts.Addr),
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", opts.Addr, err)
	}

	return client, nil
}

package analytics

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/ticketdash/internal/tickets/filter"
)

const (
	cacheVersionKey = "dashboard:version"
	bumpChannel     = "dataset.bump"
)

// Cache wraps Redis based caching with versioning controls.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	lookups *prometheus.CounterVec
	group   singleflight.Group
	// origin tags bump events so a process ignores its own.
	origin string
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, origin: uuid.NewString()}
}

// WithMetrics registers hit/miss counters against reg.
func (c *Cache) WithMetrics(reg prometheus.Registerer) *Cache {
	if c == nil || reg == nil {
		return c
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketdash_dashboard_cache_total",
		Help: "Jumlah lookup cache dashboard berdasarkan hasil (hit, miss, corrupt).",
	}, []string{"result"})
	if err := reg.Register(lookups); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			lookups = already.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	c.lookups = lookups
	return c
}

func (c *Cache) observe(result string) {
	if c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(result).Inc()
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	if c == nil || c.client == nil {
		return strings.Join(parts, ":"), nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	joined := strings.Join(parts, ":")
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// Fetch loads a cached value or populates it with loader. Concurrent misses
// for the same key share one loader call. An entry that no longer decodes is
// treated as a miss and overwritten.
func Fetch[T any](ctx context.Context, c *Cache, key string, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	if loader == nil {
		return zero, errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached T
		if jsonErr := json.Unmarshal(payload, &cached); jsonErr == nil {
			c.observe("hit")
			return cached, nil
		}
		c.observe("corrupt")
	case !errors.Is(err, redis.Nil):
		return zero, err
	default:
		c.observe("miss")
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		fresh, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(fresh)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return zero, err
	}
	return value.(T), nil
}

// Bump invalidates the cache by incrementing the global version and publishing
// an event of the form "<version>:<origin>".
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	payload := strconv.FormatInt(ver, 10) + ":" + c.origin
	return c.client.Publish(ctx, bumpChannel, payload).Err()
}

// ListenForInvalidation subscribes to version bump notifications and calls
// onBump for each one, so processes holding in-memory datasets can drop them.
// Bumps published through c itself are skipped; the caller already holds
// fresh state for those.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string, onBump func()) error {
	if c == nil || c.client == nil {
		return nil
	}
	if channel == "" {
		channel = bumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if c.ownBump(msg.Payload) {
					continue
				}
				if onBump != nil {
					onBump()
				}
			}
		}
	}()
	return nil
}

func (c *Cache) ownBump(payload string) bool {
	_, origin, ok := strings.Cut(payload, ":")
	return ok && origin == c.origin
}

// SelectionDigest fingerprints a normalized selection for cache keys. Set
// order does not affect the digest.
func SelectionDigest(sel filter.Selection) string {
	norm := sel.Normalized()
	// Normalized returns fresh slices, so sorting in place is safe.
	slices.Sort(norm.Zones)
	slices.Sort(norm.Branches)
	slices.Sort(norm.Categories)
	raw, err := json.Marshal(norm)
	if err != nil {
		return "invalid"
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:16])
}

func keyDashboard(datasetDigest string, sel filter.Selection) string {
	return strings.Join([]string{"dashboard", datasetDigest, SelectionDigest(sel)}, ":")
}

package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/query"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

const (
	cacheKeyPrefix  = "insightdesk:"
	defaultCacheTTL = 5 * time.Minute
)

// Cached fronts a Source with Redis. Entries are keyed by the descriptor
// fingerprint and a per-entity version; Invalidate bumps the version so
// stale entries are never read again and simply expire. Redis failures
// fall through to the wrapped source.
type Cached struct {
	next   Source
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
	tracer trace.Tracer
}

// NewCached wraps next. A nil client returns next's results uncached.
func NewCached(next Source, client *redis.Client, ttl time.Duration, logger *logging.Logger) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cached{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: logger,
		tracer: otel.Tracer("insightdesk.internal.datasource.cache"),
	}
}

// FetchCustomers implements Source.
func (c *Cached) FetchCustomers(ctx context.Context, d query.Descriptor) ([]crm.Customer, error) {
	return cached(ctx, c, crm.EntityCustomers, d.Fingerprint(), func(ctx context.Context) ([]crm.Customer, error) {
		return c.next.FetchCustomers(ctx, d)
	})
}

// FetchConversations implements Source.
func (c *Cached) FetchConversations(ctx context.Context, d query.Descriptor) ([]crm.Conversation, error) {
	return cached(ctx, c, crm.EntityConversations, d.Fingerprint(), func(ctx context.Context) ([]crm.Conversation, error) {
		return c.next.FetchConversations(ctx, d)
	})
}

// FetchInsights implements Source.
func (c *Cached) FetchInsights(ctx context.Context, d query.Descriptor) ([]crm.Insight, error) {
	return cached(ctx, c, crm.EntityInsights, d.Fingerprint(), func(ctx context.Context) ([]crm.Insight, error) {
		return c.next.FetchInsights(ctx, d)
	})
}

// ListCategories implements Vocabulary.
func (c *Cached) ListCategories(ctx context.Context) ([]crm.CategoryCount, error) {
	return cached(ctx, c, crm.EntityInsights, "vocab:categories", c.next.ListCategories)
}

// ListTopics implements Vocabulary.
func (c *Cached) ListTopics(ctx context.Context) ([]crm.TopicCount, error) {
	return cached(ctx, c, crm.EntityInsights, "vocab:topics", c.next.ListTopics)
}

// Invalidate retires every cached result for entity.
func (c *Cached) Invalidate(ctx context.Context, entity crm.Entity) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Incr(ctx, versionKey(entity)).Err(); err != nil {
		return fmt.Errorf("datasource: invalidate %s: %w", entity, err)
	}
	return nil
}

func versionKey(entity crm.Entity) string {
	return cacheKeyPrefix + "version:" + string(entity)
}

func (c *Cached) version(ctx context.Context, entity crm.Entity) (int64, error) {
	v, err := c.redis.Get(ctx, versionKey(entity)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func cached[R any](ctx context.Context, c *Cached, entity crm.Entity, id string, load func(context.Context) (R, error)) (R, error) {
	if c.redis == nil {
		return load(ctx)
	}
	ctx, span := c.tracer.Start(ctx, "datasource.cache.fetch")
	defer span.End()

	version, err := c.version(ctx, entity)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("cache version lookup failed", "entity", entity, "error", err)
		return load(ctx)
	}
	key := fmt.Sprintf("%s%s:%d:%s", cacheKeyPrefix, entity, version, id)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out R
		if jsonErr := json.Unmarshal(raw, &out); jsonErr == nil {
			return out, nil
		}
		c.logger.Warn("cache entry undecodable", "key", key)
	case !errors.Is(err, redis.Nil):
		span.RecordError(err)
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return out, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return out, nil
}

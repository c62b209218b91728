package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/insightdesk/internal/config"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; caching disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildElasticClient returns an Elasticsearch client or nil when no
// addresses are configured.
func BuildElasticClient(cfg *appconfig.Config) (*elasticsearch.Client, error) {
	if cfg == nil || len(cfg.ElasticAddresses) == 0 {
		return nil, nil
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.ElasticAddresses,
		Username:  cfg.ElasticUsername,
		Password:  cfg.ElasticPassword,
	})
}

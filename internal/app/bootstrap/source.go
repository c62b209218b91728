package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/insightdesk/internal/config"
	"github.com/wolfman30/insightdesk/internal/datasource"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

// ErrUnknownDataSource is returned for an unsupported DATA_SOURCE value.
var ErrUnknownDataSource = errors.New("bootstrap: unknown data source")

// Runtime is the wired data layer. Close releases every connection it owns.
type Runtime struct {
	Source datasource.Source
	Cache  *datasource.Cached
	Pool   *pgxpool.Pool
	SQL    *sql.DB
	Redis  *redis.Client

	closers []func()
}

// Close releases connections in reverse order of creation.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// BuildSource wires the configured backend and, when Redis is reachable,
// fronts it with the read-through cache.
func BuildSource(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rt := &Runtime{}
	switch cfg.DataSource {
	case appconfig.DataSourceMemory, "":
		ds, err := datasource.LoadDatasetFile(cfg.DatasetPath)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load dataset: %w", err)
		}
		rt.Source = datasource.NewMemory(ds)
		logger.Info("using in-memory dataset", "path", cfg.DatasetPath,
			"customers", len(ds.Customers), "conversations", len(ds.Conversations), "insights", len(ds.Insights))

	case appconfig.DataSourcePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres data source")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		rt.Pool = pool
		rt.closers = append(rt.closers, pool.Close)

		sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("bootstrap: open postgres: %w", err)
		}
		rt.SQL = sqlDB
		rt.closers = append(rt.closers, func() { _ = sqlDB.Close() })
		rt.Source = datasource.NewPostgres(pool, datasource.NewSQLVocabulary(sqlDB))
		logger.Info("using postgres data source")

	case appconfig.DataSourceElastic:
		client, err := BuildElasticClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: elastic client: %w", err)
		}
		if client == nil {
			return nil, fmt.Errorf("bootstrap: ELASTIC_ADDRESSES is required for the elastic data source")
		}
		rt.Source = datasource.NewElastic(client, cfg.ElasticIndexPrefix)
		logger.Info("using elasticsearch data source", "addresses", cfg.ElasticAddresses, "index_prefix", cfg.ElasticIndexPrefix)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataSource, cfg.DataSource)
	}

	if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
		rt.Redis = client
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		rt.Cache = datasource.NewCached(rt.Source, client, cfg.CacheTTL, logger)
		rt.Source = rt.Cache
		logger.Info("redis cache enabled", "ttl", cfg.CacheTTL)
	}
	return rt, nil
}

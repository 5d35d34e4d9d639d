package bootstrap

import (
	"context"
	"fmt"

	"github.com/davinci-studio/studio-backend/config"
	"github.com/davinci-studio/studio-backend/internal/gallery/repository"
	"github.com/davinci-studio/studio-backend/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Backends are the opened storage connections. Unused ones are nil.
type Backends struct {
	Store repository.SessionStore
	Redis *redis.Client
	Pool  *pgxpool.Pool

	closers []func()
}

// Close releases every opened connection
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// OpenStore connects the session store selected by cfg.Store.Backend
func OpenStore(ctx context.Context, cfg *config.Config) (*Backends, error) {
	b := &Backends{}

	switch cfg.Store.Backend {
	case config.StoreRedis:
		rdb, err := OpenRedis(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		b.Redis = rdb
		b.closers = append(b.closers, func() { rdb.Close() })
		b.Store = repository.NewRedisStore(rdb, cfg.Redis.TTL)

	case config.StorePostgres:
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { db.Close() })

		pgStore := repository.NewPostgresStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.Store = pgStore

		pool, err := OpenDB(ctx, DBOptions{DSN: postgres.DSN(&cfg.Database)})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Pool = pool
		b.closers = append(b.closers, pool.Close)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	return b, nil
}

package postgres

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/frain-dev/pgtime/config"
	"github.com/frain-dev/pgtime/database"
	"github.com/frain-dev/pgtime/pkg/log"
)

const pkgName = "postgres"

var _ database.Database = (*Postgres)(nil)

type Postgres struct {
	dbx  *sqlx.DB
	pool *pgxpool.Pool
}

func NewDB(cfg config.Configuration) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.Database.Dsn)
	if err != nil {
		return nil, fmt.Errorf("[%s]: failed to parse dsn - %w", pkgName, err)
	}

	if cfg.Database.MaxOpenConn > 0 {
		pgxCfg.MaxConns = int32(cfg.Database.MaxOpenConn)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("[%s]: failed to open database - %w", pkgName, err)
	}

	return NewFromConnection(pool), nil
}

// NewFromConnection wraps an existing pool. The sqlx handle shares the pool's connections.
func NewFromConnection(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		dbx:  sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
		pool: pool,
	}
}

func (p *Postgres) GetDB() *sqlx.DB {
	return p.dbx
}

func (p *Postgres) GetConn() *pgxpool.Pool {
	return p.pool
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	err := p.dbx.Close()
	p.pool.Close()
	return err
}

func closeWithError(closer io.Closer) {
	if err := closer.Close(); err != nil {
		log.WithError(err).Error("failed to close")
	}
}

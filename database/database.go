package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

type Database interface {
	GetDB() *sqlx.DB
	GetConn() *pgxpool.Pool
	Ping(ctx context.Context) error
	Close() error
}

package testenv

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/frain-dev/pgtime/database"
	pgtimePostgres "github.com/frain-dev/pgtime/database/postgres"
	"github.com/frain-dev/pgtime/internal/pkg/migrator"
)

var pgCloneMutex sync.Mutex

func nextRandom() string {
	return fmt.Sprintf("%d", uuid.New().ID())
}

type PostgresDBCloneFunc func(t *testing.T, name string) (database.Database, error)

// NewTestPostgres creates a new Postgres container with a template database that
// has the catalog migrations applied. A reference to the container is returned as well as
// a function to create test databases from the template. All "clone" databases
// are automatically dropped when the test ends using t.Cleanup() hooks.
func NewTestPostgres(ctx context.Context) (*postgres.PostgresContainer, PostgresDBCloneFunc, error) {
	// Start a Postgres container without any init scripts
	container, err := postgres.Run(
		ctx,
		"postgres:17",
		postgres.WithUsername("gotest"),
		postgres.WithPassword("gotest"),
		postgres.WithDatabase("gotestdb"),
		postgres.BasicWaitStrategies(),
		// Store the database in-memory for faster tests
		testcontainers.WithTmpfs(map[string]string{"/var/lib/postgresql/data": "rw"}),
		testcontainers.WithEnv(map[string]string{"PGDATA": "/var/lib/postgresql/data"}),
		testcontainers.WithLogger(NewTestcontainersLogger()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres container: %w", err)
	}

	// Get connection string
	uri, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, fmt.Errorf("read connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, nil, fmt.Errorf("create pgx pool: %w", err)
	}

	db := pgtimePostgres.NewFromConnection(pool)
	m := migrator.New(db)
	if _, err := m.Up(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	// clones open their own pools
	if err := db.Close(); err != nil {
		return nil, nil, fmt.Errorf("close migration pool: %w", err)
	}

	// Mark the database as a template
	conn, err := pgx.Connect(ctx, uri)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to template database: %w", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "ALTER DATABASE gotestdb WITH is_template = true;")
	if err != nil {
		return nil, nil, fmt.Errorf("mark template database: %w", err)
	}

	return container, newPostgresCloneFunc(container), nil
}

func newPostgresCloneFunc(container *postgres.PostgresContainer) PostgresDBCloneFunc {
	return func(t *testing.T, name string) (database.Database, error) {
		t.Helper()
		ctx := t.Context()
		uri, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			return nil, fmt.Errorf("read connection string: %w", err)
		}

		pgCloneMutex.Lock()
		defer pgCloneMutex.Unlock()

		conn, err := pgx.Connect(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("connect to template database: %w", err)
		}
		defer conn.Close(ctx)

		clonename := fmt.Sprintf("%s_%s", name, nextRandom())
		_, err = conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s WITH TEMPLATE gotestdb;", clonename))
		if err != nil {
			return nil, fmt.Errorf("create test database: %w", err)
		}

		cloneuri := strings.Replace(uri, "gotestdb", clonename, 1)
		pool, err := pgxpool.New(ctx, cloneuri)
		if err != nil {
			return nil, fmt.Errorf("create pgx pool: %w", err)
		}
		db := pgtimePostgres.NewFromConnection(pool)

		t.Cleanup(func() {
			timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(t.Context()), 60*time.Second)
			defer cancel()

			_ = db.Close()

			cleanupConn, err2 := pgx.Connect(timeoutCtx, uri)
			if err2 != nil {
				panic(fmt.Errorf("drop test database: connect: %w", err2))
			}
			defer cleanupConn.Close(timeoutCtx)

			_, err2 = cleanupConn.Exec(timeoutCtx, fmt.Sprintf("DROP DATABASE %s;", clonename))
			if err2 != nil {
				panic(fmt.Errorf("drop test database: exec: %w", err2))
			}
		})

		return db, nil
	}
}

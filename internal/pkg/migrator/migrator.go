package migrator

import (
	"embed"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/frain-dev/pgtime/database"
)

//go:embed sql/*.sql
var migrations embed.FS

const migrationsTable = "pgtime_migrations"

func init() {
	migrate.SetTable(migrationsTable)
}

type Migrator struct {
	dbx *sqlx.DB
	src migrate.MigrationSource
}

func New(d database.Database) *Migrator {
	src := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       "sql",
	}
	return &Migrator{dbx: d.GetDB(), src: src}
}

// Up applies every pending migration and returns how many ran.
func (m *Migrator) Up() (int, error) {
	return migrate.Exec(m.dbx.DB, "postgres", m.src, migrate.Up)
}

// Down rolls back the most recent migration.
func (m *Migrator) Down() (int, error) {
	return migrate.ExecMax(m.dbx.DB, "postgres", m.src, migrate.Down, 1)
}

// Pending lists the migrations that Up would apply.
func (m *Migrator) Pending() ([]string, error) {
	planned, _, err := migrate.PlanMigration(m.dbx.DB, "postgres", m.src, migrate.Up, 0)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(planned))
	for _, p := range planned {
		ids = append(ids, p.Id)
	}
	return ids, nil
}

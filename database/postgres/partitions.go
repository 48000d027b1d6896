package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/frain-dev/pgtime/config"
	"github.com/frain-dev/pgtime/database"
	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/pkg/log"
)

const boundLayout = "2006-01-02 15:04:05+00"

const (
	// toastable columns are the only ones a compression method applies to.
	fetchToastableColumns = `
	SELECT a.attname
	FROM pg_attribute a
	WHERE a.attrelid = $1::regclass
	AND a.attnum > 0
	AND NOT a.attisdropped
	AND a.attstorage IN ('x', 'm', 'e')
	ORDER BY a.attnum;
	`

	// a partition with no toastable column left on another method is compressed.
	fetchIsCompressed = `
	SELECT NOT EXISTS (
		SELECT 1 FROM pg_attribute a
		WHERE a.attrelid = $1::regclass
		AND a.attnum > 0
		AND NOT a.attisdropped
		AND a.attstorage IN ('x', 'm', 'e')
		AND a.attcompression::text IS DISTINCT FROM $2
	);
	`

	fetchPartitionExists = `SELECT to_regclass($1) IS NOT NULL;`

	fetchIsAttached = `
	SELECT EXISTS (
		SELECT 1 FROM pg_inherits
		WHERE inhrelid = to_regclass($1)
		AND inhparent = to_regclass($2)
	);
	`

	fetchPartitions = `
	SELECT c.relname,
	EXISTS (
		SELECT 1 FROM pg_inherits i
		WHERE i.inhrelid = c.oid AND i.inhparent = to_regclass($3)
	) AS attached,
	NOT EXISTS (
		SELECT 1 FROM pg_attribute a
		WHERE a.attrelid = c.oid
		AND a.attnum > 0
		AND NOT a.attisdropped
		AND a.attstorage IN ('x', 'm', 'e')
		AND a.attcompression::text IS DISTINCT FROM $4
	) AS compressed
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1
	AND c.relkind IN ('r', 'p')
	AND c.relname LIKE $2 ESCAPE '\'
	ORDER BY c.relname;
	`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type partitionEngine struct {
	q      querier
	method config.CompressionMethod
}

// NewPartitionEngine returns an engine that runs every statement in autocommit mode.
func NewPartitionEngine(db database.Database, method config.CompressionMethod) datastore.PartitionEngine {
	return &partitionEngine{q: db.GetConn(), method: method}
}

type partitionTransactor struct {
	db     database.Database
	method config.CompressionMethod
	logger log.StdLogger
}

func NewPartitionTransactor(db database.Database, method config.CompressionMethod, logger log.StdLogger) datastore.PartitionTransactor {
	return &partitionTransactor{db: db, method: method, logger: logger}
}

// InTx runs fn in a single transaction that is committed only if fn returns nil.
func (p *partitionTransactor) InTx(ctx context.Context, fn func(datastore.PartitionEngine) error) error {
	tx, err := p.db.GetConn().Begin(ctx)
	if err != nil {
		p.logger.WithError(err).Error("failed to start transaction")
		return err
	}
	defer func() {
		// context.WithoutCancel so a rollback still runs after a timeout
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(&partitionEngine{q: tx, method: p.method}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		p.logger.WithError(err).Error("failed to commit transaction")
		return err
	}

	return nil
}

func (e *partitionEngine) Savepoint(ctx context.Context, fn func(datastore.PartitionEngine) error) error {
	return pgx.BeginFunc(ctx, e.q, func(tx pgx.Tx) error {
		return fn(&partitionEngine{q: tx, method: e.method})
	})
}

func (e *partitionEngine) ListPartitions(ctx context.Context, policy datastore.TablePolicy) ([]datastore.PartitionWindow, error) {
	schema, table := datastore.SplitTableID(policy.TableID)

	rows, err := e.q.Query(ctx, fetchPartitions,
		schema,
		likePrefix(table+"_p"),
		parentName(policy.TableID),
		e.methodCode(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []datastore.PartitionWindow
	for rows.Next() {
		var (
			relname              string
			attached, compressed bool
		)

		if err := rows.Scan(&relname, &attached, &compressed); err != nil {
			return nil, err
		}

		w, ok := datastore.ParseWindowName(policy.TableID, relname, policy.PartitionInterval)
		if !ok {
			continue
		}

		switch {
		case !attached:
			w.State = datastore.DetachedWindow
		case compressed && policy.HasCompression():
			w.State = datastore.CompressedWindow
		default:
			w.State = datastore.PresentWindow
		}

		windows = append(windows, w)
	}

	return windows, rows.Err()
}

func (e *partitionEngine) CreatePartition(ctx context.Context, w datastore.PartitionWindow) error {
	_, err := e.q.Exec(ctx, createPartitionSQL(w))
	return err
}

func (e *partitionEngine) PartitionExists(ctx context.Context, w datastore.PartitionWindow) (bool, error) {
	var exists bool
	err := e.q.QueryRow(ctx, fetchPartitionExists, partitionName(w)).Scan(&exists)
	return exists, err
}

func (e *partitionEngine) IsAttached(ctx context.Context, w datastore.PartitionWindow) (bool, error) {
	var attached bool
	err := e.q.QueryRow(ctx, fetchIsAttached, partitionName(w), parentName(w.TableID)).Scan(&attached)
	return attached, err
}

func (e *partitionEngine) DetachPartition(ctx context.Context, w datastore.PartitionWindow) error {
	_, err := e.q.Exec(ctx, detachPartitionSQL(w))
	return err
}

func (e *partitionEngine) DropPartition(ctx context.Context, w datastore.PartitionWindow) error {
	_, err := e.q.Exec(ctx, dropPartitionSQL(w))
	return err
}

// SetCompression switches every toastable column of the partition to the
// configured method. Postgres applies it to values written afterwards only;
// existing TOASTed data keeps its method until the partition is rewritten.
func (e *partitionEngine) SetCompression(ctx context.Context, w datastore.PartitionWindow) error {
	rows, err := e.q.Query(ctx, fetchToastableColumns, partitionName(w))
	if err != nil {
		return err
	}

	columns, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return err
	}

	if len(columns) == 0 {
		return nil
	}

	_, err = e.q.Exec(ctx, setCompressionSQL(w, columns, e.method))
	return err
}

func (e *partitionEngine) IsCompressed(ctx context.Context, w datastore.PartitionWindow) (bool, error) {
	var compressed bool
	err := e.q.QueryRow(ctx, fetchIsCompressed, partitionName(w), e.methodCode()).Scan(&compressed)
	return compressed, err
}

// methodCode is the pg_attribute.attcompression value of the configured method.
func (e *partitionEngine) methodCode() string {
	switch e.method {
	case config.PGLZCompression:
		return "p"
	default:
		return "l"
	}
}

func parentName(tableID string) string {
	schema, table := datastore.SplitTableID(tableID)
	return pgx.Identifier{schema, table}.Sanitize()
}

func partitionName(w datastore.PartitionWindow) string {
	schema, _ := datastore.SplitTableID(w.TableID)
	return pgx.Identifier{schema, w.Name()}.Sanitize()
}

func boundLiteral(t time.Time) string {
	return "'" + t.UTC().Format(boundLayout) + "'"
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func createPartitionSQL(w datastore.PartitionWindow) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES FROM (%s) TO (%s)",
		partitionName(w), parentName(w.TableID), boundLiteral(w.Start), boundLiteral(w.End))
}

func detachPartitionSQL(w datastore.PartitionWindow) string {
	return fmt.Sprintf("ALTER TABLE %s DETACH PARTITION %s", parentName(w.TableID), partitionName(w))
}

func dropPartitionSQL(w datastore.PartitionWindow) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", partitionName(w))
}

func setCompressionSQL(w datastore.PartitionWindow, columns []string, method config.CompressionMethod) string {
	actions := make([]string, 0, len(columns))
	for _, c := range columns {
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET COMPRESSION %s", pgx.Identifier{c}.Sanitize(), method))
	}

	return fmt.Sprintf("ALTER TABLE %s %s", partitionName(w), strings.Join(actions, ", "))
}

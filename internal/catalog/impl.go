package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"gopkg.in/guregu/null.v4"

	"github.com/frain-dev/pgtime/database"
	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/pkg/log"
	"github.com/frain-dev/pgtime/pkg/partition"
)

const uniqueViolation = "23505"

const (
	fetchPolicies = `
	SELECT table_id, time_column, partition_interval, retention_interval,
	compression_interval, last_run_at, created_at
	FROM pgtime.tables
	ORDER BY table_id;
	`

	fetchPolicyByID = `
	SELECT table_id, time_column, partition_interval, retention_interval,
	compression_interval, last_run_at, created_at
	FROM pgtime.tables
	WHERE table_id = $1;
	`

	fetchPartitionKey = `
	SELECT pt.partstrat::text, pt.partnatts, a.attname
	FROM pg_partitioned_table pt
	JOIN pg_attribute a ON a.attrelid = pt.partrelid AND a.attnum = pt.partattrs[0]
	WHERE pt.partrelid = to_regclass($1);
	`

	createPolicy = `
	INSERT INTO pgtime.tables (table_id, time_column, partition_interval, retention_interval, compression_interval)
	VALUES (:table_id, :time_column, :partition_interval, :retention_interval, :compression_interval);
	`

	deletePolicy = `DELETE FROM pgtime.tables WHERE table_id = $1;`

	updateLastRun = `UPDATE pgtime.tables SET last_run_at = $2 WHERE table_id = $1;`
)

// Service reads and writes table registrations.
type Service struct {
	logger log.StdLogger
	db     database.Database
}

// Ensure Service implements datastore.CatalogRepository at compile time
var _ datastore.CatalogRepository = (*Service)(nil)

func New(logger log.StdLogger, db database.Database) *Service {
	return &Service{logger: logger, db: db}
}

type policyRow struct {
	TableID             string
	TimeColumn          string
	PartitionInterval   pgtype.Interval
	RetentionInterval   pgtype.Interval
	CompressionInterval pgtype.Interval
	LastRunAt           pgtype.Timestamptz
	CreatedAt           time.Time
}

func (r *policyRow) scanTargets() []any {
	return []any{
		&r.TableID, &r.TimeColumn, &r.PartitionInterval, &r.RetentionInterval,
		&r.CompressionInterval, &r.LastRunAt, &r.CreatedAt,
	}
}

func (r *policyRow) toPolicy() (datastore.TablePolicy, error) {
	p := datastore.TablePolicy{
		TableID:    r.TableID,
		TimeColumn: r.TimeColumn,
		LastRunAt:  null.NewTime(r.LastRunAt.Time, r.LastRunAt.Valid),
		CreatedAt:  r.CreatedAt,
	}

	var err error
	if p.PartitionInterval, err = partition.FromPgInterval(r.PartitionInterval); err != nil {
		return p, fmt.Errorf("partition_interval: %w", err)
	}

	if p.RetentionInterval, err = partition.FromPgInterval(r.RetentionInterval); err != nil {
		return p, fmt.Errorf("retention_interval: %w", err)
	}

	if p.CompressionInterval, err = partition.FromPgInterval(r.CompressionInterval); err != nil {
		return p, fmt.Errorf("compression_interval: %w", err)
	}

	return p, p.Validate()
}

// registration is the named parameter set of createPolicy.
type registration struct {
	TableID             string          `db:"table_id"`
	TimeColumn          string          `db:"time_column"`
	PartitionInterval   pgtype.Interval `db:"partition_interval"`
	RetentionInterval   pgtype.Interval `db:"retention_interval"`
	CompressionInterval pgtype.Interval `db:"compression_interval"`
}

func newRegistration(p *datastore.TablePolicy) registration {
	return registration{
		TableID:             p.TableID,
		TimeColumn:          p.TimeColumn,
		PartitionInterval:   partition.ToPgInterval(p.PartitionInterval),
		RetentionInterval:   partition.ToPgInterval(p.RetentionInterval),
		CompressionInterval: partition.ToPgInterval(p.CompressionInterval),
	}
}

// QualifiedTableID normalises a table id to schema.table.
func QualifiedTableID(id string) string {
	schema, table := datastore.SplitTableID(id)
	return schema + "." + table
}

// LoadPolicies returns every registered policy in table id order. Rows that
// no longer form a valid policy are logged and skipped.
func (s *Service) LoadPolicies(ctx context.Context) ([]datastore.TablePolicy, error) {
	rows, err := s.db.GetConn().Query(ctx, fetchPolicies)
	if err != nil {
		s.logger.WithError(err).Error("failed to load table policies")
		return nil, err
	}
	defer rows.Close()

	policies := make([]datastore.TablePolicy, 0)
	for rows.Next() {
		var r policyRow
		if err = rows.Scan(r.scanTargets()...); err != nil {
			return nil, err
		}

		p, err := r.toPolicy()
		if err != nil {
			s.logger.WithFields(log.Fields{log.TableField: r.TableID}).WithError(err).Warn("skipping invalid table policy")
			continue
		}

		policies = append(policies, p)
	}

	return policies, rows.Err()
}

func (s *Service) FindPolicy(ctx context.Context, tableID string) (*datastore.TablePolicy, error) {
	var r policyRow
	err := s.db.GetConn().QueryRow(ctx, fetchPolicyByID, QualifiedTableID(tableID)).Scan(r.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, datastore.ErrPolicyNotFound
		}
		return nil, err
	}

	p, err := r.toPolicy()
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// RegisterTable validates the policy against the parent table and records it.
func (s *Service) RegisterTable(ctx context.Context, policy *datastore.TablePolicy) error {
	if policy == nil {
		return fmt.Errorf("%w: policy cannot be nil", datastore.ErrInvalidPolicy)
	}

	policy.TableID = QualifiedTableID(policy.TableID)
	if err := policy.Validate(); err != nil {
		return err
	}

	if err := s.checkPartitionKey(ctx, policy); err != nil {
		return err
	}

	_, err := s.db.GetDB().NamedExecContext(ctx, createPolicy, newRegistration(policy))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return datastore.ErrPolicyExists
		}
		s.logger.WithError(err).Error("failed to register table")
		return err
	}

	return nil
}

// checkPartitionKey requires the parent to be range partitioned on exactly the policy's time column.
func (s *Service) checkPartitionKey(ctx context.Context, policy *datastore.TablePolicy) error {
	var (
		strategy string
		natts    int16
		column   string
	)

	parent := pgx.Identifier{policy.Schema(), policy.Table()}.Sanitize()
	err := s.db.GetConn().QueryRow(ctx, fetchPartitionKey, parent).Scan(&strategy, &natts, &column)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s is not a partitioned table", datastore.ErrInvalidPolicy, policy.TableID)
		}
		return err
	}

	if strategy != "r" || natts != 1 {
		return fmt.Errorf("%w: %s must be partitioned by range on a single column", datastore.ErrInvalidPolicy, policy.TableID)
	}

	if column != policy.TimeColumn {
		return fmt.Errorf("%w: %s is partitioned on %q, not %q", datastore.ErrInvalidPolicy, policy.TableID, column, policy.TimeColumn)
	}

	return nil
}

func (s *Service) DeregisterTable(ctx context.Context, tableID string) error {
	tag, err := s.db.GetConn().Exec(ctx, deletePolicy, QualifiedTableID(tableID))
	if err != nil {
		return err
	}

	if tag.RowsAffected() < 1 {
		return datastore.ErrPolicyNotFound
	}

	return nil
}

func (s *Service) MarkLastRun(ctx context.Context, tableID string, at time.Time) error {
	tag, err := s.db.GetConn().Exec(ctx, updateLastRun, QualifiedTableID(tableID), at)
	if err != nil {
		return err
	}

	if tag.RowsAffected() < 1 {
		return datastore.ErrPolicyNotFound
	}

	return nil
}

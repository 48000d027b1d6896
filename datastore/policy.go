package datastore

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

// maxIdentifierLength is postgres' NAMEDATALEN - 1.
const maxIdentifierLength = 63

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// TablePolicy describes how a single time partitioned table is maintained.
// A zero RetentionInterval means partitions never expire and a zero
// CompressionInterval means partitions are never compressed.
type TablePolicy struct {
	TableID             string        `json:"table_id" db:"table_id"`
	TimeColumn          string        `json:"time_column" db:"time_column"`
	PartitionInterval   time.Duration `json:"partition_interval" db:"partition_interval"`
	RetentionInterval   time.Duration `json:"retention_interval,omitempty" db:"retention_interval"`
	CompressionInterval time.Duration `json:"compression_interval,omitempty" db:"compression_interval"`
	LastRunAt           null.Time     `json:"last_run_at" db:"last_run_at"`
	CreatedAt           time.Time     `json:"created_at,omitempty" db:"created_at"`
}

func (p *TablePolicy) HasRetention() bool {
	return p.RetentionInterval > 0
}

func (p *TablePolicy) HasCompression() bool {
	return p.CompressionInterval > 0
}

// Schema returns the schema part of the table id, defaulting to public.
func (p *TablePolicy) Schema() string {
	schema, _ := SplitTableID(p.TableID)
	return schema
}

// Table returns the unqualified parent table name.
func (p *TablePolicy) Table() string {
	_, table := SplitTableID(p.TableID)
	return table
}

// Validate rejects policies the lifecycle engine cannot plan for.
func (p *TablePolicy) Validate() error {
	schema, table := SplitTableID(p.TableID)
	if !identifierPattern.MatchString(schema) || !identifierPattern.MatchString(table) {
		return fmt.Errorf("%w: table id %q must be a lower case [schema.]table identifier", ErrInvalidPolicy, p.TableID)
	}

	if len(table)+len(windowNameSuffix) > maxIdentifierLength {
		return fmt.Errorf("%w: table name %q is too long to derive partition names", ErrInvalidPolicy, table)
	}

	if !identifierPattern.MatchString(p.TimeColumn) {
		return fmt.Errorf("%w: time column %q is not a valid identifier", ErrInvalidPolicy, p.TimeColumn)
	}

	if p.PartitionInterval <= 0 {
		return fmt.Errorf("%w: partition interval must be positive", ErrInvalidPolicy)
	}

	if p.PartitionInterval%time.Second != 0 {
		return fmt.Errorf("%w: partition interval must be a whole number of seconds", ErrInvalidPolicy)
	}

	if p.RetentionInterval < 0 {
		return fmt.Errorf("%w: retention interval must be positive", ErrInvalidPolicy)
	}

	if p.CompressionInterval < 0 {
		return fmt.Errorf("%w: compression interval must be positive", ErrInvalidPolicy)
	}

	if p.HasCompression() && p.HasRetention() && p.CompressionInterval > p.RetentionInterval {
		return fmt.Errorf("%w: compression interval %s exceeds retention interval %s",
			ErrInvalidPolicy, p.CompressionInterval, p.RetentionInterval)
	}

	return nil
}

// SplitTableID splits "schema.table" into its parts. Unqualified ids live in public.
func SplitTableID(id string) (schema, table string) {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i], id[i+1:]
	}
	return "public", id
}

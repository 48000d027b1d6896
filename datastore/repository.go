package datastore

import (
	"context"
	"time"
)

//go:generate mockgen --source repository.go --destination ../mocks/repository.go -package mocks

type CatalogRepository interface {
	LoadPolicies(ctx context.Context) ([]TablePolicy, error)
	FindPolicy(ctx context.Context, tableID string) (*TablePolicy, error)
	RegisterTable(ctx context.Context, policy *TablePolicy) error
	DeregisterTable(ctx context.Context, tableID string) error
	MarkLastRun(ctx context.Context, tableID string, at time.Time) error
}

// PartitionEngine is the set of partition operations the maintenance daemon
// needs from the data engine. Implementations are bound to a transaction.
type PartitionEngine interface {
	ListPartitions(ctx context.Context, policy TablePolicy) ([]PartitionWindow, error)
	CreatePartition(ctx context.Context, window PartitionWindow) error
	PartitionExists(ctx context.Context, window PartitionWindow) (bool, error)
	IsAttached(ctx context.Context, window PartitionWindow) (bool, error)
	DetachPartition(ctx context.Context, window PartitionWindow) error
	DropPartition(ctx context.Context, window PartitionWindow) error
	SetCompression(ctx context.Context, window PartitionWindow) error
	IsCompressed(ctx context.Context, window PartitionWindow) (bool, error)

	// Savepoint runs fn in a nested transaction. An error returned by fn rolls
	// back to the savepoint and leaves the enclosing transaction usable.
	Savepoint(ctx context.Context, fn func(PartitionEngine) error) error
}

// PartitionTransactor opens the transaction a table's maintenance runs in.
type PartitionTransactor interface {
	InTx(ctx context.Context, fn func(PartitionEngine) error) error
}

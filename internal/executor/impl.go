package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/pkg/log"
)

const DefaultOperationTimeout = 30 * time.Second

type Options struct {
	// OperationTimeout bounds every single data engine call.
	OperationTimeout time.Duration
	// DryRun logs plans without executing them.
	DryRun bool
}

// Service applies partition plans, one transaction per table.
type Service struct {
	logger log.StdLogger
	tx     datastore.PartitionTransactor
	opts   Options
}

func New(logger log.StdLogger, tx datastore.PartitionTransactor, opts Options) *Service {
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = DefaultOperationTimeout
	}

	return &Service{logger: logger, tx: tx, opts: opts}
}

func (s *Service) Options() Options {
	return s.opts
}

// Observe lists the partitions that currently exist for the policy's table.
func (s *Service) Observe(ctx context.Context, policy datastore.TablePolicy) ([]datastore.PartitionWindow, error) {
	var windows []datastore.PartitionWindow
	err := s.tx.InTx(ctx, func(e datastore.PartitionEngine) error {
		var err error
		windows, err = timed(ctx, s.opts.OperationTimeout, func(ctx context.Context) ([]datastore.PartitionWindow, error) {
			return e.ListPartitions(ctx, policy)
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("observe partitions of %s: %w", policy.TableID, err)
	}

	return windows, nil
}

// Apply executes plan against the policy's table. Any failure other than a
// failed drop rolls the table's transaction back and is reported on the
// outcome with its lists cleared.
func (s *Service) Apply(ctx context.Context, policy datastore.TablePolicy, plan datastore.Plan) datastore.MaintenanceOutcome {
	start := time.Now()
	out := datastore.MaintenanceOutcome{TableID: policy.TableID}

	if plan.IsEmpty() {
		return finish(out, start)
	}

	lo := s.logger.WithFields(log.Fields{log.TableField: policy.TableID})

	if s.opts.DryRun {
		for _, w := range plan.ToCreate {
			lo.WithField("partition", w.Name()).Info("dry run: would create partition")
		}
		for _, w := range plan.ToRetire {
			lo.WithField("partition", w.Name()).Info("dry run: would retire partition")
		}
		for _, w := range plan.ToCompress {
			lo.WithField("partition", w.Name()).Info("dry run: would compress partition")
		}
		return finish(out, start)
	}

	err := s.tx.InTx(ctx, func(e datastore.PartitionEngine) error {
		for _, w := range plan.ToCreate {
			created, err := s.create(ctx, e, w)
			if err != nil {
				return fmt.Errorf("create partition %s: %w", w.Name(), err)
			}
			if created {
				out.Created = append(out.Created, w)
			}
		}

		for _, w := range plan.ToRetire {
			result, err := s.retire(ctx, e, w)
			if err != nil {
				return fmt.Errorf("retire partition %s: %w", w.Name(), err)
			}

			switch result {
			case retired:
				out.Dropped = append(out.Dropped, w)
			case detachedOnly:
				out.Detached = append(out.Detached, w)
			}
		}

		for _, w := range plan.ToCompress {
			compressed, err := s.compress(ctx, e, w)
			if err != nil {
				return fmt.Errorf("compress partition %s: %w", w.Name(), err)
			}
			if compressed {
				out.Compressed = append(out.Compressed, w)
			}
		}

		return nil
	})

	switch {
	case err != nil:
		out.Created, out.Dropped, out.Compressed, out.Detached = nil, nil, nil, nil
		out.Error = err
		lo.WithError(err).Error("table maintenance rolled back")
	case len(out.Detached) > 0:
		names := make([]string, 0, len(out.Detached))
		for _, w := range out.Detached {
			names = append(names, w.Name())
		}
		out.Error = fmt.Errorf("%w: %s", datastore.ErrPartialRetire, strings.Join(names, ", "))
		lo.WithError(out.Error).Warn("table maintenance partially applied")
	default:
		lo.WithFields(log.Fields{
			"created":    len(out.Created),
			"dropped":    len(out.Dropped),
			"compressed": len(out.Compressed),
		}).Info("table maintenance applied")
	}

	return finish(out, start)
}

func finish(out datastore.MaintenanceOutcome, start time.Time) datastore.MaintenanceOutcome {
	out.Duration = time.Since(start)
	return out
}

func (s *Service) create(ctx context.Context, e datastore.PartitionEngine, w datastore.PartitionWindow) (bool, error) {
	exists, err := timed(ctx, s.opts.OperationTimeout, func(ctx context.Context) (bool, error) {
		return e.PartitionExists(ctx, w)
	})
	if err != nil {
		return false, err
	}

	if exists {
		return false, nil
	}

	err = timedErr(ctx, s.opts.OperationTimeout, func(ctx context.Context) error {
		return e.CreatePartition(ctx, w)
	})
	return err == nil, err
}

type retireResult int

const (
	missing retireResult = iota
	retired
	detachedOnly
)

func (s *Service) retire(ctx context.Context, e datastore.PartitionEngine, w datastore.PartitionWindow) (retireResult, error) {
	exists, err := timed(ctx, s.opts.OperationTimeout, func(ctx context.Context) (bool, error) {
		return e.PartitionExists(ctx, w)
	})
	if err != nil {
		return missing, err
	}

	if !exists {
		return missing, nil
	}

	attached, err := timed(ctx, s.opts.OperationTimeout, func(ctx context.Context) (bool, error) {
		return e.IsAttached(ctx, w)
	})
	if err != nil {
		return missing, err
	}

	if attached {
		err = timedErr(ctx, s.opts.OperationTimeout, func(ctx context.Context) error {
			return e.DetachPartition(ctx, w)
		})
		if err != nil {
			return missing, fmt.Errorf("detach: %w", err)
		}
	}

	err = e.Savepoint(ctx, func(sp datastore.PartitionEngine) error {
		return timedErr(ctx, s.opts.OperationTimeout, func(ctx context.Context) error {
			return sp.DropPartition(ctx, w)
		})
	})
	if err != nil {
		s.logger.WithFields(log.Fields{log.TableField: w.TableID, "partition": w.Name()}).
			WithError(err).Warn("failed to drop detached partition")
		return detachedOnly, nil
	}

	return retired, nil
}

func (s *Service) compress(ctx context.Context, e datastore.PartitionEngine, w datastore.PartitionWindow) (bool, error) {
	compressed, err := timed(ctx, s.opts.OperationTimeout, func(ctx context.Context) (bool, error) {
		return e.IsCompressed(ctx, w)
	})
	if err != nil {
		return false, err
	}

	if compressed {
		return false, nil
	}

	err = timedErr(ctx, s.opts.OperationTimeout, func(ctx context.Context) error {
		return e.SetCompression(ctx, w)
	})
	return err == nil, err
}

func timed[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	v, err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return v, fmt.Errorf("%w after %s: %v", datastore.ErrOperationTimeout, d, err)
	}

	return v, err
}

func timedErr(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	_, err := timed(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

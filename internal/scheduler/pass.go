package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/pkg/log"
	"github.com/frain-dev/pgtime/pkg/partition"
)

type job struct {
	index   int
	policy  datastore.TablePolicy
	planner partition.Planner
}

// runPass sweeps the catalog once. Tables run on a context that is detached
// from ctx so that a shutdown lets in-flight tables finish; no table starts
// once shutdown or host loss has been observed.
func (s *Scheduler) runPass(ctx context.Context) (*datastore.PassReport, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("pass lock not acquired, skipping pass")
			return nil, nil
		}
		defer release()
	}

	s.setState(Running)

	s.mu.RLock()
	backend := s.backend
	workers := s.settings.Workers
	s.mu.RUnlock()

	now := s.clock.Now()
	report := &datastore.PassReport{ID: ulid.Make(), StartedAt: now}
	workCtx := context.WithoutCancel(ctx)

	lo := s.logger.WithFields(log.Fields{log.PassField: report.ID.String()})
	passCtx := log.NewContext(workCtx, s.logger, log.Fields{log.PassField: report.ID.String()})

	policies, err := backend.Catalog.LoadPolicies(passCtx)
	if err != nil {
		lo.WithError(err).Error("failed to load table policies")
	}

	outcomes := make([]*datastore.MaintenanceOutcome, len(policies))
	jobs := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if s.isHostLost() || ctx.Err() != nil {
					continue
				}
				o := s.maintain(passCtx, backend, j.planner, j.policy, now)
				outcomes[j.index] = &o
			}
		}()
	}

dispatch:
	for i, p := range policies {
		if s.isHostLost() || ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		select {
		case <-s.reloadCh:
			s.doReload(ctx, true)
		default:
		}

		s.mu.RLock()
		planner := s.planner
		s.mu.RUnlock()

		select {
		case jobs <- job{index: i, policy: p, planner: planner}:
		case <-ctx.Done():
			report.Interrupted = true
			break dispatch
		case <-s.hostLost:
			report.Interrupted = true
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	for _, o := range outcomes {
		if o != nil {
			report.Outcomes = append(report.Outcomes, *o)
		}
	}
	if len(report.Outcomes) < len(policies) {
		report.Interrupted = true
	}
	report.FinishedAt = s.clock.Now()

	s.mu.Lock()
	s.lastReport = report
	if s.pendingBackend != nil {
		s.swapBackendLocked(*s.pendingBackend)
	}
	s.mu.Unlock()

	s.metrics.RecordPass(report)
	lo.WithFields(log.Fields{
		"tables":      len(report.Outcomes),
		"failures":    report.Failures(),
		"interrupted": report.Interrupted,
	}).Info("maintenance pass finished")

	if s.isHostLost() {
		return report, ErrHostUnavailable
	}

	return report, nil
}

// maintain runs observe, plan and apply for one table. Every failure is
// confined to the table's outcome.
func (s *Scheduler) maintain(ctx context.Context, backend Backend, planner partition.Planner, policy datastore.TablePolicy, now time.Time) (out datastore.MaintenanceOutcome) {
	lo := log.FromContext(ctx).WithFields(log.Fields{log.TableField: policy.TableID})

	defer func() {
		if r := recover(); r != nil {
			out = datastore.MaintenanceOutcome{TableID: policy.TableID, Error: fmt.Errorf("table maintenance panicked: %v", r)}
			lo.WithError(out.Error).Error("table maintenance failed")
		}
		s.metrics.RecordOutcome(out)
	}()

	observed, err := backend.Gateway.Observe(ctx, policy)
	if err != nil {
		lo.WithError(err).Error("failed to observe partitions")
		return datastore.MaintenanceOutcome{TableID: policy.TableID, Error: err}
	}

	plan := planner.Plan(policy, now, observed)
	out = backend.Gateway.Apply(ctx, policy, plan)
	if out.Failed() {
		if !errors.Is(out.Error, datastore.ErrPartialRetire) {
			lo.WithError(out.Error).Error("table maintenance failed")
		}
		return out
	}

	if err := backend.Catalog.MarkLastRun(ctx, policy.TableID, now); err != nil {
		lo.WithError(err).Warn("failed to record last run")
	}

	return out
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	partman "github.com/jirevwe/go_partman"

	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/internal/pkg/metrics"
	"github.com/frain-dev/pgtime/pkg/log"
	"github.com/frain-dev/pgtime/pkg/partition"
)

// ErrHostUnavailable is returned by Run when the database host is lost.
var ErrHostUnavailable = errors.New("database host unavailable")

const DefaultInterval = 5 * time.Minute

type Clock interface {
	Now() time.Time
}

// Gateway observes and applies plans against one table at a time.
type Gateway interface {
	Observe(ctx context.Context, policy datastore.TablePolicy) ([]datastore.PartitionWindow, error)
	Apply(ctx context.Context, policy datastore.TablePolicy, plan datastore.Plan) datastore.MaintenanceOutcome
}

// Backend is the catalog and gateway bound to one connection target.
type Backend struct {
	Catalog datastore.CatalogRepository
	Gateway Gateway

	// Close, if set, is called once the backend has been replaced by a reload.
	Close func() error
}

type Settings struct {
	Interval  time.Duration
	Lookahead uint
	Epoch     time.Time
	Workers   int

	// Backend replaces the current backend when non-nil.
	Backend *Backend
}

func (s Settings) withDefaults() Settings {
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}

	if s.Workers < 1 {
		s.Workers = 1
	}

	return s
}

// ReloadFunc re-reads the configuration.
type ReloadFunc func(ctx context.Context) (Settings, error)

// Locker guards a pass so that concurrent daemons never run overlapping passes.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func WithLocker(l Locker) Option {
	return func(s *Scheduler) {
		s.locker = l
	}
}

func WithReloadFunc(fn ReloadFunc) Option {
	return func(s *Scheduler) {
		s.reload = fn
	}
}

type Scheduler struct {
	logger  log.StdLogger
	clock   Clock
	metrics *metrics.Metrics
	locker  Locker
	reload  ReloadFunc

	mu             sync.RWMutex
	settings       Settings
	planner        partition.Planner
	backend        Backend
	pendingBackend *Backend
	lastReport     *datastore.PassReport

	stateMu  sync.Mutex
	state    atomic.Int32
	wakeCh   chan struct{}
	reloadCh chan struct{}
	hostLost chan struct{}
	hostOnce sync.Once
}

func New(logger log.StdLogger, backend Backend, settings Settings, opts ...Option) *Scheduler {
	settings = settings.withDefaults()
	settings.Backend = nil

	s := &Scheduler{
		logger:   logger,
		clock:    partman.NewRealClock(),
		metrics:  metrics.InitMetrics(false),
		backend:  backend,
		settings: settings,
		planner:  newPlanner(settings),
		wakeCh:   make(chan struct{}, 1),
		reloadCh: make(chan struct{}, 1),
		hostLost: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func newPlanner(s Settings) partition.Planner {
	return partition.NewEngine(partition.Options{Lookahead: s.Lookahead, Epoch: s.Epoch})
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) setState(st State) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state.Store(int32(st))
	s.metrics.SetSchedulerState(int(st))
}

// drain marks a running pass as finishing its current table.
func (s *Scheduler) drain() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if State(s.state.Load()) == Running {
		s.state.Store(int32(Draining))
		s.metrics.SetSchedulerState(int(Draining))
	}
}

// Settings returns the settings currently in effect.
func (s *Scheduler) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// LastReport returns the report of the most recent pass, or nil.
func (s *Scheduler) LastReport() *datastore.PassReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// Wake starts a pass as soon as the scheduler is idle.
func (s *Scheduler) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Reload asks the scheduler to re-read its settings at the next table or pass boundary.
func (s *Scheduler) Reload() {
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

// HostLost stops the scheduler without starting any further table.
func (s *Scheduler) HostLost() {
	s.hostOnce.Do(func() {
		close(s.hostLost)
	})
}

func (s *Scheduler) isHostLost() bool {
	select {
	case <-s.hostLost:
		return true
	default:
		return false
	}
}

// Run drives passes until ctx is cancelled, which returns nil, or the host
// is lost, which returns ErrHostUnavailable.
func (s *Scheduler) Run(ctx context.Context) error {
	s.setState(Idle)

	timer := time.NewTimer(s.Settings().Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setState(Draining)
			s.logger.Info("shutdown requested, scheduler draining")
			s.setState(Stopped)
			return nil
		case <-s.hostLost:
			s.setState(Stopped)
			return ErrHostUnavailable
		case <-s.reloadCh:
			s.doReload(ctx, false)
		case <-s.wakeCh:
		case <-timer.C:
		}

		// shutdown and host loss win over a tick that became ready at the same time
		if s.isHostLost() {
			s.setState(Stopped)
			return ErrHostUnavailable
		}
		if ctx.Err() != nil {
			s.setState(Draining)
			s.setState(Stopped)
			return nil
		}

		stopDrain := context.AfterFunc(ctx, s.drain)
		_, err := s.runPass(ctx)
		stopDrain()

		if errors.Is(err, ErrHostUnavailable) {
			s.setState(Stopped)
			return err
		}

		if ctx.Err() != nil {
			s.setState(Draining)
			s.logger.Info("shutdown requested, pass finished its current table")
			s.setState(Stopped)
			return nil
		}

		s.setState(Idle)
		resetTimer(timer, s.Settings().Interval)
	}
}

// RunOnce runs a single pass and returns its report.
func (s *Scheduler) RunOnce(ctx context.Context) (*datastore.PassReport, error) {
	report, err := s.runPass(ctx)
	s.setState(Stopped)
	return report, err
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// doReload applies the reloaded settings. A backend swap is deferred while a
// pass is using the current backend.
func (s *Scheduler) doReload(ctx context.Context, inPass bool) {
	if s.reload == nil {
		return
	}

	next, err := s.reload(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to reload settings, keeping current settings")
		return
	}

	backend := next.Backend
	next = next.withDefaults()
	next.Backend = nil

	s.mu.Lock()
	s.settings = next
	s.planner = newPlanner(next)
	if backend != nil {
		if inPass {
			s.pendingBackend = backend
		} else {
			s.swapBackendLocked(*backend)
		}
	}
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"interval":  next.Interval.String(),
		"lookahead": next.Lookahead,
		"workers":   next.Workers,
	}).Info("settings reloaded")
}

func (s *Scheduler) swapBackendLocked(b Backend) {
	old := s.backend
	s.backend = b
	s.pendingBackend = nil

	if old.Close != nil {
		if err := old.Close(); err != nil {
			s.logger.WithError(err).Error("failed to close replaced backend")
		}
	}
}

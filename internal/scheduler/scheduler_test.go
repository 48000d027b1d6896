package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	partman "github.com/jirevwe/go_partman"
	"github.com/stretchr/testify/require"

	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/internal/executor"
	"github.com/frain-dev/pgtime/pkg/log"
)

var day100 = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(100 * 24 * time.Hour)

func dailyPolicy(id string) datastore.TablePolicy {
	return datastore.TablePolicy{
		TableID:           id,
		TimeColumn:        "ts",
		PartitionInterval: 24 * time.Hour,
		RetentionInterval: 7 * 24 * time.Hour,
	}
}

func dayWindow(tableID string, day int) datastore.PartitionWindow {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(day) * 24 * time.Hour)
	return datastore.PartitionWindow{TableID: tableID, Start: start, End: start.Add(24 * time.Hour)}
}

type simulatedClock interface {
	Now() time.Time
	AdvanceTime(d time.Duration)
}

type harness struct {
	store   *memStore
	catalog *memCatalog
	clock   simulatedClock
	backend Backend
}

func newHarness(policies ...datastore.TablePolicy) *harness {
	store := newMemStore()
	catalog := newMemCatalog(policies...)
	gw := executor.New(log.NewLogger(io.Discard), store, executor.Options{OperationTimeout: time.Second})

	return &harness{
		store:   store,
		catalog: catalog,
		clock:   partman.NewSimulatedClock(day100),
		backend: Backend{Catalog: catalog, Gateway: gw},
	}
}

func (h *harness) scheduler(settings Settings, opts ...Option) *Scheduler {
	opts = append([]Option{WithClock(h.clock)}, opts...)
	return New(log.NewLogger(io.Discard), h.backend, settings, opts...)
}

func runAsync(ctx context.Context, s *Scheduler) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
		return nil
	}
}

func TestScheduler_RunOnce_MaintainsEveryTable(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"), dailyPolicy("public.b"), dailyPolicy("public.c"))
	s := h.scheduler(Settings{Lookahead: 2})

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.False(t, report.Interrupted)
	require.Len(t, report.Outcomes, 3)

	for i, id := range []string{"public.a", "public.b", "public.c"} {
		require.Equal(t, id, report.Outcomes[i].TableID)
		require.NoError(t, report.Outcomes[i].Error)
		require.Len(t, report.Outcomes[i].Created, 2)
		require.Equal(t, 1, h.catalog.runs(id))

		rels := h.store.relations(id)
		require.Len(t, rels, 2)
		require.True(t, rels[0].window.Start.Equal(day100))
	}

	require.Equal(t, Stopped, s.State())
	require.Equal(t, report, s.LastReport())
}

func TestScheduler_FailureIsConfinedToTable(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"), dailyPolicy("public.b"), dailyPolicy("public.c"))
	h.store.createErr["public.b"] = errors.New("permission denied for schema public")
	s := h.scheduler(Settings{})

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)
	require.Equal(t, 1, report.Failures())

	require.NoError(t, report.Outcomes[0].Error)
	require.ErrorContains(t, report.Outcomes[1].Error, "permission denied")
	require.Empty(t, report.Outcomes[1].Created)
	require.NoError(t, report.Outcomes[2].Error)

	require.Len(t, h.store.relations("public.a"), 2)
	require.Empty(t, h.store.relations("public.b"))
	require.Len(t, h.store.relations("public.c"), 2)

	require.Equal(t, 0, h.catalog.runs("public.b"))
	require.Equal(t, 1, h.catalog.runs("public.c"))
}

func TestScheduler_ShutdownMidPassFinishesCurrentTable(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"), dailyPolicy("public.b"), dailyPolicy("public.c"))

	started := make(chan struct{})
	release := make(chan struct{})
	var once atomic.Bool
	h.store.onCreate = func(tableID string) {
		if tableID == "public.a" && once.CompareAndSwap(false, true) {
			close(started)
			<-release
		}
	}

	s := h.scheduler(Settings{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)

	s.Wake()
	<-started
	require.Equal(t, Running, s.State())

	cancel()
	require.Eventually(t, func() bool { return s.State() == Draining }, time.Second, time.Millisecond)
	close(release)

	require.NoError(t, waitRun(t, done))
	require.Equal(t, Stopped, s.State())

	require.Len(t, h.store.relations("public.a"), 2)
	require.Empty(t, h.store.relations("public.b"))
	require.Empty(t, h.store.relations("public.c"))

	report := s.LastReport()
	require.NotNil(t, report)
	require.True(t, report.Interrupted)
	require.Len(t, report.Outcomes, 1)
	require.NoError(t, report.Outcomes[0].Error)
}

func TestScheduler_HostLossMidPass(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"), dailyPolicy("public.b"))

	started := make(chan struct{})
	release := make(chan struct{})
	var once atomic.Bool
	h.store.onCreate = func(tableID string) {
		if tableID == "public.a" && once.CompareAndSwap(false, true) {
			close(started)
			<-release
		}
	}

	s := h.scheduler(Settings{Interval: time.Hour})
	done := runAsync(context.Background(), s)

	s.Wake()
	<-started
	s.HostLost()
	close(release)

	require.ErrorIs(t, waitRun(t, done), ErrHostUnavailable)
	require.Equal(t, Stopped, s.State())
	require.Empty(t, h.store.relations("public.b"))
}

func TestScheduler_HostLossWhileIdle(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"))
	s := h.scheduler(Settings{Interval: time.Hour})

	done := runAsync(context.Background(), s)
	s.HostLost()
	s.HostLost()

	require.ErrorIs(t, waitRun(t, done), ErrHostUnavailable)
	require.Empty(t, h.store.relations("public.a"))
}

func TestScheduler_ShutdownWhileIdle(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"))
	s := h.scheduler(Settings{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)

	require.Eventually(t, func() bool { return s.State() == Idle }, time.Second, time.Millisecond)
	cancel()

	require.NoError(t, waitRun(t, done))
	require.Equal(t, Stopped, s.State())
	require.Nil(t, s.LastReport())
}

func TestScheduler_TimerDrivesPasses(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"))
	s := h.scheduler(Settings{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)

	require.Eventually(t, func() bool { return h.catalog.runs("public.a") >= 3 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, waitRun(t, done))

	// passes are idempotent for a fixed clock
	require.Len(t, h.store.relations("public.a"), 2)
}

func TestScheduler_ReloadWhileIdle(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"))

	reloaded := make(chan struct{}, 1)
	s := h.scheduler(Settings{Interval: time.Hour, Lookahead: 2},
		WithReloadFunc(func(ctx context.Context) (Settings, error) {
			reloaded <- struct{}{}
			return Settings{Interval: time.Hour, Lookahead: 4}, nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)

	s.Reload()
	<-reloaded

	require.Eventually(t, func() bool { return h.catalog.runs("public.a") == 1 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, waitRun(t, done))

	require.Equal(t, uint(4), s.Settings().Lookahead)
	require.Len(t, h.store.relations("public.a"), 4)
}

func TestScheduler_ReloadFailureKeepsSettings(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"))
	s := h.scheduler(Settings{Interval: time.Hour, Lookahead: 3},
		WithReloadFunc(func(ctx context.Context) (Settings, error) {
			return Settings{}, errors.New("config file is not valid json")
		}),
	)

	s.doReload(context.Background(), false)
	require.Equal(t, uint(3), s.Settings().Lookahead)
	require.Equal(t, time.Hour, s.Settings().Interval)
}

func TestScheduler_ReloadSwapsBackend(t *testing.T) {
	old := newHarness(dailyPolicy("public.a"))
	next := newHarness(dailyPolicy("public.z"))

	var closed atomic.Int32
	old.backend.Close = func() error {
		closed.Add(1)
		return nil
	}

	s := old.scheduler(Settings{},
		WithReloadFunc(func(ctx context.Context) (Settings, error) {
			b := next.backend
			return Settings{Backend: &b}, nil
		}),
	)

	s.doReload(context.Background(), false)
	require.Equal(t, int32(1), closed.Load())

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	require.Equal(t, "public.z", report.Outcomes[0].TableID)
	require.Empty(t, old.store.relations("public.a"))
}

func TestScheduler_ReloadMidPassDefersBackendSwap(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"), dailyPolicy("public.b"))
	next := newHarness(dailyPolicy("public.z"))

	var closed atomic.Int32
	h.backend.Close = func() error {
		closed.Add(1)
		return nil
	}

	s := h.scheduler(Settings{},
		WithReloadFunc(func(ctx context.Context) (Settings, error) {
			b := next.backend
			return Settings{Lookahead: 3, Backend: &b}, nil
		}),
	)

	// queued before the pass, picked up at the first table boundary
	s.Reload()

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	// the pass finishes on the backend it started with
	require.Len(t, report.Outcomes, 2)
	require.Len(t, h.store.relations("public.a"), 3)
	require.Len(t, h.store.relations("public.b"), 3)
	require.Empty(t, next.store.relations("public.z"))
	require.Equal(t, int32(1), closed.Load())

	report, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	require.Equal(t, "public.z", report.Outcomes[0].TableID)
	require.Len(t, next.store.relations("public.z"), 3)
}

func TestScheduler_ResumesRetireAfterCrashBetweenDetachAndDrop(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"))
	// a previous run detached day 80 and died before the drop committed
	h.store.put(dayWindow("public.a", 80), false)
	h.store.put(dayWindow("public.a", 100), true)
	h.store.put(dayWindow("public.a", 101), true)

	s := h.scheduler(Settings{})
	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	out := report.Outcomes[0]
	require.NoError(t, out.Error)
	require.Len(t, out.Dropped, 1)
	require.True(t, out.Dropped[0].Start.Equal(dayWindow("public.a", 80).Start))
	require.Len(t, h.store.relations("public.a"), 2)
}

func TestScheduler_PartialRetireIsRetriedNextPass(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"))
	h.store.put(dayWindow("public.a", 80), true)
	h.store.dropFailures["public.a"] = 1

	s := h.scheduler(Settings{})
	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	out := report.Outcomes[0]
	require.ErrorIs(t, out.Error, datastore.ErrPartialRetire)
	require.Len(t, out.Detached, 1)
	// the create committed together with the detach
	require.Len(t, out.Created, 2)
	require.Equal(t, 0, h.catalog.runs("public.a"))

	rels := h.store.relations("public.a")
	require.Len(t, rels, 3)
	require.False(t, rels[0].attached)

	report, err = s.RunOnce(context.Background())
	require.NoError(t, err)

	out = report.Outcomes[0]
	require.NoError(t, out.Error)
	require.Len(t, out.Dropped, 1)
	require.Len(t, h.store.relations("public.a"), 2)
	require.Equal(t, 1, h.catalog.runs("public.a"))
}

func TestScheduler_WorkerPoolKeepsCatalogOrder(t *testing.T) {
	var policies []datastore.TablePolicy
	for i := 0; i < 8; i++ {
		policies = append(policies, dailyPolicy(fmt.Sprintf("public.t%d", i)))
	}

	h := newHarness(policies...)
	s := h.scheduler(Settings{Workers: 3})

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 8)

	for i, o := range report.Outcomes {
		require.Equal(t, fmt.Sprintf("public.t%d", i), o.TableID)
		require.NoError(t, o.Error)
		require.Len(t, h.store.relations(o.TableID), 2)
	}
}

type failingLocker struct{}

func (failingLocker) Acquire(ctx context.Context) (func(), error) {
	return nil, errors.New("lock held by another instance")
}

type countingLocker struct {
	acquired, released atomic.Int32
}

func (l *countingLocker) Acquire(ctx context.Context) (func(), error) {
	l.acquired.Add(1)
	return func() { l.released.Add(1) }, nil
}

func TestScheduler_PassLock(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"))

	s := h.scheduler(Settings{}, WithLocker(failingLocker{}))
	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Nil(t, report)
	require.Empty(t, h.store.relations("public.a"))

	l := &countingLocker{}
	s = h.scheduler(Settings{}, WithLocker(l))
	report, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	require.Equal(t, int32(1), l.acquired.Load())
	require.Equal(t, int32(1), l.released.Load())
}

func TestScheduler_UsesClockForPlanning(t *testing.T) {
	h := newHarness(dailyPolicy("public.a"))
	s := h.scheduler(Settings{})

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	h.clock.AdvanceTime(10 * 24 * time.Hour)
	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	out := report.Outcomes[0]
	require.Len(t, out.Created, 2)
	require.True(t, out.Created[0].Start.Equal(day100.Add(10*24*time.Hour)))
	// days 100 and 101 ended more than 7 days before day 110
	require.Len(t, out.Dropped, 2)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "idle", Idle.String())
	require.Equal(t, "running", Running.String())
	require.Equal(t, "draining", Draining.String())
	require.Equal(t, "stopped", Stopped.String())
}

package lifecycle

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frain-dev/pgtime/pkg/log"
)

type fakeTarget struct {
	reloads atomic.Int32
	lost    atomic.Int32
}

func (f *fakeTarget) Reload()   { f.reloads.Add(1) }
func (f *fakeTarget) HostLost() { f.lost.Add(1) }

func provideManager(target Target) *Manager {
	m := New(log.NewLogger(io.Discard), target)
	m.notify = func(chan<- os.Signal, ...os.Signal) {}
	m.stop = func(chan<- os.Signal) {}
	return m
}

func TestManager_SIGHUPReloads(t *testing.T) {
	target := &fakeTarget{}
	m := provideManager(target)

	ctx, release := m.Context(context.Background())
	defer release()

	m.signals <- syscall.SIGHUP
	require.Eventually(t, func() bool { return target.reloads.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, ctx.Err())
}

func TestManager_TerminatingSignalsCancel(t *testing.T) {
	for _, sig := range []os.Signal{syscall.SIGTERM, syscall.SIGINT} {
		t.Run(sig.String(), func(t *testing.T) {
			target := &fakeTarget{}
			m := provideManager(target)

			ctx, release := m.Context(context.Background())
			defer release()

			m.signals <- sig
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
				t.Fatal("context was not cancelled")
			}
			require.Equal(t, int32(0), target.reloads.Load())
		})
	}
}

func TestManager_ReleaseCancels(t *testing.T) {
	m := provideManager(&fakeTarget{})
	ctx, release := m.Context(context.Background())
	release()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, 1, ExitCode(errors.New("database host unavailable")))
}

type scriptedPinger struct {
	calls   atomic.Int32
	failFor func(call int32) bool
}

func (p *scriptedPinger) Ping(ctx context.Context) error {
	n := p.calls.Add(1)
	if p.failFor(n) {
		return errors.New("connection refused")
	}
	return nil
}

func TestHostMonitor_DeclaresLossAfterThreshold(t *testing.T) {
	p := &scriptedPinger{failFor: func(int32) bool { return true }}

	var lost atomic.Int32
	h := NewHostMonitor(log.NewLogger(io.Discard), p, time.Millisecond, 3, func() { lost.Add(1) })

	done := make(chan struct{})
	go func() {
		h.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}

	require.Equal(t, int32(1), lost.Load())
	require.Equal(t, int32(3), p.calls.Load())
}

func TestHostMonitor_RecoveryResetsFailures(t *testing.T) {
	// fails twice, recovers, then fails for good
	p := &scriptedPinger{failFor: func(n int32) bool { return n != 3 }}

	var lost atomic.Int32
	h := NewHostMonitor(log.NewLogger(io.Discard), p, time.Millisecond, 3, func() { lost.Add(1) })
	h.Run(context.Background())

	require.Equal(t, int32(1), lost.Load())
	require.Equal(t, int32(6), p.calls.Load())
}

func TestHostMonitor_StopsOnCancel(t *testing.T) {
	p := &scriptedPinger{failFor: func(int32) bool { return false }}

	var lost atomic.Int32
	h := NewHostMonitor(log.NewLogger(io.Discard), p, time.Millisecond, 1, func() { lost.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
	require.Equal(t, int32(0), lost.Load())
}

func TestNewHostMonitor_Defaults(t *testing.T) {
	h := NewHostMonitor(log.NewLogger(io.Discard), &scriptedPinger{}, 0, 0, func() {})
	require.Equal(t, DefaultHostCheckInterval, h.interval)
	require.Equal(t, DefaultHostFailureThreshold, h.threshold)
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pgtime.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	var changes atomic.Int32
	w, err := NewConfigWatcher(log.NewLogger(io.Discard), path, 20*time.Millisecond, func() { changes.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// a burst of writes is coalesced into one reload
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":8080}}`), 0o600))
	}

	require.Eventually(t, func() bool { return changes.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), changes.Load())
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pgtime.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	var changes atomic.Int32
	w, err := NewConfigWatcher(log.NewLogger(io.Discard), path, 10*time.Millisecond, func() { changes.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o600))
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(0), changes.Load())
}

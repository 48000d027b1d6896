package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/frain-dev/pgtime/pkg/log"
)

// Target is the part of the scheduler driven by process events.
type Target interface {
	Reload()
	HostLost()
}

// Manager maps process signals onto the scheduler: SIGTERM and SIGINT cancel
// the run context, SIGHUP requests a reload.
type Manager struct {
	logger  log.StdLogger
	target  Target
	signals chan os.Signal

	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
}

func New(logger log.StdLogger, target Target) *Manager {
	return &Manager{
		logger:  logger,
		target:  target,
		signals: make(chan os.Signal, 1),
		notify:  signal.Notify,
		stop:    signal.Stop,
	}
}

// Context returns a context that is cancelled on the first terminating
// signal. Calling release stops signal delivery and cancels the context.
func (m *Manager) Context(parent context.Context) (ctx context.Context, release func()) {
	ctx, cancel := context.WithCancel(parent)
	m.notify(m.signals, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-m.signals:
				if sig == syscall.SIGHUP {
					m.logger.Info("received SIGHUP, reloading configuration")
					m.target.Reload()
					continue
				}

				m.logger.WithFields(log.Fields{"signal": sig.String()}).Info("received signal, shutting down")
				cancel()
				return
			}
		}
	}()

	return ctx, func() {
		m.stop(m.signals)
		cancel()
		wg.Wait()
	}
}

// ExitCode is the process status for the error the scheduler stopped with.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

package lifecycle

import (
	"context"
	"time"

	"github.com/frain-dev/pgtime/pkg/log"
)

const (
	DefaultHostCheckInterval    = 10 * time.Second
	DefaultHostFailureThreshold = 3
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HostMonitor declares the database host lost after a run of consecutive
// failed pings.
type HostMonitor struct {
	logger    log.StdLogger
	pinger    Pinger
	interval  time.Duration
	threshold int
	onLost    func()
}

func NewHostMonitor(logger log.StdLogger, pinger Pinger, interval time.Duration, threshold int, onLost func()) *HostMonitor {
	if interval <= 0 {
		interval = DefaultHostCheckInterval
	}

	if threshold < 1 {
		threshold = DefaultHostFailureThreshold
	}

	return &HostMonitor{
		logger:    logger,
		pinger:    pinger,
		interval:  interval,
		threshold: threshold,
		onLost:    onLost,
	}
}

// Run pings until ctx is done or the host is declared lost.
func (h *HostMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := h.ping(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}

			failures++
			h.logger.WithError(err).WithField("failures", failures).Warn("database ping failed")

			if failures >= h.threshold {
				h.logger.WithError(err).Error("database host unavailable")
				h.onLost()
				return
			}
			continue
		}

		if failures > 0 {
			h.logger.Info("database ping recovered")
		}
		failures = 0
	}
}

func (h *HostMonitor) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()
	return h.pinger.Ping(ctx)
}

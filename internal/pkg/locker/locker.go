package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/frain-dev/pgtime/internal/scheduler"
	"github.com/frain-dev/pgtime/pkg/log"
)

const (
	DefaultMutexName = "pgtime:maintenance_pass:mutex"
	DefaultTTL       = 10 * time.Minute

	lockTimeout = 2 * time.Second
)

var _ scheduler.Locker = (*PassLocker)(nil)

// PassLocker serialises maintenance passes across daemons sharing a catalog.
type PassLocker struct {
	logger log.StdLogger
	rs     *redsync.Redsync
	name   string
	ttl    time.Duration
}

func New(logger log.StdLogger, client redis.UniversalClient, name string, ttl time.Duration) *PassLocker {
	if name == "" {
		name = DefaultMutexName
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &PassLocker{
		logger: logger,
		rs:     redsync.New(goredis.NewPool(client)),
		name:   name,
		ttl:    ttl,
	}
}

// Acquire takes the pass mutex without retrying. The returned release
// unlocks it.
func (l *PassLocker) Acquire(ctx context.Context) (func(), error) {
	mutex := l.rs.NewMutex(l.name, redsync.WithExpiry(l.ttl), redsync.WithTries(1))

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	if err := mutex.LockContext(lockCtx); err != nil {
		return nil, fmt.Errorf("failed to obtain lock: %w", err)
	}

	return func() {
		unlockCtx, unlockCancel := context.WithTimeout(context.WithoutCancel(ctx), lockTimeout)
		defer unlockCancel()

		ok, err := mutex.UnlockContext(unlockCtx)
		if !ok || err != nil {
			l.logger.WithError(err).Error("failed to release lock")
		}
	}, nil
}

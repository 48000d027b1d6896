//go:build integration
// +build integration

package locker_test

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frain-dev/pgtime/internal/pkg/locker"
	"github.com/frain-dev/pgtime/pkg/log"
	"github.com/frain-dev/pgtime/testenv"
)

var infra *testenv.Environment

func TestMain(m *testing.M) {
	res, cleanup, err := testenv.Launch(context.Background())
	if err != nil {
		log.Fatalf("Failed to launch test infrastructure: %v", err)
	}

	infra = res

	code := m.Run()

	if err := cleanup(); err != nil {
		log.Fatalf("Failed to cleanup test infrastructure: %v", err)
	}

	os.Exit(code)
}

func TestPassLocker_Exclusive(t *testing.T) {
	client, err := infra.NewRedisClient(t, 0)
	require.NoError(t, err)

	lo := log.NewLogger(io.Discard)
	a := locker.New(lo, client, "pgtime:test:exclusive", time.Minute)
	b := locker.New(lo, client, "pgtime:test:exclusive", time.Minute)

	release, err := a.Acquire(t.Context())
	require.NoError(t, err)

	_, err = b.Acquire(t.Context())
	require.Error(t, err)

	release()

	release, err = b.Acquire(t.Context())
	require.NoError(t, err)
	release()
}

func TestPassLocker_Expires(t *testing.T) {
	client, err := infra.NewRedisClient(t, 1)
	require.NoError(t, err)

	lo := log.NewLogger(io.Discard)
	a := locker.New(lo, client, "pgtime:test:expiry", 500*time.Millisecond)

	_, err = a.Acquire(t.Context())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		release, err := a.Acquire(t.Context())
		if err != nil {
			return false
		}
		release()
		return true
	}, 5*time.Second, 100*time.Millisecond)
}

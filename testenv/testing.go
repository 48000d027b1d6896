package testenv

import (
	"os"
	"testing"

	"github.com/frain-dev/pgtime/pkg/log"
)

func NewLogger(t *testing.T) *log.Logger {
	t.Helper()
	lo := log.NewLogger(os.Stderr)
	lo.SetLevel(log.DebugLevel)
	return lo
}

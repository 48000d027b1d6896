package testenv

import (
	"os"

	tclog "github.com/testcontainers/testcontainers-go/log"

	"github.com/frain-dev/pgtime/pkg/log"
)

// NewTestcontainersLogger routes container logs through the JSON logger.
func NewTestcontainersLogger() tclog.Logger {
	lo := log.NewLogger(os.Stdout)
	lo.SetPrefix("testcontainers")
	return lo
}

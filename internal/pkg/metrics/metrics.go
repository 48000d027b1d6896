package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/frain-dev/pgtime/config"
	"github.com/frain-dev/pgtime/pkg/log"
)

var reg *prometheus.Registry
var re sync.Once

var (
	dbMu        sync.Mutex
	dbCollector prometheus.Collector
)

func Reg() *prometheus.Registry {
	re.Do(func() {
		reg = prometheus.NewPedanticRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})

	return reg
}

// RegisterDBMetrics exposes the pool and partition collector of db, replacing
// the collector of a previously registered database.
func RegisterDBMetrics(db prometheus.Collector) {
	configuration, err := config.Get()
	if err != nil || !configuration.Metrics.Enabled {
		return
	}

	dbMu.Lock()
	defer dbMu.Unlock()

	if dbCollector != nil {
		Reg().Unregister(dbCollector)
	}

	if err := Reg().Register(db); err != nil {
		log.WithError(err).Error("failed to register database metrics")
		return
	}
	dbCollector = db
}

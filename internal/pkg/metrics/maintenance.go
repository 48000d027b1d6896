package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/frain-dev/pgtime/config"
	"github.com/frain-dev/pgtime/datastore"
)

var (
	m    *Metrics
	once sync.Once
)

const tableLabel = "table"

// Metrics for the maintenance loop
type Metrics struct {
	IsEnabled                 bool
	PartitionsCreatedTotal    *prometheus.CounterVec
	PartitionsDroppedTotal    *prometheus.CounterVec
	PartitionsCompressedTotal *prometheus.CounterVec
	PartitionsDetachedTotal   *prometheus.CounterVec
	TableErrorsTotal          *prometheus.CounterVec
	PassDuration              prometheus.Histogram
	SchedulerState            prometheus.Gauge
}

func GetInstance() *Metrics {
	once.Do(func() {
		m = newMetrics(Reg())
	})
	return m
}

func newMetrics(pr prometheus.Registerer) *Metrics {
	cfg, err := config.Get()
	m := InitMetrics(err == nil && cfg.Metrics.Enabled)

	if m.IsEnabled {
		pr.MustRegister(
			m.PartitionsCreatedTotal,
			m.PartitionsDroppedTotal,
			m.PartitionsCompressedTotal,
			m.PartitionsDetachedTotal,
			m.TableErrorsTotal,
			m.PassDuration,
			m.SchedulerState,
		)
	}
	return m
}

func InitMetrics(enabled bool) *Metrics {
	if !enabled {
		return &Metrics{
			IsEnabled: false,
		}
	}

	return &Metrics{
		IsEnabled: true,

		PartitionsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgtime_partitions_created_total",
				Help: "Total number of partitions created ahead of time",
			},
			[]string{tableLabel},
		),
		PartitionsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgtime_partitions_dropped_total",
				Help: "Total number of partitions dropped past retention",
			},
			[]string{tableLabel},
		),
		PartitionsCompressedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgtime_partitions_compressed_total",
				Help: "Total number of partitions compressed",
			},
			[]string{tableLabel},
		),
		PartitionsDetachedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgtime_partitions_detached_total",
				Help: "Total number of partitions detached whose drop failed",
			},
			[]string{tableLabel},
		),
		TableErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgtime_table_maintenance_errors_total",
				Help: "Total number of failed table maintenance attempts",
			},
			[]string{tableLabel},
		),
		PassDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pgtime_pass_duration_seconds",
				Help:    "Time (in seconds) a maintenance pass takes.",
				Buckets: prometheus.DefBuckets,
			},
		),
		SchedulerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pgtime_scheduler_state",
				Help: "Current scheduler state (0 idle, 1 running, 2 draining, 3 stopped)",
			},
		),
	}
}

func (m *Metrics) RecordOutcome(o datastore.MaintenanceOutcome) {
	if !m.IsEnabled {
		return
	}

	labels := prometheus.Labels{tableLabel: o.TableID}
	m.PartitionsCreatedTotal.With(labels).Add(float64(len(o.Created)))
	m.PartitionsDroppedTotal.With(labels).Add(float64(len(o.Dropped)))
	m.PartitionsCompressedTotal.With(labels).Add(float64(len(o.Compressed)))
	m.PartitionsDetachedTotal.With(labels).Add(float64(len(o.Detached)))

	if o.Failed() {
		m.TableErrorsTotal.With(labels).Inc()
	}
}

func (m *Metrics) RecordPass(r *datastore.PassReport) {
	if !m.IsEnabled {
		return
	}
	m.PassDuration.Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
}

func (m *Metrics) SetSchedulerState(state int) {
	if !m.IsEnabled {
		return
	}
	m.SchedulerState.Set(float64(state))
}

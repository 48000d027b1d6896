package postgres

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/frain-dev/pgtime/config"
	"github.com/frain-dev/pgtime/pkg/log"
)

// Namespace used in fully-qualified metrics names.
const namespace = "pgtime"

// sampleTime bounds how often the catalog is queried for partition counts.
const sampleTime = 30 * time.Second

var (
	collectorMu   sync.Mutex
	lastRun       time.Time
	cachedMetrics *Metrics
)

type TablePartitionMetrics struct {
	TableID string `db:"table_id"`
	Total   uint64 `db:"total"`
}

type Metrics struct {
	TablePartitionMetrics []TablePartitionMetrics
}

var (
	poolAcquiredConnsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db", "acquired_conns"),
		"Number of currently acquired connections in the pool",
		nil, nil,
	)

	poolIdleConnsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db", "idle_conns"),
		"Number of currently idle connections in the pool",
		nil, nil,
	)

	poolMaxConnsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db", "max_conns"),
		"Maximum size of the pool",
		nil, nil,
	)

	poolAcquireWaitDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "db", "acquire_wait_seconds_total"),
		"Total time spent waiting for a connection from the pool",
		nil, nil,
	)

	tablePartitionsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "attached_partitions"),
		"Number of partitions attached to each registered table",
		[]string{"table"}, nil,
	)
)

const fetchAttachedPartitionCounts = `
	SELECT t.table_id, count(i.inhrelid) AS total
	FROM pgtime.tables t
	LEFT JOIN pg_inherits i ON i.inhparent = to_regclass(t.table_id)
	GROUP BY t.table_id
	ORDER BY t.table_id;
	`

func (p *Postgres) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolAcquiredConnsDesc
	ch <- poolIdleConnsDesc
	ch <- poolMaxConnsDesc
	ch <- poolAcquireWaitDesc
	ch <- tablePartitionsDesc
}

func (p *Postgres) Collect(ch chan<- prometheus.Metric) {
	cfg, err := config.Get()
	if err != nil || !cfg.Metrics.Enabled {
		return
	}

	stat := p.pool.Stat()
	ch <- prometheus.MustNewConstMetric(poolAcquiredConnsDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(poolIdleConnsDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(poolMaxConnsDesc, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(poolAcquireWaitDesc, prometheus.CounterValue, stat.AcquireDuration().Seconds())

	collectorMu.Lock()
	defer collectorMu.Unlock()

	now := time.Now()
	metrics := cachedMetrics
	if metrics == nil || lastRun.Add(sampleTime).Before(now) {
		metrics, err = p.collectMetrics()
		if err != nil {
			log.WithError(err).Error("failed to collect partition metrics")
			return
		}
		cachedMetrics = metrics
		lastRun = now
	}

	for _, metric := range metrics.TablePartitionMetrics {
		ch <- prometheus.MustNewConstMetric(
			tablePartitionsDesc,
			prometheus.GaugeValue,
			float64(metric.Total),
			metric.TableID,
		)
	}
}

// collectMetrics gathers partition counts from the catalog
func (p *Postgres) collectMetrics() (*Metrics, error) {
	rows, err := p.GetDB().Queryx(fetchAttachedPartitionCounts)
	if err != nil {
		return nil, err
	}
	defer closeWithError(rows)

	metrics := &Metrics{TablePartitionMetrics: make([]TablePartitionMetrics, 0)}
	for rows.Next() {
		var m TablePartitionMetrics
		if err = rows.StructScan(&m); err != nil {
			return nil, err
		}
		metrics.TablePartitionMetrics = append(metrics.TablePartitionMetrics, m)
	}

	return metrics, rows.Err()
}

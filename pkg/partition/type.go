package partition

import (
	"time"

	"github.com/frain-dev/pgtime/datastore"
)

const (
	OneHour = time.Hour
	OneDay  = 24 * time.Hour

	// DefaultLookahead is the number of partition intervals created ahead of now.
	DefaultLookahead uint = 2
)

// DefaultEpoch anchors bucket and window boundaries. It matches the postgres
// timestamp epoch so windows line up with time_bucket in SQL.
var DefaultEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Planner computes the maintenance plan for a table.
type Planner interface {
	Plan(policy datastore.TablePolicy, now time.Time, observed []datastore.PartitionWindow) datastore.Plan
}

type Options struct {
	// Lookahead is the number of intervals past now that must be covered by partitions.
	Lookahead uint

	// Epoch anchors window boundaries.
	Epoch time.Time
}

func (o Options) withDefaults() Options {
	if o.Lookahead == 0 {
		o.Lookahead = DefaultLookahead
	}

	if o.Epoch.IsZero() {
		o.Epoch = DefaultEpoch
	}

	return o
}

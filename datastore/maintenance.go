package datastore

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Plan is what the lifecycle engine wants done to one table. Every list is
// ordered oldest window first.
type Plan struct {
	ToCreate   []PartitionWindow `json:"to_create"`
	ToRetire   []PartitionWindow `json:"to_retire"`
	ToCompress []PartitionWindow `json:"to_compress"`
}

func (p Plan) IsEmpty() bool {
	return len(p.ToCreate) == 0 && len(p.ToRetire) == 0 && len(p.ToCompress) == 0
}

// MaintenanceOutcome is the result of applying a plan to one table in one pass.
type MaintenanceOutcome struct {
	TableID    string            `json:"table_id"`
	Created    []PartitionWindow `json:"created"`
	Dropped    []PartitionWindow `json:"dropped"`
	Compressed []PartitionWindow `json:"compressed"`
	Detached   []PartitionWindow `json:"detached"`
	Error      error             `json:"-"`
	Duration   time.Duration     `json:"duration"`
}

func (o MaintenanceOutcome) Failed() bool {
	return o.Error != nil
}

// PassReport aggregates the outcomes of one sweep over the catalog.
type PassReport struct {
	ID          ulid.ULID            `json:"id"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	Outcomes    []MaintenanceOutcome `json:"outcomes"`
	Interrupted bool                 `json:"interrupted"`
}

func (r *PassReport) Failures() int {
	n := 0
	for i := range r.Outcomes {
		if r.Outcomes[i].Failed() {
			n++
		}
	}
	return n
}

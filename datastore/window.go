package datastore

import (
	"strings"
	"time"
)

type WindowState string

const (
	PlannedWindow    WindowState = "planned"
	PresentWindow    WindowState = "present"
	CompressedWindow WindowState = "compressed"
	DetachedWindow   WindowState = "detached"
	DroppedWindow    WindowState = "dropped"
)

const (
	windowNameLayout = "20060102_150405"
	// "_p" + windowNameLayout
	windowNameSuffix = "_p20060102_150405"
)

// PartitionWindow is one half-open [Start, End) range of a parent table.
type PartitionWindow struct {
	TableID string      `json:"table_id"`
	Start   time.Time   `json:"start"`
	End     time.Time   `json:"end"`
	State   WindowState `json:"state"`
}

// Name is the deterministic, unqualified relation name of the window's partition.
func (w PartitionWindow) Name() string {
	_, table := SplitTableID(w.TableID)
	return table + "_p" + w.Start.UTC().Format(windowNameLayout)
}

// Exists reports whether the window is backed by a relation.
func (w PartitionWindow) Exists() bool {
	switch w.State {
	case PresentWindow, CompressedWindow, DetachedWindow:
		return true
	default:
		return false
	}
}

// ParseWindowName recovers a window from a partition relation name. Detached
// partitions lose their bounds, so the name is the only record of them.
func ParseWindowName(tableID, relname string, interval time.Duration) (PartitionWindow, bool) {
	_, table := SplitTableID(tableID)
	prefix := table + "_p"
	if !strings.HasPrefix(relname, prefix) || len(relname) != len(prefix)+len(windowNameLayout) {
		return PartitionWindow{}, false
	}

	start, err := time.ParseInLocation(windowNameLayout, relname[len(prefix):], time.UTC)
	if err != nil {
		return PartitionWindow{}, false
	}

	return PartitionWindow{
		TableID: tableID,
		Start:   start,
		End:     start.Add(interval),
	}, true
}

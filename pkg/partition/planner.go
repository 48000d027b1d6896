package partition

import (
	"fmt"
	"sort"
	"time"

	"github.com/frain-dev/pgtime/datastore"
)

// Engine is the partition lifecycle engine. It is pure: the plan depends only on
// the policy, the instant and the partitions observed in the data engine.
type Engine struct {
	opts Options
}

var _ Planner = (*Engine)(nil)

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

func (e *Engine) Lookahead() uint {
	return e.opts.Lookahead
}

// WindowAt returns the window of policy's table that contains t.
func (e *Engine) WindowAt(policy datastore.TablePolicy, t time.Time) datastore.PartitionWindow {
	start := align(t.UTC(), policy.PartitionInterval, e.opts.Epoch)
	return datastore.PartitionWindow{
		TableID: policy.TableID,
		Start:   start,
		End:     start.Add(policy.PartitionInterval),
		State:   datastore.PlannedWindow,
	}
}

// Plan panics when given a policy that does not validate; policies are
// validated when they are registered.
func (e *Engine) Plan(policy datastore.TablePolicy, now time.Time, observed []datastore.PartitionWindow) datastore.Plan {
	if err := policy.Validate(); err != nil {
		panic(fmt.Sprintf("partition: planning with invalid policy for %s: %v", policy.TableID, err))
	}

	now = now.UTC()
	existing := make(map[int64]struct{}, len(observed))
	windows := make([]datastore.PartitionWindow, 0, len(observed))
	for _, w := range observed {
		if !w.Exists() {
			continue
		}
		existing[w.Start.UnixNano()] = struct{}{}
		windows = append(windows, w)
	}
	sortWindows(windows)

	return datastore.Plan{
		ToCreate:   e.toCreate(policy, now, existing),
		ToRetire:   toRetire(policy, now, windows),
		ToCompress: toCompress(policy, now, windows),
	}
}

func (e *Engine) toCreate(policy datastore.TablePolicy, now time.Time, existing map[int64]struct{}) []datastore.PartitionWindow {
	horizon := now.Add(time.Duration(e.opts.Lookahead) * policy.PartitionInterval)

	var windows []datastore.PartitionWindow
	for w := e.WindowAt(policy, now); w.Start.Before(horizon); w = next(w, policy.PartitionInterval) {
		if _, ok := existing[w.Start.UnixNano()]; ok {
			continue
		}
		windows = append(windows, w)
	}

	return windows
}

func toRetire(policy datastore.TablePolicy, now time.Time, observed []datastore.PartitionWindow) []datastore.PartitionWindow {
	if !policy.HasRetention() {
		return nil
	}

	horizon := now.Add(-policy.RetentionInterval)

	var windows []datastore.PartitionWindow
	for _, w := range observed {
		if !w.End.After(horizon) {
			windows = append(windows, w)
		}
	}

	return windows
}

func toCompress(policy datastore.TablePolicy, now time.Time, observed []datastore.PartitionWindow) []datastore.PartitionWindow {
	if !policy.HasCompression() {
		return nil
	}

	horizon := now.Add(-policy.CompressionInterval)
	retention := now.Add(-policy.RetentionInterval)

	var windows []datastore.PartitionWindow
	for _, w := range observed {
		if w.State != datastore.PresentWindow || w.End.After(horizon) {
			continue
		}

		if policy.HasRetention() && !w.End.After(retention) {
			continue
		}

		windows = append(windows, w)
	}

	return windows
}

func next(w datastore.PartitionWindow, interval time.Duration) datastore.PartitionWindow {
	w.Start = w.End
	w.End = w.End.Add(interval)
	return w
}

func sortWindows(windows []datastore.PartitionWindow) {
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Start.Before(windows[j].Start)
	})
}

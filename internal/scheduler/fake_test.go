package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/frain-dev/pgtime/datastore"
)

type relation struct {
	window     datastore.PartitionWindow
	attached   bool
	compressed bool
}

// memStore is an in-memory data engine with per-table transaction semantics.
type memStore struct {
	mu   sync.Mutex
	rels map[string]map[int64]relation

	createErr    map[string]error
	dropFailures map[string]int
	onCreate     func(tableID string)
}

func newMemStore() *memStore {
	return &memStore{
		rels:         map[string]map[int64]relation{},
		createErr:    map[string]error{},
		dropFailures: map[string]int{},
	}
}

func (m *memStore) put(w datastore.PartitionWindow, attached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rels[w.TableID] == nil {
		m.rels[w.TableID] = map[int64]relation{}
	}
	m.rels[w.TableID][w.Start.UnixNano()] = relation{window: w, attached: attached}
}

func (m *memStore) relations(tableID string) []relation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]relation, 0, len(m.rels[tableID]))
	for _, r := range m.rels[tableID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].window.Start.Before(out[j].window.Start) })
	return out
}

func (m *memStore) InTx(ctx context.Context, fn func(datastore.PartitionEngine) error) error {
	tx := &memTx{store: m, tables: map[string]map[int64]relation{}}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	store  *memStore
	parent *memTx
	tables map[string]map[int64]relation
}

func (t *memTx) table(id string) map[int64]relation {
	if rels, ok := t.tables[id]; ok {
		return rels
	}

	var src map[int64]relation
	if t.parent != nil {
		src = t.parent.table(id)
	} else {
		t.store.mu.Lock()
		src = t.store.rels[id]
		t.store.mu.Unlock()
	}

	cp := make(map[int64]relation, len(src))
	for k, v := range src {
		cp[k] = v
	}
	t.tables[id] = cp
	return cp
}

func (t *memTx) commit() {
	if t.parent != nil {
		for id, rels := range t.tables {
			t.parent.tables[id] = rels
		}
		return
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, rels := range t.tables {
		t.store.rels[id] = rels
	}
}

func (t *memTx) ListPartitions(ctx context.Context, policy datastore.TablePolicy) ([]datastore.PartitionWindow, error) {
	var windows []datastore.PartitionWindow
	for _, r := range t.table(policy.TableID) {
		w := r.window
		switch {
		case !r.attached:
			w.State = datastore.DetachedWindow
		case r.compressed && policy.HasCompression():
			w.State = datastore.CompressedWindow
		default:
			w.State = datastore.PresentWindow
		}
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
	return windows, nil
}

func (t *memTx) CreatePartition(ctx context.Context, w datastore.PartitionWindow) error {
	t.store.mu.Lock()
	err := t.store.createErr[w.TableID]
	hook := t.store.onCreate
	t.store.mu.Unlock()

	if hook != nil {
		hook(w.TableID)
	}
	if err != nil {
		return err
	}

	w.State = ""
	t.table(w.TableID)[w.Start.UnixNano()] = relation{window: w, attached: true}
	return nil
}

func (t *memTx) PartitionExists(ctx context.Context, w datastore.PartitionWindow) (bool, error) {
	_, ok := t.table(w.TableID)[w.Start.UnixNano()]
	return ok, nil
}

func (t *memTx) IsAttached(ctx context.Context, w datastore.PartitionWindow) (bool, error) {
	return t.table(w.TableID)[w.Start.UnixNano()].attached, nil
}

func (t *memTx) DetachPartition(ctx context.Context, w datastore.PartitionWindow) error {
	rels := t.table(w.TableID)
	r := rels[w.Start.UnixNano()]
	r.attached = false
	rels[w.Start.UnixNano()] = r
	return nil
}

func (t *memTx) DropPartition(ctx context.Context, w datastore.PartitionWindow) error {
	t.store.mu.Lock()
	if t.store.dropFailures[w.TableID] > 0 {
		t.store.dropFailures[w.TableID]--
		t.store.mu.Unlock()
		return errors.New("could not obtain lock on relation")
	}
	t.store.mu.Unlock()

	delete(t.table(w.TableID), w.Start.UnixNano())
	return nil
}

func (t *memTx) SetCompression(ctx context.Context, w datastore.PartitionWindow) error {
	rels := t.table(w.TableID)
	r := rels[w.Start.UnixNano()]
	r.compressed = true
	rels[w.Start.UnixNano()] = r
	return nil
}

func (t *memTx) IsCompressed(ctx context.Context, w datastore.PartitionWindow) (bool, error) {
	return t.table(w.TableID)[w.Start.UnixNano()].compressed, nil
}

func (t *memTx) Savepoint(ctx context.Context, fn func(datastore.PartitionEngine) error) error {
	sp := &memTx{store: t.store, parent: t, tables: map[string]map[int64]relation{}}
	if err := fn(sp); err != nil {
		return err
	}
	sp.commit()
	return nil
}

// memCatalog is an in-memory catalog.
type memCatalog struct {
	mu       sync.Mutex
	policies map[string]datastore.TablePolicy
	lastRuns map[string]int
}

func newMemCatalog(policies ...datastore.TablePolicy) *memCatalog {
	c := &memCatalog{policies: map[string]datastore.TablePolicy{}, lastRuns: map[string]int{}}
	for _, p := range policies {
		c.policies[p.TableID] = p
	}
	return c
}

func (c *memCatalog) LoadPolicies(ctx context.Context) ([]datastore.TablePolicy, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]datastore.TablePolicy, 0, len(c.policies))
	for _, p := range c.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableID < out[j].TableID })
	return out, nil
}

func (c *memCatalog) FindPolicy(ctx context.Context, tableID string) (*datastore.TablePolicy, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.policies[tableID]
	if !ok {
		return nil, datastore.ErrPolicyNotFound
	}
	return &p, nil
}

func (c *memCatalog) RegisterTable(ctx context.Context, policy *datastore.TablePolicy) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.policies[policy.TableID] = *policy
	return nil
}

func (c *memCatalog) DeregisterTable(ctx context.Context, tableID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.policies, tableID)
	return nil
}

func (c *memCatalog) MarkLastRun(ctx context.Context, tableID string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastRuns[tableID]++
	return nil
}

func (c *memCatalog) runs(tableID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRuns[tableID]
}

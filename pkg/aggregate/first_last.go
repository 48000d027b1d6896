// Package aggregate holds order sensitive reducers over grouped rows.
package aggregate

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// Sample is one grouped row: a nullable value and the nullable timestamp
// that orders it.
type Sample[T any] struct {
	Value *T
	Time  null.Time
}

// Reducer keeps the value paired with the earliest (or latest) timestamp it has
// seen. Rows with a null timestamp are ignored; ties keep the first row added.
type Reducer[T any] struct {
	last  bool
	set   bool
	ts    time.Time
	value *T
}

func NewFirst[T any]() *Reducer[T] {
	return &Reducer[T]{}
}

func NewLast[T any]() *Reducer[T] {
	return &Reducer[T]{last: true}
}

func (r *Reducer[T]) Add(value *T, ts null.Time) {
	if !ts.Valid {
		return
	}

	if r.set && !r.better(ts.Time) {
		return
	}

	r.set = true
	r.ts = ts.Time
	r.value = value
}

func (r *Reducer[T]) better(ts time.Time) bool {
	if r.last {
		return ts.After(r.ts)
	}
	return ts.Before(r.ts)
}

// Value returns the selected value, or nil when no row had a timestamp or the
// selected row's value was null.
func (r *Reducer[T]) Value() *T {
	if !r.set {
		return nil
	}
	return r.value
}

// FirstByTime returns the value of the row with the minimum non-null timestamp.
func FirstByTime[T any](rows []Sample[T]) *T {
	return reduce(NewFirst[T](), rows)
}

// LastByTime returns the value of the row with the maximum non-null timestamp.
func LastByTime[T any](rows []Sample[T]) *T {
	return reduce(NewLast[T](), rows)
}

func reduce[T any](r *Reducer[T], rows []Sample[T]) *T {
	for _, row := range rows {
		r.Add(row.Value, row.Time)
	}
	return r.Value()
}

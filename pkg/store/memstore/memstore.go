// Package memstore provides an in-memory schedule backend.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/wilhg/busschedule/pkg/schedule"
	"github.com/wilhg/busschedule/pkg/store"
)

// Store is an in-memory ScheduleReader. It serves the "memory:" database URL
// and tests.
type Store struct {
	mu      sync.RWMutex
	rows    []schedule.Schedule // ordered by arrival time, then id
	tracker *store.InvalidationTracker
}

// New creates a store holding rows.
func New(rows []schedule.Schedule) *Store {
	s := &Store{tracker: store.NewInvalidationTracker()}
	s.rows = sorted(rows)
	return s
}

// Tracker returns the change notifier for the schedule table.
func (s *Store) Tracker() *store.InvalidationTracker { return s.tracker }

// Reset replaces the content wholesale and notifies observers of the schedule table.
func (s *Store) Reset(rows []schedule.Schedule) {
	next := sorted(rows)
	s.mu.Lock()
	s.rows = next
	s.mu.Unlock()
	s.tracker.Notify(schedule.Table)
}

// All returns every schedule ordered by arrival time.
func (s *Store) All(ctx context.Context) ([]schedule.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows), nil
}

// ByStopName returns the schedules of stopName ordered by arrival time.
func (s *Store) ByStopName(ctx context.Context, stopName string) ([]schedule.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schedule.Schedule, 0)
	for _, r := range s.rows {
		if r.StopName == stopName {
			out = append(out, r)
		}
	}
	return out, nil
}

func sorted(rows []schedule.Schedule) []schedule.Schedule {
	out := append(make([]schedule.Schedule, 0, len(rows)), rows...)
	slices.SortStableFunc(out, func(a, b schedule.Schedule) int {
		if c := cmp.Compare(a.ArrivalTime, b.ArrivalTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

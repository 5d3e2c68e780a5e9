package store

import (
	"context"

	"github.com/wilhg/busschedule/pkg/schedule"
)

// ScheduleReader defines the read-only queries served by a schedule backend.
// Results are ordered by arrival time ascending, ties broken by id.
type ScheduleReader interface {
	// All returns every scheduled arrival.
	All(ctx context.Context) ([]schedule.Schedule, error)
	// ByStopName returns the arrivals whose stop name equals stopName exactly.
	// An unknown or empty stop name yields an empty result, not an error.
	ByStopName(ctx context.Context, stopName string) ([]schedule.Schedule, error)
}

// Observable is implemented by backends that publish table change notifications.
type Observable interface {
	Tracker() *InvalidationTracker
}

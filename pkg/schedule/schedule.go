// Package schedule defines the scheduled arrival record shared by every layer
// of the bus schedule pipeline.
package schedule

import "time"

// Table and column names of the persisted schedule relation.
const (
	Table             = "schedule"
	ColumnID          = "id"
	ColumnStopName    = "stop_name"
	ColumnArrivalTime = "arrival_time"
)

// Schedule is one scheduled arrival of a bus at a stop.
// Values are immutable; copy them freely.
type Schedule struct {
	// ID is the stable identity of the arrival and the primary key of the store.
	ID int64 `json:"id" yaml:"id"`
	// StopName is the physical stop this arrival belongs to.
	StopName string `json:"stop_name" yaml:"stop_name"`
	// ArrivalTime is the scheduled arrival instant in seconds since the Unix epoch.
	ArrivalTime int64 `json:"arrival_time" yaml:"arrival_time"`
}

// Key returns the identity key of s.
func Key(s Schedule) int64 { return s.ID }

// SameItem reports whether a and b are the same arrival, regardless of content.
func SameItem(a, b Schedule) bool { return a.ID == b.ID }

// SameContent reports whether a and b are structurally equal on all fields.
func SameContent(a, b Schedule) bool { return a == b }

// Arrival returns the arrival instant in UTC.
func (s Schedule) Arrival() time.Time { return time.Unix(s.ArrivalTime, 0).UTC() }

// FormatArrival renders the arrival time as a wall clock in loc, e.g. "8:00 AM".
// A nil loc means UTC.
func (s Schedule) FormatArrival(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return s.Arrival().In(loc).Format("3:04 PM")
}

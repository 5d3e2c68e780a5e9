// Package viewmodel holds the presentation models that sit between screens
// and the schedule gateway.
package viewmodel

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wilhg/busschedule/pkg/errmodel"
	"github.com/wilhg/busschedule/pkg/gateway"
	"github.com/wilhg/busschedule/pkg/live"
)

// Gateway is the query surface a presentation model depends on.
type Gateway interface {
	AllRecords() live.Sequence[gateway.Snapshot]
	RecordsForStop(stopName string) live.Sequence[gateway.Snapshot]
}

// BusScheduleName is the registered name of the BusSchedule model.
const BusScheduleName = "bus_schedule"

// BusSchedule exposes the schedule queries to screens. It keeps no reference
// to any screen and may outlive them.
type BusSchedule struct {
	gw Gateway
}

// NewBusSchedule binds a model to gw.
func NewBusSchedule(gw Gateway) *BusSchedule { return &BusSchedule{gw: gw} }

// FullSchedule is every arrival, ordered by arrival time.
func (m *BusSchedule) FullSchedule() live.Sequence[gateway.Snapshot] { return m.gw.AllRecords() }

// ScheduleForStopName is the arrivals at one stop, ordered by arrival time.
func (m *BusSchedule) ScheduleForStopName(name string) live.Sequence[gateway.Snapshot] {
	return m.gw.RecordsForStop(name)
}

// Builder constructs a model from the gateway.
type Builder func(Gateway) (any, error)

// Factory builds presentation models by name.
type Factory struct {
	gw       Gateway
	builders map[string]Builder
}

// NewFactory creates a factory with the BusSchedule model registered.
func NewFactory(gw Gateway) *Factory {
	f := &Factory{gw: gw, builders: map[string]Builder{}}
	f.Register(BusScheduleName, func(gw Gateway) (any, error) { return NewBusSchedule(gw), nil })
	return f
}

// Register adds or replaces the builder for name.
func (f *Factory) Register(name string, b Builder) { f.builders[name] = b }

// Names lists the registered model names in sorted order.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.builders))
	for n := range f.builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Create builds the model registered under name. Asking for an unknown
// model is a programming error and fails immediately.
func (f *Factory) Create(name string) (any, error) {
	b, ok := f.builders[name]
	if !ok {
		return nil, errmodel.Validation("unknown_viewmodel",
			fmt.Sprintf("no presentation model registered as %q", name),
			map[string]any{"name": name, "known": f.Names()})
	}
	return b(f.gw)
}

// Scope is a navigation scope. Each model is built at most once per scope
// and shared by every screen attached to it.
type Scope struct {
	factory *Factory
	mu      sync.Mutex
	models  map[string]any
}

// NewScope creates an empty scope over factory.
func NewScope(factory *Factory) *Scope {
	return &Scope{factory: factory, models: map[string]any{}}
}

// Get returns the scope's model for name, creating it on first use.
func (s *Scope) Get(name string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.models[name]; ok {
		return m, nil
	}
	m, err := s.factory.Create(name)
	if err != nil {
		return nil, err
	}
	s.models[name] = m
	return m, nil
}

// BusScheduleOf returns the scope's BusSchedule model.
func BusScheduleOf(s *Scope) (*BusSchedule, error) {
	m, err := s.Get(BusScheduleName)
	if err != nil {
		return nil, err
	}
	bs, ok := m.(*BusSchedule)
	if !ok {
		return nil, errmodel.Validation("unknown_viewmodel",
			fmt.Sprintf("%q is registered as %T", BusScheduleName, m), nil)
	}
	return bs, nil
}

// Package gateway exposes the schedule queries as live sequences.
package gateway

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wilhg/busschedule/pkg/live"
	"github.com/wilhg/busschedule/pkg/schedule"
	"github.com/wilhg/busschedule/pkg/store"
)

// Snapshot is one complete, ordered result of a schedule query.
type Snapshot = []schedule.Schedule

// ScheduleGateway issues read-only schedule queries and serves each one as a
// live sequence that re-emits whenever the schedule table changes.
type ScheduleGateway struct {
	reader store.ScheduleReader
	inv    live.Invalidator
	exec   *live.Executor
	log    *zap.Logger
}

// Option configures the gateway.
type Option func(*ScheduleGateway)

// WithExecutor sets the pool that runs queries.
func WithExecutor(e *live.Executor) Option {
	return func(g *ScheduleGateway) {
		if e != nil {
			g.exec = e
		}
	}
}

// WithLogger sets the logger for query diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(g *ScheduleGateway) {
		if l != nil {
			g.log = l
		}
	}
}

// New binds a gateway to a backend and its change feed. inv may be nil for
// backends without change notifications.
func New(reader store.ScheduleReader, inv live.Invalidator, opts ...Option) *ScheduleGateway {
	g := &ScheduleGateway{reader: reader, inv: inv, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	if g.exec == nil {
		g.exec = live.NewExecutor(live.DefaultWorkers)
	}
	return g
}

// AllRecords returns every scheduled arrival ordered by arrival time.
func (g *ScheduleGateway) AllRecords() live.Sequence[Snapshot] {
	return g.query("AllRecords", func(ctx context.Context) (Snapshot, error) {
		return g.reader.All(ctx)
	})
}

// RecordsForStop returns the arrivals at stopName (exact, case-sensitive)
// ordered by arrival time. An unknown stop yields empty snapshots.
func (g *ScheduleGateway) RecordsForStop(stopName string) live.Sequence[Snapshot] {
	return g.query("RecordsForStop", func(ctx context.Context) (Snapshot, error) {
		return g.reader.ByStopName(ctx, stopName)
	}, attribute.String("stop.name", stopName))
}

func (g *ScheduleGateway) query(name string, fetch live.Fetcher[Snapshot], attrs ...attribute.KeyValue) *live.Query[Snapshot] {
	traced := func(ctx context.Context) (Snapshot, error) {
		ctx, span := otel.Tracer("gateway").Start(ctx, "gateway."+name, trace.WithAttributes(attrs...))
		defer span.End()
		rows, err := fetch(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "query failed")
			return nil, err
		}
		span.SetAttributes(attribute.Int("rows", len(rows)))
		return rows, nil
	}
	opts := []live.Option{
		live.WithTables(schedule.Table),
		live.WithExecutor(g.exec),
		live.WithLogger(g.log),
	}
	if g.inv != nil {
		opts = append(opts, live.WithInvalidator(g.inv))
	}
	return live.NewQuery(name, traced, opts...)
}

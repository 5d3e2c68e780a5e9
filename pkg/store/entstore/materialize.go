package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent"
	entann "entgo.io/ent/dialect/entsql"
	entsql "entgo.io/ent/dialect/sql"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema"
	"go.uber.org/zap"

	entdef "github.com/wilhg/busschedule/internal/ent/schema"
	"github.com/wilhg/busschedule/pkg/schedule"
)

// ScheduleTable is the "schedule" table, derived from the Schedule ent schema.
var ScheduleTable = tableOf(entdef.Schedule{})

type entity interface {
	Fields() []ent.Field
	Indexes() []ent.Index
	Annotations() []schema.Annotation
}

// tableOf builds the migration table of an entity whose first field is its
// integer primary key.
func tableOf(e entity) *entschema.Table {
	name := ""
	for _, a := range e.Annotations() {
		if ann, ok := a.(entann.Annotation); ok && ann.Table != "" {
			name = ann.Table
		}
	}
	t := entschema.NewTable(name)
	for i, f := range e.Fields() {
		d := f.Descriptor()
		if i == 0 {
			t.AddPrimary(&entschema.Column{Name: d.Name, Type: d.Info.Type, Increment: true})
			continue
		}
		t.AddColumn(&entschema.Column{Name: d.Name, Type: d.Info.Type})
	}
	for _, ix := range e.Indexes() {
		d := ix.Descriptor()
		t.AddIndex(d.StorageKey, d.Unique, d.Fields)
	}
	return t
}

// Materialize creates the schedule table and fills it with rows when it is empty.
// It runs once while the store handle is constructed; the store is read-only afterwards.
// A table that already holds rows is left untouched.
func (s *Store) Materialize(ctx context.Context, rows []schedule.Schedule) error {
	m, err := entschema.NewMigrate(s.drv)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := m.Create(ctx, ScheduleTable); err != nil {
		return fmt.Errorf("create schedule table: %w", err)
	}

	n, err := s.count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("schedule table already populated", zap.Int("rows", n))
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	b := entsql.Dialect(s.dialect)
	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		ins := b.Insert(schedule.Table).Columns(schedule.ColumnID, schedule.ColumnStopName, schedule.ColumnArrivalTime)
		for _, r := range rows[start:end] {
			ins.Values(r.ID, r.StopName, r.ArrivalTime)
		}
		q, args := ins.Query()
		var res sql.Result
		if err := tx.Exec(ctx, q, args, &res); err != nil {
			return fmt.Errorf("insert schedules: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info("schedule table materialized", zap.Int("rows", len(rows)))
	s.tracker.Notify(schedule.Table)
	return nil
}

func (s *Store) count(ctx context.Context) (int, error) {
	b := entsql.Dialect(s.dialect)
	q, args := b.Select(entsql.Count("*")).From(b.Table(schedule.Table)).Query()
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, q, args, rows); err != nil {
		return 0, fmt.Errorf("count schedules: %w", err)
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

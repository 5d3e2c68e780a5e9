package entstore

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wilhg/busschedule/pkg/errmodel"
	"github.com/wilhg/busschedule/pkg/schedule"
)

func TestSQLiteAllOrderedByArrival(t *testing.T) {
	st := openSQLite(t, "ent-all", scenarioRows())

	got, err := st.All(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(scenarioRows(), got); diff != "" {
		t.Fatalf("all mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].ArrivalTime > got[i].ArrivalTime {
			t.Fatalf("not ordered at %d: %+v", i, got)
		}
	}
}

func TestSQLiteByStopNameExactMatch(t *testing.T) {
	st := openSQLite(t, "ent-stop", scenarioRows())

	got, err := st.ByStopName(t.Context(), "Main St")
	if err != nil {
		t.Fatal(err)
	}
	want := []schedule.Schedule{
		{ID: 1, StopName: "Main St", ArrivalTime: 28800},
		{ID: 3, StopName: "Main St", ArrivalTime: 32400},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("by stop mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{"main st", "Main", "", "Main St%"} {
		got, err := st.ByStopName(t.Context(), name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if len(got) != 0 {
			t.Fatalf("%q: len=%d want 0", name, len(got))
		}
	}
}

func TestSQLiteMaterializeIsOneShot(t *testing.T) {
	st := openSQLite(t, "ent-once", scenarioRows())
	ch, stop := st.Tracker().Observe(schedule.Table)
	defer stop()

	// A populated table is never rewritten.
	if err := st.Materialize(t.Context(), []schedule.Schedule{{ID: 9, StopName: "Elm St", ArrivalTime: 1}}); err != nil {
		t.Fatal(err)
	}
	got, err := st.All(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d want 3", len(got))
	}
	select {
	case <-ch:
		t.Fatal("no change notification expected for a populated table")
	default:
	}
}

func TestSQLiteQueryFailure(t *testing.T) {
	st := openSQLite(t, "ent-fail", scenarioRows())
	if err := execRaw(t.Context(), st, "DROP TABLE schedule"); err != nil {
		t.Fatal(err)
	}
	_, err := st.All(t.Context())
	if err == nil {
		t.Fatal("expected query failure")
	}
	if !errmodel.IsCategory(err, errmodel.CategoryStore) || !errmodel.HasCode(err, "query_failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenRejectsUnknownDSN(t *testing.T) {
	for _, dsn := range []string{"", "mysql://localhost/db", "not a dsn"} {
		if _, err := Open(t.Context(), dsn); err == nil {
			t.Fatalf("%q: expected error", dsn)
		}
	}
}

func TestScheduleTableFromSchema(t *testing.T) {
	if ScheduleTable.Name != schedule.Table {
		t.Fatalf("table=%q want %q", ScheduleTable.Name, schedule.Table)
	}
	var names []string
	for _, c := range ScheduleTable.Columns {
		names = append(names, c.Name)
	}
	want := []string{schedule.ColumnID, schedule.ColumnStopName, schedule.ColumnArrivalTime}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
	if len(ScheduleTable.PrimaryKey) != 1 || ScheduleTable.PrimaryKey[0].Name != schedule.ColumnID {
		t.Fatalf("primary key=%v", ScheduleTable.PrimaryKey)
	}
	if len(ScheduleTable.Indexes) != 1 || ScheduleTable.Indexes[0].Name != "schedule_stop_name_arrival_time" {
		t.Fatalf("indexes=%v", ScheduleTable.Indexes)
	}
	if n := len(ScheduleTable.Indexes[0].Columns); n != 2 {
		t.Fatalf("index columns=%d want 2", n)
	}
}

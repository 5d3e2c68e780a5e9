package entstore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/wilhg/busschedule/pkg/schedule"
)

func scenarioRows() []schedule.Schedule {
	return []schedule.Schedule{
		{ID: 1, StopName: "Main St", ArrivalTime: 28800},
		{ID: 2, StopName: "Oak Ave", ArrivalTime: 28800},
		{ID: 3, StopName: "Main St", ArrivalTime: 32400},
	}
}

func sqliteURL(name string) string {
	return fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_fk=1", name)
}

func openSQLite(t *testing.T, name string, rows []schedule.Schedule) *Store {
	t.Helper()
	st, err := Open(t.Context(), sqliteURL(name))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Materialize(t.Context(), rows); err != nil {
		t.Fatal(err)
	}
	return st
}

// execRaw runs a statement directly on the driver, standing in for an
// out-of-band change to the backing database.
func execRaw(ctx context.Context, st *Store, query string, args ...any) error {
	var res sql.Result
	return st.drv.Exec(ctx, query, args, &res)
}

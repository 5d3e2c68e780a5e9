//go:build integration

package entstore

import (
	"context"
	"fmt"
	"testing"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func openPostgres(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	pg, err := tcpostgres.RunContainer(ctx,
		tcpostgres.WithDatabase("busschedule"),
		tcpostgres.WithUsername("busschedule"),
		tcpostgres.WithPassword("busschedule"),
		tcpostgres.WithSQLDriver("pgx"),
	)
	if err != nil {
		t.Skipf("skip: cannot start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	st, err := Open(ctx, dsn)
	if err != nil {
		t.Fatal(fmt.Errorf("open %s: %w", dsn, err))
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestPostgresScheduleQueries(t *testing.T) {
	ctx := context.Background()
	st := openPostgres(t)
	if err := st.Materialize(ctx, scenarioRows()); err != nil {
		t.Fatal(err)
	}

	all, err := st.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != 1 || all[1].ID != 2 || all[2].ID != 3 {
		t.Fatalf("order wrong: %+v", all)
	}

	main, err := st.ByStopName(ctx, "Main St")
	if err != nil {
		t.Fatal(err)
	}
	if len(main) != 2 || main[0].ID != 1 || main[1].ID != 3 {
		t.Fatalf("filter wrong: %+v", main)
	}
}

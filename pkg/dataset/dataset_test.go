package dataset

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/wilhg/busschedule/pkg/errmodel"
)

func TestLoadEmbedded(t *testing.T) {
	rows, err := LoadEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 {
		t.Fatal("embedded dataset is empty")
	}
	for _, r := range rows {
		if r.ID <= 0 || r.StopName == "" {
			t.Fatalf("invalid row: %+v", r)
		}
	}
}

func TestLoad_FromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"db.yaml": {Data: []byte(`
schedules:
  - id: 1
    stop_name: Main St
    arrival_time: 28800
  - id: 2
    stop_name: Oak Ave
    arrival_time: 28800
`)},
	}
	rows, err := Load(fsys, "db.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].StopName != "Main St" || rows[1].ArrivalTime != 28800 {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(fstest.MapFS{}, "missing.yaml")
	if err == nil {
		t.Fatal("expected error for missing asset")
	}
	if !errmodel.HasCode(err, "dataset_unavailable") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist cause: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty stop name": "schedules:\n  - id: 1\n    stop_name: \"\"\n    arrival_time: 1\n",
		"missing field":   "schedules:\n  - id: 1\n    stop_name: Main St\n",
		"extra field":     "schedules:\n  - id: 1\n    stop_name: Main St\n    arrival_time: 1\n    route: 7\n",
		"duplicate id":    "schedules:\n  - id: 1\n    stop_name: A\n    arrival_time: 1\n  - id: 1\n    stop_name: B\n    arrival_time: 2\n",
		"not a document":  "",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(fstest.MapFS{"db.yaml": {Data: []byte(body)}}, "db.yaml")
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errmodel.HasCode(err, "dataset_invalid") {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

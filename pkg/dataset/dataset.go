// Package dataset loads the pre-populated bus schedule that seeds the store.
//
// The dataset ships inside the binary (database/bus_schedule.yaml) and can be
// replaced by a file on disk through configuration. Every document is checked
// against database/schedule.schema.json before it is decoded.
package dataset

import (
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/wilhg/busschedule/pkg/errmodel"
	"github.com/wilhg/busschedule/pkg/schedule"
)

// EmbeddedPath is the location of the bundled dataset inside Assets.
const EmbeddedPath = "database/bus_schedule.yaml"

const schemaPath = "database/schedule.schema.json"

// Assets holds the bundled dataset and its schema.
//
//go:embed database/bus_schedule.yaml database/schedule.schema.json
var Assets embed.FS

type document struct {
	Schedules []schedule.Schedule `yaml:"schedules"`
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := fs.ReadFile(Assets, schemaPath)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("mem://schedule.schema.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("mem://schedule.schema.json")
})

// LoadEmbedded loads the dataset bundled with the binary.
func LoadEmbedded() ([]schedule.Schedule, error) {
	return Load(Assets, EmbeddedPath)
}

// Load reads, validates and decodes the dataset at path in fsys.
// Rows are returned in document order.
func Load(fsys fs.FS, path string) ([]schedule.Schedule, error) {
	if fsys == nil || path == "" {
		return nil, errmodel.System("dataset_unavailable", "no dataset configured", nil, nil)
	}
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errmodel.System("dataset_unavailable", "read dataset", map[string]any{"path": path}, err)
	}
	if err := validate(raw); err != nil {
		return nil, errmodel.New(errmodel.CategoryValidation, "dataset_invalid", "dataset does not match schema", map[string]any{"path": path}, err)
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errmodel.New(errmodel.CategoryValidation, "dataset_invalid", "decode dataset", map[string]any{"path": path}, err)
	}
	seen := make(map[int64]struct{}, len(doc.Schedules))
	for _, s := range doc.Schedules {
		if _, dup := seen[s.ID]; dup {
			return nil, errmodel.Validation("dataset_invalid", "duplicate schedule id", map[string]any{"path": path, "id": s.ID})
		}
		seen[s.ID] = struct{}{}
	}
	return doc.Schedules, nil
}

func validate(raw []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}
	if generic == nil {
		return errors.New("empty document")
	}
	// Round-trip through JSON so the validator sees JSON-native types.
	b, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return sch.Validate(v)
}

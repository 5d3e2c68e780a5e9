package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	entschema "entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Schedule holds the schema definition for the Schedule entity.
type Schedule struct{ ent.Schema }

// Annotations of the Schedule.
func (Schedule) Annotations() []entschema.Annotation {
	return []entschema.Annotation{entsql.Annotation{Table: "schedule"}}
}

// Fields of the Schedule.
func (Schedule) Fields() []ent.Field {
	return []ent.Field{
		// Stable identity shipped with the dataset.
		field.Int64("id").Positive().Immutable(),
		field.String("stop_name").NotEmpty().Immutable(),
		// Seconds since the Unix epoch.
		field.Int64("arrival_time").NonNegative().Immutable(),
	}
}

// Indexes of the Schedule.
func (Schedule) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("stop_name", "arrival_time").StorageKey("schedule_stop_name_arrival_time"),
	}
}

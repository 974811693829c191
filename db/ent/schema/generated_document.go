package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
)

type GeneratedDocument struct{ ent.Schema }

func (GeneratedDocument) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "generated_documents"},
	}
}

func (GeneratedDocument) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("application_id", uuid.UUID{}),
		field.UUID("generation_task_id", uuid.UUID{}).Optional().Nillable(),
		field.String("doc_type").NotEmpty(),
		field.String("format").Default(constants.FormatText),
		field.String("storage_path").MaxLen(2048),
		field.Text("content"),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (GeneratedDocument) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("application", Application.Type).
			Ref("generated_documents").
			Field("application_id").
			Unique().
			Required(),
		edge.From("generation_task", GenerationTask.Type).
			Ref("documents").
			Field("generation_task_id").
			Unique(),
	}
}

func (GeneratedDocument) Indexes() []ent.Index {
	return []ent.Index{
		// a redelivered task must not produce a second row per doc type
		index.Fields("generation_task_id", "doc_type").Unique(),
		index.Fields("application_id"),
	}
}

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
	"github.com/joseph-ayodele/jobapply/db/ent/schema/utils"
)

var taskStatuses = []string{
	string(constants.TaskStatusPending),
	string(constants.TaskStatusProcessing),
	string(constants.TaskStatusCompleted),
	string(constants.TaskStatusFailed),
}

type GenerationTask struct{ ent.Schema }

func (GenerationTask) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "generation_tasks"},
	}
}

func (GenerationTask) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("application_id", uuid.UUID{}),
		field.UUID("user_id", uuid.UUID{}),
		field.String("status").
			Default(string(constants.TaskStatusPending)).
			Validate(utils.EnumValidator(taskStatuses...)),
		field.Int("progress").Default(0).Range(0, 100),
		field.Int("total_docs").Default(0),
		field.Int("completed_docs").Default(0),
		field.Text("error_message").Optional().Nillable(),
		// JSON array of the requested doc types, in request order
		field.Text("doc_types"),
		field.Time("created_at").Default(time.Now).Immutable(),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (GenerationTask) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("application", Application.Type).
			Ref("generation_tasks").
			Field("application_id").
			Unique().
			Required(),
		edge.To("documents", GeneratedDocument.Type).
			Annotations(entsql.OnDelete(entsql.SetNull)),
	}
}

func (GenerationTask) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("application_id"),
	}
}

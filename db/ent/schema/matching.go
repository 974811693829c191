package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/db/ent/schema/utils"
)

type MatchingScoreTask struct{ ent.Schema }

func (MatchingScoreTask) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "matching_score_tasks"},
	}
}

func (MatchingScoreTask) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("application_id", uuid.UUID{}),
		field.UUID("user_id", uuid.UUID{}),
		field.String("status").
			Default(string(constants.TaskStatusPending)).
			Validate(utils.EnumValidator(taskStatuses...)),
		field.Bool("recalculate").Default(false),
		field.Text("error_message").Optional().Nillable(),
		field.Time("created_at").Default(time.Now).Immutable(),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (MatchingScoreTask) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("application", Application.Type).
			Ref("matching_score_tasks").
			Field("application_id").
			Unique().
			Required(),
	}
}

// MatchingScore holds the latest score of an application; recalculation overwrites it.
type MatchingScore struct{ ent.Schema }

func (MatchingScore) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "matching_scores"},
	}
}

func (MatchingScore) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("application_id", uuid.UUID{}).Unique(),
		field.Int("overall_score").Range(0, 100),
		field.Text("strengths"),
		field.Text("gaps"),
		field.Text("recommendations"),
		field.Text("story").Optional().Nillable(),
		field.Time("created_at").Default(time.Now).Immutable(),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (MatchingScore) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("application", Application.Type).
			Ref("matching_score").
			Field("application_id").
			Unique().
			Required(),
	}
}

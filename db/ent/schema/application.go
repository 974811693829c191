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

type Application struct{ ent.Schema }

func (Application) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "applications"},
	}
}

func (Application) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("user_id", uuid.UUID{}),
		field.String("job_title"),
		field.String("company"),
		field.String("job_offer_url").MaxLen(2048).Optional().Nillable(),
		field.Text("opportunity_context").Optional().Nillable(),
		field.Bool("is_spontaneous").Default(false),
		field.String("application_type").
			Default(string(constants.ApplicationFulltime)).
			Validate(utils.EnumValidator(
				string(constants.ApplicationFulltime),
				string(constants.ApplicationInternship),
				string(constants.ApplicationApprenticeship),
			)),
		field.String("documentation_language").Optional().Nillable(),
		field.Bool("applied").Default(false),
		field.Time("applied_at").Optional().Nillable(),
		field.String("result").Optional().Nillable(),
		field.Time("created_at").Default(time.Now).Immutable(),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (Application) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("applications").
			Field("user_id").
			Unique().
			Required(),
		edge.To("generation_tasks", GenerationTask.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("generated_documents", GeneratedDocument.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("matching_score_tasks", MatchingScoreTask.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("matching_score", MatchingScore.Type).
			Unique().
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (Application) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
	}
}

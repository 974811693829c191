package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// User is read by the generation pipeline; its credits column is the ledger balance.
type User struct{ ent.Schema }

func (User) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "users"},
	}
}

func (User) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.String("email").Unique(),
		field.Int("credits").Default(0).NonNegative(),
		field.String("preferred_language").Optional().Nillable(),
		field.String("mother_tongue").Optional().Nillable(),
		field.String("documentation_language").Optional().Nillable(),
		field.String("employment_status").Optional().Nillable(),
		field.String("education_type").Optional().Nillable(),
		field.Text("additional_profile_context").Optional().Nillable(),
		field.Time("created_at").Default(time.Now).Immutable(),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (User) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("applications", Application.Type),
		edge.To("documents", Document.Type),
	}
}

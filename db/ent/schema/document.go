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

// Document is an uploaded CV or reference letter with its extracted text.
type Document struct{ ent.Schema }

func (Document) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "documents"},
	}
}

func (Document) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("user_id", uuid.UUID{}),
		field.String("filename"),
		field.String("doc_type").
			Validate(utils.EnumValidator(constants.UploadedCV, constants.UploadedReference)),
		field.Text("content_text").Optional().Nillable(),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (Document) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("documents").
			Field("user_id").
			Unique().
			Required(),
	}
}

func (Document) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "doc_type"),
	}
}

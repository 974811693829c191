package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"
)

// JobOffer is a scraped posting, matched to applications by URL.
type JobOffer struct{ ent.Schema }

func (JobOffer) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "job_offers"},
	}
}

func (JobOffer) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.String("url").MaxLen(2048),
		field.String("title"),
		field.String("company"),
		field.Text("description").Optional().Nillable(),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (JobOffer) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("url"),
	}
}

package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/db/ent/schema/utils"
)

type DocumentTemplate struct{ ent.Schema }

func (DocumentTemplate) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "document_templates"},
	}
}

func (DocumentTemplate) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.String("doc_type").NotEmpty().Unique(),
		field.String("display_name"),
		field.Int("credit_cost").Default(1).NonNegative(),
		field.String("language_source").
			Default(string(constants.LanguageSourceDocumentation)).
			Validate(utils.EnumValidator(
				string(constants.LanguageSourcePreferred),
				string(constants.LanguageSourceMotherTongue),
				string(constants.LanguageSourceDocumentation),
			)),
		field.String("llm_provider").Default("openai"),
		field.String("llm_model").Default("gpt-4"),
		field.Text("prompt_template"),
		field.Bool("is_active").Default(true),
		field.Time("created_at").Default(time.Now).Immutable(),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "email", Type: field.TypeString, Unique: true},
		{Name: "credits", Type: field.TypeInt, Default: 0},
		{Name: "preferred_language", Type: field.TypeString, Nullable: true},
		{Name: "mother_tongue", Type: field.TypeString, Nullable: true},
		{Name: "documentation_language", Type: field.TypeString, Nullable: true},
		{Name: "employment_status", Type: field.TypeString, Nullable: true},
		{Name: "education_type", Type: field.TypeString, Nullable: true},
		{Name: "additional_profile_context", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
	}

	// ApplicationsColumns holds the columns for the "applications" table.
	ApplicationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "job_title", Type: field.TypeString},
		{Name: "company", Type: field.TypeString},
		{Name: "job_offer_url", Type: field.TypeString, Nullable: true, Size: 2048},
		{Name: "opportunity_context", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "is_spontaneous", Type: field.TypeBool, Default: false},
		{Name: "application_type", Type: field.TypeString, Default: "fulltime"},
		{Name: "documentation_language", Type: field.TypeString, Nullable: true},
		{Name: "applied", Type: field.TypeBool, Default: false},
		{Name: "applied_at", Type: field.TypeTime, Nullable: true},
		{Name: "result", Type: field.TypeString, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	ApplicationsTable = &schema.Table{
		Name:       "applications",
		Columns:    ApplicationsColumns,
		PrimaryKey: []*schema.Column{ApplicationsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "applications_users_applications",
				Columns:    []*schema.Column{ApplicationsColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "application_user_id", Columns: []*schema.Column{ApplicationsColumns[1]}},
		},
	}

	// JobOffersColumns holds the columns for the "job_offers" table.
	JobOffersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "url", Type: field.TypeString, Size: 2048},
		{Name: "title", Type: field.TypeString},
		{Name: "company", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
	}
	JobOffersTable = &schema.Table{
		Name:       "job_offers",
		Columns:    JobOffersColumns,
		PrimaryKey: []*schema.Column{JobOffersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "joboffer_url", Columns: []*schema.Column{JobOffersColumns[1]}},
		},
	}

	// DocumentsColumns holds the columns for the "documents" table.
	DocumentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "filename", Type: field.TypeString},
		{Name: "doc_type", Type: field.TypeString},
		{Name: "content_text", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
	}
	DocumentsTable = &schema.Table{
		Name:       "documents",
		Columns:    DocumentsColumns,
		PrimaryKey: []*schema.Column{DocumentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "documents_users_documents",
				Columns:    []*schema.Column{DocumentsColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "document_user_id_doc_type", Columns: []*schema.Column{DocumentsColumns[1], DocumentsColumns[3]}},
		},
	}

	// DocumentTemplatesColumns holds the columns for the "document_templates" table.
	DocumentTemplatesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "doc_type", Type: field.TypeString, Unique: true},
		{Name: "display_name", Type: field.TypeString},
		{Name: "credit_cost", Type: field.TypeInt, Default: 1},
		{Name: "language_source", Type: field.TypeString, Default: "documentation_language"},
		{Name: "llm_provider", Type: field.TypeString, Default: "openai"},
		{Name: "llm_model", Type: field.TypeString, Default: "gpt-4"},
		{Name: "prompt_template", Type: field.TypeString, Size: 2147483647},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	DocumentTemplatesTable = &schema.Table{
		Name:       "document_templates",
		Columns:    DocumentTemplatesColumns,
		PrimaryKey: []*schema.Column{DocumentTemplatesColumns[0]},
	}

	// GenerationTasksColumns holds the columns for the "generation_tasks" table.
	GenerationTasksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "application_id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "status", Type: field.TypeString, Default: "pending"},
		{Name: "progress", Type: field.TypeInt, Default: 0},
		{Name: "total_docs", Type: field.TypeInt, Default: 0},
		{Name: "completed_docs", Type: field.TypeInt, Default: 0},
		{Name: "error_message", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "doc_types", Type: field.TypeString, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	GenerationTasksTable = &schema.Table{
		Name:       "generation_tasks",
		Columns:    GenerationTasksColumns,
		PrimaryKey: []*schema.Column{GenerationTasksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "generation_tasks_applications_generation_tasks",
				Columns:    []*schema.Column{GenerationTasksColumns[1]},
				RefColumns: []*schema.Column{ApplicationsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "generationtask_application_id", Columns: []*schema.Column{GenerationTasksColumns[1]}},
		},
	}

	// GeneratedDocumentsColumns holds the columns for the "generated_documents" table.
	GeneratedDocumentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "application_id", Type: field.TypeUUID},
		{Name: "generation_task_id", Type: field.TypeUUID, Nullable: true},
		{Name: "doc_type", Type: field.TypeString},
		{Name: "format", Type: field.TypeString, Default: "TEXT"},
		{Name: "storage_path", Type: field.TypeString, Size: 2048},
		{Name: "content", Type: field.TypeString, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
	}
	GeneratedDocumentsTable = &schema.Table{
		Name:       "generated_documents",
		Columns:    GeneratedDocumentsColumns,
		PrimaryKey: []*schema.Column{GeneratedDocumentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "generated_documents_applications_generated_documents",
				Columns:    []*schema.Column{GeneratedDocumentsColumns[1]},
				RefColumns: []*schema.Column{ApplicationsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "generated_documents_generation_tasks_documents",
				Columns:    []*schema.Column{GeneratedDocumentsColumns[2]},
				RefColumns: []*schema.Column{GenerationTasksColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{Name: "generateddocument_generation_task_id_doc_type", Unique: true, Columns: []*schema.Column{GeneratedDocumentsColumns[2], GeneratedDocumentsColumns[3]}},
			{Name: "generateddocument_application_id", Columns: []*schema.Column{GeneratedDocumentsColumns[1]}},
		},
	}

	// MatchingScoreTasksColumns holds the columns for the "matching_score_tasks" table.
	MatchingScoreTasksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "application_id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "status", Type: field.TypeString, Default: "pending"},
		{Name: "recalculate", Type: field.TypeBool, Default: false},
		{Name: "error_message", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	MatchingScoreTasksTable = &schema.Table{
		Name:       "matching_score_tasks",
		Columns:    MatchingScoreTasksColumns,
		PrimaryKey: []*schema.Column{MatchingScoreTasksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "matching_score_tasks_applications_matching_score_tasks",
				Columns:    []*schema.Column{MatchingScoreTasksColumns[1]},
				RefColumns: []*schema.Column{ApplicationsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// MatchingScoresColumns holds the columns for the "matching_scores" table.
	MatchingScoresColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "application_id", Type: field.TypeUUID, Unique: true},
		{Name: "overall_score", Type: field.TypeInt},
		{Name: "strengths", Type: field.TypeString, Size: 2147483647},
		{Name: "gaps", Type: field.TypeString, Size: 2147483647},
		{Name: "recommendations", Type: field.TypeString, Size: 2147483647},
		{Name: "story", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	MatchingScoresTable = &schema.Table{
		Name:       "matching_scores",
		Columns:    MatchingScoresColumns,
		PrimaryKey: []*schema.Column{MatchingScoresColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "matching_scores_applications_matching_score",
				Columns:    []*schema.Column{MatchingScoresColumns[1]},
				RefColumns: []*schema.Column{ApplicationsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{
		UsersTable,
		ApplicationsTable,
		JobOffersTable,
		DocumentsTable,
		DocumentTemplatesTable,
		GenerationTasksTable,
		GeneratedDocumentsTable,
		MatchingScoreTasksTable,
		MatchingScoresTable,
	}
)

func init() {
	ApplicationsTable.ForeignKeys[0].RefTable = UsersTable
	DocumentsTable.ForeignKeys[0].RefTable = UsersTable
	GenerationTasksTable.ForeignKeys[0].RefTable = ApplicationsTable
	GeneratedDocumentsTable.ForeignKeys[0].RefTable = ApplicationsTable
	GeneratedDocumentsTable.ForeignKeys[1].RefTable = GenerationTasksTable
	MatchingScoreTasksTable.ForeignKeys[0].RefTable = ApplicationsTable
	MatchingScoresTable.ForeignKeys[0].RefTable = ApplicationsTable
}

// Migrate creates or upgrades the schema to match Tables. Columns and indexes
// are only ever added.
func (db *DB) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(db.drv)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		db.logger.Error("schema migration failed", "error", err)
		return fmt.Errorf("create schema: %w", err)
	}
	db.logger.Info("schema migration completed", "tables", len(Tables))
	return nil
}

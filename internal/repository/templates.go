package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/internal/entity"
)

var templateColumns = []string{
	"id", "doc_type", "display_name", "credit_cost", "language_source",
	"llm_provider", "llm_model", "prompt_template", "is_active", "created_at", "updated_at",
}

func scanTemplate(rs rowScanner) (*entity.DocumentTemplate, error) {
	t := &entity.DocumentTemplate{}
	err := rs.Scan(&t.ID, &t.DocType, &t.DisplayName, &t.CreditCost, &t.LanguageSource,
		&t.LLMProvider, &t.LLMModel, &t.PromptTemplate, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type TemplateRepository interface {
	// ActiveByDocTypes returns the active templates for docTypes keyed by doc type.
	ActiveByDocTypes(ctx context.Context, docTypes []string) (map[string]*entity.DocumentTemplate, error)
	GetByDocType(ctx context.Context, docType string) (*entity.DocumentTemplate, error)
	Create(ctx context.Context, t *entity.DocumentTemplate) (*entity.DocumentTemplate, error)
	Update(ctx context.Context, t *entity.DocumentTemplate) error
	List(ctx context.Context) ([]*entity.DocumentTemplate, error)
}

type templateRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewTemplateRepository(db *DB, logger *slog.Logger) TemplateRepository {
	return &templateRepository{
		db:     db,
		logger: logger,
	}
}

func (r *templateRepository) ActiveByDocTypes(ctx context.Context, docTypes []string) (map[string]*entity.DocumentTemplate, error) {
	out := make(map[string]*entity.DocumentTemplate, len(docTypes))
	if len(docTypes) == 0 {
		return out, nil
	}
	args := make([]any, len(docTypes))
	for i, dt := range docTypes {
		args[i] = dt
	}
	b := r.db.builder()
	q := b.Select(templateColumns...).From(b.Table(DocumentTemplatesTable.Name)).
		Where(entsql.And(entsql.In("doc_type", args...), entsql.EQ("is_active", true)))
	rows, err := queryAll(ctx, r.db, q, scanTemplate)
	if err != nil {
		r.logger.Error("failed to load templates", "doc_types", docTypes, "error", err)
		return nil, err
	}
	for _, t := range rows {
		out[t.DocType] = t
	}
	return out, nil
}

func (r *templateRepository) GetByDocType(ctx context.Context, docType string) (*entity.DocumentTemplate, error) {
	b := r.db.builder()
	q := b.Select(templateColumns...).From(b.Table(DocumentTemplatesTable.Name)).Where(entsql.EQ("doc_type", docType))
	return queryOne(ctx, r.db, q, "document template", scanTemplate)
}

func (r *templateRepository) Create(ctx context.Context, t *entity.DocumentTemplate) (*entity.DocumentTemplate, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	ts := now()
	t.CreatedAt, t.UpdatedAt = ts, ts
	q := r.db.builder().Insert(DocumentTemplatesTable.Name).
		Columns(templateColumns...).
		Values(t.ID, t.DocType, t.DisplayName, t.CreditCost, t.LanguageSource,
			t.LLMProvider, t.LLMModel, t.PromptTemplate, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to create template", "doc_type", t.DocType, "error", err)
		return nil, err
	}
	return t, nil
}

func (r *templateRepository) Update(ctx context.Context, t *entity.DocumentTemplate) error {
	t.UpdatedAt = now()
	q := r.db.builder().Update(DocumentTemplatesTable.Name).
		Set("display_name", t.DisplayName).
		Set("credit_cost", t.CreditCost).
		Set("language_source", t.LanguageSource).
		Set("llm_provider", t.LLMProvider).
		Set("llm_model", t.LLMModel).
		Set("prompt_template", t.PromptTemplate).
		Set("is_active", t.IsActive).
		Set("updated_at", t.UpdatedAt).
		Where(entsql.EQ("doc_type", t.DocType))
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to update template", "doc_type", t.DocType, "error", err)
		return err
	}
	return nil
}

func (r *templateRepository) List(ctx context.Context) ([]*entity.DocumentTemplate, error) {
	b := r.db.builder()
	q := b.Select(templateColumns...).From(b.Table(DocumentTemplatesTable.Name)).OrderBy("doc_type")
	return queryAll(ctx, r.db, q, scanTemplate)
}

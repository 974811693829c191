package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/internal/entity"
)

var documentColumns = []string{"id", "user_id", "filename", "doc_type", "content_text", "created_at"}

func scanDocument(rs rowScanner) (*entity.Document, error) {
	d := &entity.Document{}
	err := rs.Scan(&d.ID, &d.UserID, &d.Filename, &d.DocType, &d.ContentText, &d.CreatedAt)
	return d, err
}

// DocumentRepository reads user uploads (CVs and reference letters).
type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document) (*entity.Document, error)
	// LatestByType returns the most recent upload of docType.
	LatestByType(ctx context.Context, userID uuid.UUID, docType string) (*entity.Document, error)
	// ListByType returns uploads of docType oldest first.
	ListByType(ctx context.Context, userID uuid.UUID, docType string) ([]*entity.Document, error)
}

type documentRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	return &documentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *documentRepository) Create(ctx context.Context, d *entity.Document) (*entity.Document, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now()
	}
	q := r.db.builder().Insert(DocumentsTable.Name).
		Columns(documentColumns...).
		Values(d.ID, d.UserID, d.Filename, d.DocType, deref(d.ContentText), d.CreatedAt)
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to create document", "user_id", d.UserID, "doc_type", d.DocType, "error", err)
		return nil, err
	}
	return d, nil
}

func (r *documentRepository) LatestByType(ctx context.Context, userID uuid.UUID, docType string) (*entity.Document, error) {
	b := r.db.builder()
	q := b.Select(documentColumns...).From(b.Table(DocumentsTable.Name)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("doc_type", docType))).
		OrderBy(entsql.Desc("created_at")).
		Limit(1)
	return queryOne(ctx, r.db, q, "document", scanDocument)
}

func (r *documentRepository) ListByType(ctx context.Context, userID uuid.UUID, docType string) ([]*entity.Document, error) {
	b := r.db.builder()
	q := b.Select(documentColumns...).From(b.Table(DocumentsTable.Name)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("doc_type", docType))).
		OrderBy("created_at")
	docs, err := queryAll(ctx, r.db, q, scanDocument)
	if err != nil {
		r.logger.Error("failed to list documents", "user_id", userID, "doc_type", docType, "error", err)
		return nil, err
	}
	return docs, nil
}

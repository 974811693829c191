package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/entity"
)

var generationTaskColumns = []string{
	"id", "application_id", "user_id", "status", "progress", "total_docs", "completed_docs",
	"error_message", "doc_types", "created_at", "updated_at",
}

func scanGenerationTask(rs rowScanner) (*entity.GenerationTask, error) {
	t := &entity.GenerationTask{}
	err := rs.Scan(&t.ID, &t.ApplicationID, &t.UserID, &t.Status, &t.Progress, &t.TotalDocs, &t.CompletedDocs,
		&t.ErrorMessage, &t.DocTypes, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

var openStatuses = []any{string(constants.TaskStatusPending), string(constants.TaskStatusProcessing)}

// GenerationTaskRepository persists generation task state. Every transition
// is guarded in SQL so a terminal task is never modified again.
type GenerationTaskRepository interface {
	Create(ctx context.Context, t *entity.GenerationTask) (*entity.GenerationTask, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.GenerationTask, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*entity.GenerationTask, error)
	// Start moves an open task to processing and records total. It reports
	// false when the task is already terminal.
	Start(ctx context.Context, id uuid.UUID, total int) (bool, error)
	// Checkpoint records progress and the accumulated error text. Counters never move backwards.
	Checkpoint(ctx context.Context, id uuid.UUID, completed, progress int, errMsg *string) error
	// Finish sets a terminal status. It reports false when the task was already terminal.
	Finish(ctx context.Context, id uuid.UUID, status constants.TaskStatus, progress int, errMsg *string) (bool, error)
}

type generationTaskRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewGenerationTaskRepository(db *DB, logger *slog.Logger) GenerationTaskRepository {
	return &generationTaskRepository{
		db:     db,
		logger: logger,
	}
}

func (r *generationTaskRepository) Create(ctx context.Context, t *entity.GenerationTask) (*entity.GenerationTask, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = constants.TaskStatusPending
	}
	ts := now()
	t.CreatedAt, t.UpdatedAt = ts, ts
	q := r.db.builder().Insert(GenerationTasksTable.Name).
		Columns(generationTaskColumns...).
		Values(t.ID, t.ApplicationID, t.UserID, string(t.Status), t.Progress, t.TotalDocs, t.CompletedDocs,
			deref(t.ErrorMessage), t.DocTypes, t.CreatedAt, t.UpdatedAt)
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to create generation task", "application_id", t.ApplicationID, "error", err)
		return nil, err
	}
	return t, nil
}

func (r *generationTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.GenerationTask, error) {
	b := r.db.builder()
	q := b.Select(generationTaskColumns...).From(b.Table(GenerationTasksTable.Name)).Where(entsql.EQ("id", id))
	return queryOne(ctx, r.db, q, "generation task", scanGenerationTask)
}

func (r *generationTaskRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*entity.GenerationTask, error) {
	b := r.db.builder()
	q := b.Select(generationTaskColumns...).From(b.Table(GenerationTasksTable.Name)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID)))
	return queryOne(ctx, r.db, q, "generation task", scanGenerationTask)
}

func (r *generationTaskRepository) Start(ctx context.Context, id uuid.UUID, total int) (bool, error) {
	q := r.db.builder().Update(GenerationTasksTable.Name).
		Set("status", string(constants.TaskStatusProcessing)).
		Set("total_docs", total).
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.In("status", openStatuses...)))
	n, err := r.db.exec(ctx, q)
	if err != nil {
		r.logger.Error("failed to start generation task", "task_id", id, "error", err)
		return false, err
	}
	return n == 1, nil
}

func (r *generationTaskRepository) Checkpoint(ctx context.Context, id uuid.UUID, completed, progress int, errMsg *string) error {
	q := r.db.builder().Update(GenerationTasksTable.Name).
		Set("completed_docs", completed).
		Set("progress", progress).
		Set("updated_at", now()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("status", string(constants.TaskStatusProcessing)),
			entsql.LTE("completed_docs", completed),
			entsql.LTE("progress", progress),
		))
	if errMsg != nil {
		q.Set("error_message", *errMsg)
	}
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to checkpoint generation task", "task_id", id, "completed", completed, "error", err)
		return err
	}
	return nil
}

func (r *generationTaskRepository) Finish(ctx context.Context, id uuid.UUID, status constants.TaskStatus, progress int, errMsg *string) (bool, error) {
	q := r.db.builder().Update(GenerationTasksTable.Name).
		Set("status", string(status)).
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.In("status", openStatuses...)))
	if errMsg != nil {
		q.Set("error_message", *errMsg)
	}
	if status == constants.TaskStatusCompleted {
		q.Set("progress", progress)
	}
	n, err := r.db.exec(ctx, q)
	if err != nil {
		r.logger.Error("failed to finish generation task", "task_id", id, "status", status, "error", err)
		return false, err
	}
	return n == 1, nil
}

var generatedDocumentColumns = []string{
	"id", "application_id", "generation_task_id", "doc_type", "format", "storage_path", "content", "created_at",
}

func scanGeneratedDocument(rs rowScanner) (*entity.GeneratedDocument, error) {
	d := &entity.GeneratedDocument{}
	err := rs.Scan(&d.ID, &d.ApplicationID, &d.GenerationTaskID, &d.DocType, &d.Format, &d.StoragePath, &d.Content, &d.CreatedAt)
	return d, err
}

// GeneratedDocumentRepository stores generation output. A task produces at
// most one row per doc type.
type GeneratedDocumentRepository interface {
	// Create inserts d and reports false when the task already has a row for d.DocType.
	Create(ctx context.Context, d *entity.GeneratedDocument) (bool, error)
	DocTypesForTask(ctx context.Context, taskID uuid.UUID) (map[string]bool, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entity.GeneratedDocument, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*entity.GeneratedDocument, error)
	// DeleteForApplication removes the given rows of the application, or all of
	// them when ids is empty, and returns what was removed.
	DeleteForApplication(ctx context.Context, applicationID uuid.UUID, ids []uuid.UUID) ([]*entity.GeneratedDocument, error)
}

type generatedDocumentRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewGeneratedDocumentRepository(db *DB, logger *slog.Logger) GeneratedDocumentRepository {
	return &generatedDocumentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *generatedDocumentRepository) Create(ctx context.Context, d *entity.GeneratedDocument) (bool, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Format == "" {
		d.Format = constants.FormatText
	}
	d.CreatedAt = now()
	q := r.db.builder().Insert(GeneratedDocumentsTable.Name).
		Columns(generatedDocumentColumns...).
		Values(d.ID, d.ApplicationID, deref(d.GenerationTaskID), d.DocType, d.Format, d.StoragePath, d.Content, d.CreatedAt).
		OnConflict(
			entsql.ConflictColumns("generation_task_id", "doc_type"),
			entsql.DoNothing(),
		)
	n, err := r.db.exec(ctx, q)
	if err != nil {
		r.logger.Error("failed to create generated document", "application_id", d.ApplicationID, "doc_type", d.DocType, "error", err)
		return false, err
	}
	return n == 1, nil
}

func (r *generatedDocumentRepository) DocTypesForTask(ctx context.Context, taskID uuid.UUID) (map[string]bool, error) {
	b := r.db.builder()
	q := b.Select("doc_type").From(b.Table(GeneratedDocumentsTable.Name)).Where(entsql.EQ("generation_task_id", taskID))
	types, err := queryAll(ctx, r.db, q, func(rs rowScanner) (string, error) {
		var s string
		err := rs.Scan(&s)
		return s, err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(types))
	for _, t := range types {
		out[t] = true
	}
	return out, nil
}

func (r *generatedDocumentRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entity.GeneratedDocument, error) {
	b := r.db.builder()
	q := b.Select(generatedDocumentColumns...).From(b.Table(GeneratedDocumentsTable.Name)).
		Where(entsql.EQ("generation_task_id", taskID)).
		OrderBy("created_at")
	return queryAll(ctx, r.db, q, scanGeneratedDocument)
}

func (r *generatedDocumentRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*entity.GeneratedDocument, error) {
	b := r.db.builder()
	q := b.Select(generatedDocumentColumns...).From(b.Table(GeneratedDocumentsTable.Name)).
		Where(entsql.EQ("application_id", applicationID)).
		OrderBy("created_at")
	return queryAll(ctx, r.db, q, scanGeneratedDocument)
}

func (r *generatedDocumentRepository) DeleteForApplication(ctx context.Context, applicationID uuid.UUID, ids []uuid.UUID) ([]*entity.GeneratedDocument, error) {
	pred := entsql.EQ("application_id", applicationID)
	if len(ids) > 0 {
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		pred = entsql.And(pred, entsql.In("id", args...))
	}
	var removed []*entity.GeneratedDocument
	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		b := r.db.builder()
		sel := b.Select(generatedDocumentColumns...).From(b.Table(GeneratedDocumentsTable.Name)).Where(pred)
		rows, err := queryAll(ctx, r.db, sel, scanGeneratedDocument)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		rowIDs := make([]any, len(rows))
		for i, d := range rows {
			rowIDs[i] = d.ID
		}
		del := r.db.builder().Delete(GeneratedDocumentsTable.Name).Where(entsql.In("id", rowIDs...))
		if _, err := r.db.exec(ctx, del); err != nil {
			return err
		}
		removed = rows
		return nil
	})
	if err != nil {
		r.logger.Error("failed to delete generated documents", "application_id", applicationID, "error", err)
		return nil, err
	}
	return removed, nil
}

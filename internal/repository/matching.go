package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/entity"
)

var matchingTaskColumns = []string{
	"id", "application_id", "user_id", "status", "recalculate", "error_message", "created_at", "updated_at",
}

func scanMatchingTask(rs rowScanner) (*entity.MatchingScoreTask, error) {
	t := &entity.MatchingScoreTask{}
	err := rs.Scan(&t.ID, &t.ApplicationID, &t.UserID, &t.Status, &t.Recalculate, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

var matchingScoreColumns = []string{
	"id", "application_id", "overall_score", "strengths", "gaps", "recommendations", "story", "created_at", "updated_at",
}

func scanMatchingScore(rs rowScanner) (*entity.MatchingScore, error) {
	s := &entity.MatchingScore{}
	err := rs.Scan(&s.ID, &s.ApplicationID, &s.OverallScore, &s.Strengths, &s.Gaps, &s.Recommendations, &s.Story, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// MatchingRepository persists scoring tasks and the per-application score.
type MatchingRepository interface {
	CreateTask(ctx context.Context, t *entity.MatchingScoreTask) (*entity.MatchingScoreTask, error)
	GetTask(ctx context.Context, id uuid.UUID) (*entity.MatchingScoreTask, error)
	GetTaskForUser(ctx context.Context, id, userID uuid.UUID) (*entity.MatchingScoreTask, error)
	StartTask(ctx context.Context, id uuid.UUID) (bool, error)
	FinishTask(ctx context.Context, id uuid.UUID, status constants.TaskStatus, errMsg *string) (bool, error)
	GetScore(ctx context.Context, applicationID uuid.UUID) (*entity.MatchingScore, error)
	// UpsertScore keeps a single row per application, overwriting on recalculation.
	UpsertScore(ctx context.Context, s *entity.MatchingScore) error
}

type matchingRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewMatchingRepository(db *DB, logger *slog.Logger) MatchingRepository {
	return &matchingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *matchingRepository) CreateTask(ctx context.Context, t *entity.MatchingScoreTask) (*entity.MatchingScoreTask, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = constants.TaskStatusPending
	}
	ts := now()
	t.CreatedAt, t.UpdatedAt = ts, ts
	q := r.db.builder().Insert(MatchingScoreTasksTable.Name).
		Columns(matchingTaskColumns...).
		Values(t.ID, t.ApplicationID, t.UserID, string(t.Status), t.Recalculate, deref(t.ErrorMessage), t.CreatedAt, t.UpdatedAt)
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to create matching task", "application_id", t.ApplicationID, "error", err)
		return nil, err
	}
	return t, nil
}

func (r *matchingRepository) GetTask(ctx context.Context, id uuid.UUID) (*entity.MatchingScoreTask, error) {
	b := r.db.builder()
	q := b.Select(matchingTaskColumns...).From(b.Table(MatchingScoreTasksTable.Name)).Where(entsql.EQ("id", id))
	return queryOne(ctx, r.db, q, "matching task", scanMatchingTask)
}

func (r *matchingRepository) GetTaskForUser(ctx context.Context, id, userID uuid.UUID) (*entity.MatchingScoreTask, error) {
	b := r.db.builder()
	q := b.Select(matchingTaskColumns...).From(b.Table(MatchingScoreTasksTable.Name)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID)))
	return queryOne(ctx, r.db, q, "matching task", scanMatchingTask)
}

func (r *matchingRepository) StartTask(ctx context.Context, id uuid.UUID) (bool, error) {
	q := r.db.builder().Update(MatchingScoreTasksTable.Name).
		Set("status", string(constants.TaskStatusProcessing)).
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.In("status", openStatuses...)))
	n, err := r.db.exec(ctx, q)
	if err != nil {
		r.logger.Error("failed to start matching task", "task_id", id, "error", err)
		return false, err
	}
	return n == 1, nil
}

func (r *matchingRepository) FinishTask(ctx context.Context, id uuid.UUID, status constants.TaskStatus, errMsg *string) (bool, error) {
	q := r.db.builder().Update(MatchingScoreTasksTable.Name).
		Set("status", string(status)).
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.In("status", openStatuses...)))
	if errMsg != nil {
		q.Set("error_message", *errMsg)
	}
	n, err := r.db.exec(ctx, q)
	if err != nil {
		r.logger.Error("failed to finish matching task", "task_id", id, "status", status, "error", err)
		return false, err
	}
	return n == 1, nil
}

func (r *matchingRepository) GetScore(ctx context.Context, applicationID uuid.UUID) (*entity.MatchingScore, error) {
	b := r.db.builder()
	q := b.Select(matchingScoreColumns...).From(b.Table(MatchingScoresTable.Name)).Where(entsql.EQ("application_id", applicationID))
	return queryOne(ctx, r.db, q, "matching score", scanMatchingScore)
}

func (r *matchingRepository) UpsertScore(ctx context.Context, s *entity.MatchingScore) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	ts := now()
	s.CreatedAt, s.UpdatedAt = ts, ts
	q := r.db.builder().Insert(MatchingScoresTable.Name).
		Columns(matchingScoreColumns...).
		Values(s.ID, s.ApplicationID, s.OverallScore, s.Strengths, s.Gaps, s.Recommendations, deref(s.Story), s.CreatedAt, s.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("application_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("overall_score")
				u.SetExcluded("strengths")
				u.SetExcluded("gaps")
				u.SetExcluded("recommendations")
				u.SetExcluded("story")
				u.SetExcluded("updated_at")
			}),
		)
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to upsert matching score", "application_id", s.ApplicationID, "error", err)
		return err
	}
	return nil
}

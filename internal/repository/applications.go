package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/internal/entity"
)

var applicationColumns = []string{
	"id", "user_id", "job_title", "company", "job_offer_url", "opportunity_context",
	"is_spontaneous", "application_type", "documentation_language",
	"applied", "applied_at", "result", "created_at", "updated_at",
}

func scanApplication(rs rowScanner) (*entity.Application, error) {
	a := &entity.Application{}
	err := rs.Scan(&a.ID, &a.UserID, &a.JobTitle, &a.Company, &a.JobOfferURL, &a.OpportunityContext,
		&a.IsSpontaneous, &a.ApplicationType, &a.DocumentationLanguage,
		&a.Applied, &a.AppliedAt, &a.Result, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *entity.Application) (*entity.Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	// GetForUser returns NOT_FOUND when the application belongs to another user.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*entity.Application, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Application, error)
}

type applicationRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewApplicationRepository(db *DB, logger *slog.Logger) ApplicationRepository {
	return &applicationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *applicationRepository) Create(ctx context.Context, a *entity.Application) (*entity.Application, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.ApplicationType == "" {
		a.ApplicationType = "fulltime"
	}
	ts := now()
	a.CreatedAt, a.UpdatedAt = ts, ts
	q := r.db.builder().Insert(ApplicationsTable.Name).
		Columns(applicationColumns...).
		Values(a.ID, a.UserID, a.JobTitle, a.Company, deref(a.JobOfferURL), deref(a.OpportunityContext),
			a.IsSpontaneous, a.ApplicationType, deref(a.DocumentationLanguage),
			a.Applied, deref(a.AppliedAt), deref(a.Result), a.CreatedAt, a.UpdatedAt)
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to create application", "user_id", a.UserID, "company", a.Company, "error", err)
		return nil, err
	}
	return a, nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	b := r.db.builder()
	q := b.Select(applicationColumns...).From(b.Table(ApplicationsTable.Name)).Where(entsql.EQ("id", id))
	return queryOne(ctx, r.db, q, "application", scanApplication)
}

func (r *applicationRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*entity.Application, error) {
	b := r.db.builder()
	q := b.Select(applicationColumns...).From(b.Table(ApplicationsTable.Name)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID)))
	return queryOne(ctx, r.db, q, "application", scanApplication)
}

func (r *applicationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Application, error) {
	b := r.db.builder()
	q := b.Select(applicationColumns...).From(b.Table(ApplicationsTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("created_at")
	apps, err := queryAll(ctx, r.db, q, scanApplication)
	if err != nil {
		r.logger.Error("failed to list applications", "user_id", userID, "error", err)
		return nil, err
	}
	return apps, nil
}

var jobOfferColumns = []string{"id", "url", "title", "company", "description", "created_at"}

func scanJobOffer(rs rowScanner) (*entity.JobOffer, error) {
	o := &entity.JobOffer{}
	err := rs.Scan(&o.ID, &o.URL, &o.Title, &o.Company, &o.Description, &o.CreatedAt)
	return o, err
}

type JobOfferRepository interface {
	Create(ctx context.Context, o *entity.JobOffer) (*entity.JobOffer, error)
	// FindByURL returns the newest offer saved under url.
	FindByURL(ctx context.Context, url string) (*entity.JobOffer, error)
}

type jobOfferRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewJobOfferRepository(db *DB, logger *slog.Logger) JobOfferRepository {
	return &jobOfferRepository{
		db:     db,
		logger: logger,
	}
}

func (r *jobOfferRepository) Create(ctx context.Context, o *entity.JobOffer) (*entity.JobOffer, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = now()
	q := r.db.builder().Insert(JobOffersTable.Name).
		Columns(jobOfferColumns...).
		Values(o.ID, o.URL, o.Title, o.Company, deref(o.Description), o.CreatedAt)
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to create job offer", "url", o.URL, "error", err)
		return nil, err
	}
	return o, nil
}

func (r *jobOfferRepository) FindByURL(ctx context.Context, url string) (*entity.JobOffer, error) {
	b := r.db.builder()
	q := b.Select(jobOfferColumns...).From(b.Table(JobOffersTable.Name)).
		Where(entsql.EQ("url", url)).
		OrderBy(entsql.Desc("created_at")).
		Limit(1)
	return queryOne(ctx, r.db, q, "job offer", scanJobOffer)
}

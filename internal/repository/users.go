package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/internal/entity"
)

var userColumns = []string{
	"id", "email", "credits",
	"preferred_language", "mother_tongue", "documentation_language",
	"employment_status", "education_type", "additional_profile_context",
	"created_at", "updated_at",
}

func scanUser(rs rowScanner) (*entity.User, error) {
	u := &entity.User{}
	err := rs.Scan(&u.ID, &u.Email, &u.Credits,
		&u.PreferredLanguage, &u.MotherTongue, &u.DocumentationLanguage,
		&u.EmploymentStatus, &u.EducationType, &u.AdditionalProfileContext,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

type UserRepository interface {
	Create(ctx context.Context, u *entity.User) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Credits(ctx context.Context, id uuid.UUID) (int, error)
	// DebitCredits subtracts amount only if the balance covers it. It reports
	// false when the balance is too low.
	DebitCredits(ctx context.Context, id uuid.UUID, amount int) (bool, error)
	// AddCredits applies delta unless the result would be negative.
	AddCredits(ctx context.Context, id uuid.UUID, delta int) (bool, error)
}

type userRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewUserRepository(db *DB, logger *slog.Logger) UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	ts := now()
	u.CreatedAt, u.UpdatedAt = ts, ts
	q := r.db.builder().Insert(UsersTable.Name).
		Columns(userColumns...).
		Values(u.ID, u.Email, u.Credits,
			deref(u.PreferredLanguage), deref(u.MotherTongue), deref(u.DocumentationLanguage),
			deref(u.EmploymentStatus), deref(u.EducationType), deref(u.AdditionalProfileContext),
			u.CreatedAt, u.UpdatedAt)
	if _, err := r.db.exec(ctx, q); err != nil {
		r.logger.Error("failed to create user", "email", u.Email, "error", err)
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	b := r.db.builder()
	q := b.Select(userColumns...).From(b.Table(UsersTable.Name)).Where(entsql.EQ("id", id))
	return queryOne(ctx, r.db, q, "user", scanUser)
}

func (r *userRepository) Credits(ctx context.Context, id uuid.UUID) (int, error) {
	b := r.db.builder()
	q := r.db.forUpdate(b.Select("credits").From(b.Table(UsersTable.Name)).Where(entsql.EQ("id", id)))
	return queryOne(ctx, r.db, q, "user", func(rs rowScanner) (int, error) {
		var c int
		err := rs.Scan(&c)
		return c, err
	})
}

func (r *userRepository) DebitCredits(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	q := r.db.builder().Update(UsersTable.Name).
		Add("credits", -amount).
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.GTE("credits", amount)))
	n, err := r.db.exec(ctx, q)
	if err != nil {
		r.logger.Error("failed to debit credits", "user_id", id, "amount", amount, "error", err)
		return false, err
	}
	return n == 1, nil
}

func (r *userRepository) AddCredits(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	q := r.db.builder().Update(UsersTable.Name).
		Add("credits", delta).
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.GTE("credits", -delta)))
	n, err := r.db.exec(ctx, q)
	if err != nil {
		r.logger.Error("failed to add credits", "user_id", id, "delta", delta, "error", err)
		return false, err
	}
	return n == 1, nil
}

// Package repotest opens throwaway SQLite databases for package tests.
package repotest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/repository"
)

// Logger discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Env is a migrated database and its repositories.
type Env struct {
	DB    *repository.DB
	Repos *repository.Repositories
}

// New opens a fresh migrated SQLite file under t.TempDir.
func New(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "jobapply.db")
	db, err := repository.OpenSQLite(ctx, dsn, Logger())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return &Env{DB: db, Repos: repository.NewRepositories(db, Logger())}
}

// User inserts a user with the given balance and documentation language.
func (e *Env) User(t *testing.T, credits int, lang string) *entity.User {
	t.Helper()
	u := &entity.User{Email: fmt.Sprintf("%s@example.com", uuid.NewString()), Credits: credits}
	if lang != "" {
		u.DocumentationLanguage = &lang
	}
	u, err := e.Repos.Users.Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

// Application inserts a fulltime application for userID.
func (e *Env) Application(t *testing.T, userID uuid.UUID) *entity.Application {
	t.Helper()
	a, err := e.Repos.Applications.Create(context.Background(), &entity.Application{
		UserID:          userID,
		JobTitle:        "Backend Engineer",
		Company:         "Acme AG",
		ApplicationType: string(constants.ApplicationFulltime),
	})
	require.NoError(t, err)
	return a
}

// CV uploads a CV with the given extracted text.
func (e *Env) CV(t *testing.T, userID uuid.UUID, text string) *entity.Document {
	t.Helper()
	d, err := e.Repos.Documents.Create(context.Background(), &entity.Document{
		UserID:      userID,
		Filename:    "cv.pdf",
		DocType:     constants.UploadedCV,
		ContentText: &text,
	})
	require.NoError(t, err)
	return d
}

// Template inserts an active template.
func (e *Env) Template(t *testing.T, docType, prompt string, cost int) *entity.DocumentTemplate {
	t.Helper()
	tpl, err := e.Repos.Templates.Create(context.Background(), &entity.DocumentTemplate{
		DocType:        docType,
		DisplayName:    docType,
		CreditCost:     cost,
		LanguageSource: string(constants.LanguageSourceDocumentation),
		LLMProvider:    "openai",
		LLMModel:       "gpt-4",
		PromptTemplate: prompt,
		IsActive:       true,
	})
	require.NoError(t, err)
	return tpl
}

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/repository"
	"github.com/joseph-ayodele/jobapply/internal/repository/repotest"
)

func TestUserCredits(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	u := env.User(t, 3, "en")

	ok, err := env.Repos.Users.DebitCredits(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Repos.Users.DebitCredits(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "debit beyond balance must be refused")

	bal, err := env.Repos.Users.Credits(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bal)

	ok, err = env.Repos.Users.AddCredits(ctx, u.ID, -2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.Repos.Users.AddCredits(ctx, u.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := env.Repos.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Credits)
	require.NotNil(t, got.DocumentationLanguage)
	assert.Equal(t, "en", *got.DocumentationLanguage)
}

func TestGetByIDNotFound(t *testing.T) {
	env := repotest.New(t)
	_, err := env.Repos.Users.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))
}

func TestApplicationOwnership(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	owner := env.User(t, 0, "")
	other := env.User(t, 0, "")
	app := env.Application(t, owner.ID)

	got, err := env.Repos.Applications.GetForUser(ctx, app.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme AG", got.Company)
	assert.Nil(t, got.JobOfferURL)

	_, err = env.Repos.Applications.GetForUser(ctx, app.ID, other.ID)
	assert.True(t, repository.IsNotFound(err))
}

func TestLatestCV(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	u := env.User(t, 0, "")
	old := env.CV(t, u.ID, "old")
	_, err := env.Repos.Documents.Create(ctx, &entity.Document{
		UserID:      u.ID,
		Filename:    "cv2.pdf",
		DocType:     constants.UploadedCV,
		ContentText: strPtr("new"),
		CreatedAt:   old.CreatedAt.Add(time.Second),
	})
	require.NoError(t, err)

	cv, err := env.Repos.Documents.LatestByType(ctx, u.ID, constants.UploadedCV)
	require.NoError(t, err)
	assert.Equal(t, "new", *cv.ContentText)

	_, err = env.Repos.Documents.LatestByType(ctx, u.ID, constants.UploadedReference)
	assert.True(t, repository.IsNotFound(err))
}

func TestTemplatesActiveByDocTypes(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	env.Template(t, "A", "prompt a", 1)
	b := env.Template(t, "B", "prompt b", 2)
	b.IsActive = false
	require.NoError(t, env.Repos.Templates.Update(ctx, b))

	got, err := env.Repos.Templates.ActiveByDocTypes(ctx, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "prompt a", got["A"].PromptTemplate)
}

func TestGenerationTaskTransitions(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	u := env.User(t, 0, "")
	app := env.Application(t, u.ID)
	repo := env.Repos.GenerationTasks

	task, err := repo.Create(ctx, &entity.GenerationTask{
		ApplicationID: app.ID,
		UserID:        u.ID,
		DocTypes:      entity.StringList{"A", "B"},
	})
	require.NoError(t, err)

	started, err := repo.Start(ctx, task.ID, 2)
	require.NoError(t, err)
	assert.True(t, started)

	require.NoError(t, repo.Checkpoint(ctx, task.ID, 1, 50, nil))
	require.NoError(t, repo.Checkpoint(ctx, task.ID, 0, 0, nil))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusProcessing, got.Status)
	assert.Equal(t, 1, got.CompletedDocs)
	assert.Equal(t, 50, got.Progress)
	assert.Equal(t, entity.StringList{"A", "B"}, got.DocTypes)

	done, err := repo.Finish(ctx, task.ID, constants.TaskStatusCompleted, 100, nil)
	require.NoError(t, err)
	assert.True(t, done)

	msg := "late failure"
	done, err = repo.Finish(ctx, task.ID, constants.TaskStatusFailed, 0, &msg)
	require.NoError(t, err)
	assert.False(t, done, "terminal task must not change")

	started, err = repo.Start(ctx, task.ID, 2)
	require.NoError(t, err)
	assert.False(t, started)

	got, err = repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Nil(t, got.ErrorMessage)
}

func TestGeneratedDocumentUniquePerTask(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	u := env.User(t, 0, "")
	app := env.Application(t, u.ID)
	task, err := env.Repos.GenerationTasks.Create(ctx, &entity.GenerationTask{ApplicationID: app.ID, UserID: u.ID})
	require.NoError(t, err)

	doc := func() *entity.GeneratedDocument {
		return &entity.GeneratedDocument{
			ApplicationID:    app.ID,
			GenerationTaskID: &task.ID,
			DocType:          "A",
			StoragePath:      "x/a.txt",
			Content:          "hello",
		}
	}
	inserted, err := env.Repos.GeneratedDocuments.Create(ctx, doc())
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = env.Repos.GeneratedDocuments.Create(ctx, doc())
	require.NoError(t, err)
	assert.False(t, inserted)

	types, err := env.Repos.GeneratedDocuments.DocTypesForTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"A": true}, types)

	removed, err := env.Repos.GeneratedDocuments.DeleteForApplication(ctx, app.ID, nil)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	left, err := env.Repos.GeneratedDocuments.ListByApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestMatchingScoreUpsert(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	u := env.User(t, 0, "")
	app := env.Application(t, u.ID)
	repo := env.Repos.Matching

	require.NoError(t, repo.UpsertScore(ctx, &entity.MatchingScore{
		ApplicationID: app.ID,
		OverallScore:  40,
		Strengths:     entity.StringList{"Go"},
	}))
	require.NoError(t, repo.UpsertScore(ctx, &entity.MatchingScore{
		ApplicationID: app.ID,
		OverallScore:  80,
		Gaps:          entity.StringList{"Kubernetes"},
	}))

	got, err := repo.GetScore(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.OverallScore)
	assert.Empty(t, got.Strengths)
	assert.Equal(t, entity.StringList{"Kubernetes"}, got.Gaps)
}

func TestWithTxRollsBack(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	u := env.User(t, 5, "")
	boom := errors.New("boom")

	err := env.DB.WithTx(ctx, func(ctx context.Context) error {
		ok, err := env.Repos.Users.DebitCredits(ctx, u.ID, 5)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)

	bal, err := env.Repos.Users.Credits(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, bal)
}

func strPtr(s string) *string { return &s }

package sources_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/repository/repotest"
	"github.com/joseph-ayodele/jobapply/internal/sources"
)

func newSources(env *repotest.Env) *sources.Sources {
	return sources.New(env.Repos.Users, env.Repos.Documents, env.Repos.JobOffers, repotest.Logger())
}

func strPtr(s string) *string { return &s }

func TestCVText(t *testing.T) {
	env := repotest.New(t)
	src := newSources(env)
	ctx := context.Background()
	u := env.User(t, 0, "")

	_, err := src.CVText(ctx, u.ID)
	assert.ErrorIs(t, err, sources.ErrNoCV)

	env.CV(t, u.ID, "   ")
	_, err = src.CVText(ctx, u.ID)
	assert.ErrorIs(t, err, sources.ErrNoCV, "a CV without text is unusable")

	_, err = env.Repos.Documents.Create(ctx, &entity.Document{
		UserID:      u.ID,
		Filename:    "cv-2025.pdf",
		DocType:     constants.UploadedCV,
		ContentText: strPtr("Go engineer"),
		CreatedAt:   time.Now().UTC().Add(time.Minute),
	})
	require.NoError(t, err)

	text, err := src.CVText(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go engineer", text)
}

func TestReferenceLetters(t *testing.T) {
	env := repotest.New(t)
	src := newSources(env)
	ctx := context.Background()
	u := env.User(t, 0, "")

	out, err := src.ReferenceLetters(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, out)

	base := time.Now().UTC()
	for i, text := range []*string{strPtr("Reliable."), nil} {
		_, err := env.Repos.Documents.Create(ctx, &entity.Document{
			UserID:      u.ID,
			Filename:    "ref.pdf",
			DocType:     constants.UploadedReference,
			ContentText: text,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	out, err = src.ReferenceLetters(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "--- Reference Letter 1 ---\nReliable.\n\n--- Reference Letter 2 ---\nNo text content", out)
}

func TestLanguageFields(t *testing.T) {
	env := repotest.New(t)
	u := env.User(t, 0, "fr")

	got, err := newSources(env).LanguageFields(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LanguageFields{Documentation: "fr"}, got)
}

func TestJobDescriptionFromApplication(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	u, err := env.Repos.Users.Create(ctx, &entity.User{
		Email:            "intern@example.com",
		EmploymentStatus: strPtr("student"),
		EducationType:    strPtr("university"),
	})
	require.NoError(t, err)

	app, err := env.Repos.Applications.Create(ctx, &entity.Application{
		UserID:             u.ID,
		JobTitle:           "Data Intern",
		Company:            "Beta GmbH",
		OpportunityContext: strPtr("Met the team at a meetup"),
		IsSpontaneous:      true,
		ApplicationType:    "Praktikum",
	})
	require.NoError(t, err)

	out, err := newSources(env).JobDescription(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, "Title: Data Intern\nCompany: Beta GmbH"+
		"\nOpportunity Context: Met the team at a meetup"+
		"\nThis is a spontaneous application without a specific posting."+
		"\n\n=== APPLICATION TYPE: INTERNSHIP ==="+
		"\n\n=== CANDIDATE PROFILE CONTEXT ===\nEmployment Status: student\nEducation Type: university", out)
}

func TestJobDescriptionFromSavedOffer(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	u := env.User(t, 0, "")
	url := "https://jobs.example.com/42"

	_, err := env.Repos.JobOffers.Create(ctx, &entity.JobOffer{
		URL:         url,
		Title:       "Senior Backend Engineer",
		Company:     "Acme AG",
		Description: strPtr("Build payment services in Go."),
	})
	require.NoError(t, err)

	app, err := env.Repos.Applications.Create(ctx, &entity.Application{
		UserID:          u.ID,
		JobTitle:        "Backend Engineer",
		Company:         "Acme",
		JobOfferURL:     &url,
		ApplicationType: string(constants.ApplicationApprenticeship),
	})
	require.NoError(t, err)

	out, err := newSources(env).JobDescription(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, "Title: Senior Backend Engineer\nCompany: Acme AG\nDescription: Build payment services in Go."+
		"\n\n=== APPLICATION TYPE: APPRENTICESHIP ===", out)
}

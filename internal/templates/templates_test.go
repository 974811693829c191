package templates_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/repository/repotest"
	"github.com/joseph-ayodele/jobapply/internal/templates"
)

func writePrompts(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestResolveOrder(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	env.Template(t, constants.DocTypeCoverLetter, "admin prompt {cv_text}", 2)

	r := templates.NewResolver(env.Repos.Templates, templates.DefaultCatalog(), templates.Defaults{}, repotest.Logger())

	got, err := r.Resolve(ctx, constants.DocTypeCoverLetter)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "admin prompt {cv_text}", got.Prompt)
	assert.Equal(t, 2, got.CreditCost)
	assert.False(t, got.BuiltIn)

	got, err = r.Resolve(ctx, constants.DocTypeCompanyBriefing)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.BuiltIn)
	assert.Contains(t, got.Prompt, "{job_description}")
	assert.Equal(t, constants.LanguageSourceDocumentation, got.LanguageSource)
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 1, got.CreditCost)

	got, err = r.Resolve(ctx, "UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveAllSkipsInactive(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	tpl := env.Template(t, "email_formal", "email {language}", 1)
	tpl.IsActive = false
	require.NoError(t, env.Repos.Templates.Update(ctx, tpl))
	env.Template(t, "executive_summary", "summary {cv_summary}", 3)

	r := templates.NewResolver(env.Repos.Templates, nil, templates.Defaults{}, repotest.Logger())
	got, err := r.ResolveAll(ctx, []string{"email_formal", "executive_summary"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3, got["executive_summary"].CreditCost)
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := writePrompts(t, `{
		"email_formal": {"prompt_template": "Write an email for {job_description}"},
		"email_linkedin": {"prompt_template": ""},
		"custom_doc": {"prompt_template": "x", "display_name": "Custom", "credit_cost": 4}
	}`)
	c, err := templates.LoadCatalog(path)
	require.NoError(t, err)

	p, ok := c.Prompt("email_formal")
	require.True(t, ok)
	assert.Equal(t, "Email / Accompanying Message (formal)", p.DisplayName)
	assert.Equal(t, 1, p.CreditCost)

	_, ok = c.Prompt("email_linkedin")
	assert.False(t, ok)

	p, ok = c.Prompt("custom_doc")
	require.True(t, ok)
	assert.Equal(t, 4, p.CreditCost)
	assert.True(t, c.Known("custom_doc"))

	_, err = templates.LoadCatalog(writePrompts(t, "{not json"))
	assert.Error(t, err)
}

func TestCatalogPackages(t *testing.T) {
	c := templates.DefaultCatalog()
	assert.Len(t, c.Documents(), 15)
	basic, ok := c.PackageDocTypes("Basic Pack")
	require.True(t, ok)
	assert.Equal(t, []string{"tailored_cv_pdf", "motivational_letter_pdf", "email_formal"}, basic)
	premium, _ := c.PackageDocTypes("Premium Pack")
	assert.Len(t, premium, 11)
	for _, dt := range premium {
		assert.True(t, c.Known(dt), dt)
	}
}

func TestSeed(t *testing.T) {
	env := repotest.New(t)
	ctx := context.Background()
	path := writePrompts(t, `{
		"email_formal": {"prompt_template": "v1 {job_description}"},
		"email_linkedin": {"prompt_template": "dm {job_description}"}
	}`)
	c, err := templates.LoadCatalog(path)
	require.NoError(t, err)

	res, err := templates.Seed(ctx, env.Repos.Templates, c, templates.Defaults{}, false, repotest.Logger())
	require.NoError(t, err)
	assert.Equal(t, templates.SeedResult{Created: 2, Skipped: 13, Total: 15}, res)

	res, err = templates.Seed(ctx, env.Repos.Templates, c, templates.Defaults{}, false, repotest.Logger())
	require.NoError(t, err)
	assert.Equal(t, templates.SeedResult{Skipped: 15, Total: 15}, res)

	c2, err := templates.LoadCatalog(writePrompts(t, `{"email_formal": {"prompt_template": "v2 {job_description}"}}`))
	require.NoError(t, err)
	res, err = templates.Seed(ctx, env.Repos.Templates, c2, templates.Defaults{}, true, repotest.Logger())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	row, err := env.Repos.Templates.GetByDocType(ctx, "email_formal")
	require.NoError(t, err)
	assert.Equal(t, "v2 {job_description}", row.PromptTemplate)
	assert.Equal(t, "gpt-4", row.LLMModel)
	assert.Equal(t, "documentation_language", row.LanguageSource)
}

func TestWatchPromptsFileReloads(t *testing.T) {
	env := repotest.New(t)
	path := writePrompts(t, `{"custom_doc": {"prompt_template": "v1"}}`)
	c, err := templates.LoadCatalog(path)
	require.NoError(t, err)
	r := templates.NewResolver(env.Repos.Templates, c, templates.Defaults{}, repotest.Logger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, templates.WatchPromptsFile(ctx, path, r, 10*time.Millisecond, repotest.Logger()))

	require.NoError(t, os.WriteFile(path, []byte(`{"custom_doc": {"prompt_template": "v2"}}`), 0o600))
	assert.Eventually(t, func() bool {
		p, ok := r.Catalog().Prompt("custom_doc")
		return ok && p.Template == "v2"
	}, 2*time.Second, 20*time.Millisecond)

	// a broken file keeps the last good catalog
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o600))
	time.Sleep(100 * time.Millisecond)
	p, ok := r.Catalog().Prompt("custom_doc")
	require.True(t, ok)
	assert.Equal(t, "v2", p.Template)
}

package prompt_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/prompt"
	"github.com/joseph-ayodele/jobapply/internal/templates"
)

type stubRefs struct {
	text  string
	err   error
	calls int
}

func (s *stubRefs) ReferenceLetters(context.Context, uuid.UUID) (string, error) {
	s.calls++
	return s.text, s.err
}

func str(s string) *string { return &s }

func tpl(body string) *templates.TemplateConfig {
	return &templates.TemplateConfig{
		DocType:        "COVER_LETTER",
		DisplayName:    "Cover Letter",
		Prompt:         body,
		LanguageSource: constants.LanguageSourceDocumentation,
		Provider:       "openai",
		Model:          "gpt-4",
	}
}

func TestBuildExact(t *testing.T) {
	b := prompt.NewBuilder(nil, prompt.Options{}, nil)
	user := &entity.User{ID: uuid.New(), DocumentationLanguage: str("French")}

	got, err := b.Build(context.Background(), tpl("Write for {language} using CV: {cv_text}"), prompt.Input{
		CVText: "Experienced engineer",
		User:   user,
	})
	require.NoError(t, err)
	assert.Equal(t, "Write for French using CV: Experienced engineer", got)
}

func TestBuildAllPlaceholders(t *testing.T) {
	b := prompt.NewBuilder(nil, prompt.Options{}, nil)
	body := "{role}|{task}|{doc_type}|{doc_type_display}|{job_description}|{company_profile_language}|{documentation_language}|{reference_letters}|{instructions}"
	got, err := b.Build(context.Background(), tpl(body), prompt.Input{
		JobDescription: "Title: Go dev",
		User:           &entity.User{ID: uuid.New()},
	})
	require.NoError(t, err)
	parts := strings.Split(got, "|")
	require.Len(t, parts, 9)
	assert.Equal(t, prompt.Role, parts[0])
	assert.Equal(t, prompt.Task, parts[1])
	assert.Equal(t, "COVER_LETTER", parts[2])
	assert.Equal(t, "Cover Letter", parts[3])
	assert.Equal(t, "Title: Go dev", parts[4])
	assert.Equal(t, "English", parts[5])
	assert.Equal(t, "English", parts[6])
	assert.Equal(t, prompt.NoReferenceLetters, parts[7])
	assert.Contains(t, parts[8], "NEVER invent skills")
}

func TestBuildMissingPlaceholder(t *testing.T) {
	b := prompt.NewBuilder(nil, prompt.Options{}, nil)
	_, err := b.Build(context.Background(), tpl("Hello {cv_text} from {company_name}"), prompt.Input{CVText: "x"})
	var mp *prompt.MissingPlaceholderError
	require.True(t, errors.As(err, &mp))
	assert.Equal(t, "company_name", mp.Name)
	assert.Equal(t, "COVER_LETTER", mp.DocType)
}

func TestBuildDoesNotExpandValues(t *testing.T) {
	b := prompt.NewBuilder(nil, prompt.Options{}, nil)
	got, err := b.Build(context.Background(), tpl("CV: {cv_text}"), prompt.Input{CVText: "uses {language} and {json: 1}"})
	require.NoError(t, err)
	assert.Equal(t, "CV: uses {language} and {json: 1}", got)
}

func TestBuildIgnoresNonIdentifierBraces(t *testing.T) {
	b := prompt.NewBuilder(nil, prompt.Options{}, nil)
	body := `Return {"overall_score": 0} for {cv_text}`
	got, err := b.Build(context.Background(), tpl(body), prompt.Input{CVText: "me"})
	require.NoError(t, err)
	assert.Equal(t, `Return {"overall_score": 0} for me`, got)
}

func TestLanguageSelection(t *testing.T) {
	b := prompt.NewBuilder(nil, prompt.Options{DefaultLanguage: "de"}, nil)
	user := &entity.User{
		PreferredLanguage:     str("it"),
		MotherTongue:          str("pt"),
		DocumentationLanguage: str("fr"),
	}
	app := &entity.Application{DocumentationLanguage: str("de-CH")}

	assert.Equal(t, "it", b.Language(constants.LanguageSourcePreferred, user, app))
	assert.Equal(t, "pt", b.Language(constants.LanguageSourceMotherTongue, user, app))
	assert.Equal(t, "de-CH", b.Language(constants.LanguageSourceDocumentation, user, app))
	assert.Equal(t, "fr", b.Language(constants.LanguageSourceDocumentation, user, &entity.Application{}))
	assert.Equal(t, "de", b.Language(constants.LanguageSourcePreferred, &entity.User{PreferredLanguage: str(" ")}, nil))

	cfg := tpl("{language}")
	got, err := b.Build(context.Background(), cfg, prompt.Input{User: user, Application: app})
	require.NoError(t, err)
	assert.Contains(t, got, "'Strasse' not 'Straße'")
}

func TestCVSummaryPerProvider(t *testing.T) {
	b := prompt.NewBuilder(nil, prompt.Options{}, nil)
	cv := strings.Repeat("ä", 2500)

	got, err := b.Build(context.Background(), tpl("{cv_summary}"), prompt.Input{CVText: cv})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ä", 500)+"...", got)

	cfg := tpl("{cv_summary}")
	cfg.Provider = "anthropic"
	got, err = b.Build(context.Background(), cfg, prompt.Input{CVText: cv})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ä", 2000)+"...", got)

	assert.Equal(t, "short", prompt.Summary("short", 500))
}

func TestReferenceLettersLoadedOnlyWhenUsed(t *testing.T) {
	refs := &stubRefs{text: "--- Reference Letter 1 ---\nGreat"}
	b := prompt.NewBuilder(refs, prompt.Options{}, nil)
	user := &entity.User{ID: uuid.New()}

	_, err := b.Build(context.Background(), tpl("{cv_text}"), prompt.Input{User: user})
	require.NoError(t, err)
	assert.Equal(t, 0, refs.calls)

	got, err := b.Build(context.Background(), tpl("{reference_letters}"), prompt.Input{User: user})
	require.NoError(t, err)
	assert.Equal(t, 1, refs.calls)
	assert.Equal(t, "--- Reference Letter 1 ---\nGreat", got)

	refs.err = errors.New("db down")
	_, err = b.Build(context.Background(), tpl("{reference_letters}"), prompt.Input{User: user})
	assert.ErrorIs(t, err, refs.err)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"a", "b_2"}, prompt.Placeholders("{a} {b_2} {a} {B} { c }"))
}

// Package prompt fills document templates with candidate and job data.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/language"
	"github.com/joseph-ayodele/jobapply/internal/templates"
)

const (
	Role = "professional career consultant and CV/resume expert"
	Task = "Help this candidate create compelling, honest, and effective job application documents"

	Instructions = `
1. Be completely honest - NEVER invent skills, experiences, or qualifications
2. Only use information that exists in the candidate's CV
3. Optimize for the specific job requirements while staying truthful
4. Use professional, clear language appropriate for the target role
5. Highlight genuine strengths and relevant experience
6. Structure content for maximum impact and readability`

	NoReferenceLetters = "No reference letters provided."

	DefaultSummaryChars = 500
)

var placeholderRe = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// MissingPlaceholderError is returned when a template names a placeholder
// that has no value. No partial prompt is produced.
type MissingPlaceholderError struct {
	DocType string
	Name    string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("template %s: no value for placeholder {%s}", e.DocType, e.Name)
}

// ReferenceLetterSource returns a user's reference letters already formatted
// for a prompt.
type ReferenceLetterSource interface {
	ReferenceLetters(ctx context.Context, userID uuid.UUID) (string, error)
}

// Options tune the builder. Zero values take defaults.
type Options struct {
	DefaultLanguage string
	SummaryChars    int
	// ProviderSummaryChars overrides SummaryChars for providers with larger contexts.
	ProviderSummaryChars map[string]int
}

// Input is the per-document data a prompt is built from.
type Input struct {
	JobDescription string
	CVText         string
	User           *entity.User
	Application    *entity.Application
}

type Builder struct {
	opts   Options
	refs   ReferenceLetterSource
	logger *slog.Logger
}

func NewBuilder(refs ReferenceLetterSource, opts Options, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = language.Default().Code
	}
	if opts.SummaryChars <= 0 {
		opts.SummaryChars = DefaultSummaryChars
	}
	if opts.ProviderSummaryChars == nil {
		opts.ProviderSummaryChars = map[string]int{
			"anthropic": 2000,
			"google":    2000,
			"gemini":    2000,
		}
	}
	return &Builder{opts: opts, refs: refs, logger: logger}
}

// Build substitutes every placeholder of tpl.Prompt in a single pass, so
// braces inside substituted values are never expanded.
func (b *Builder) Build(ctx context.Context, tpl *templates.TemplateConfig, in Input) (string, error) {
	names := Placeholders(tpl.Prompt)
	if len(names) == 0 {
		return tpl.Prompt, nil
	}

	lang := language.Instruction(b.Language(tpl.LanguageSource, in.User, in.Application))
	values := map[string]string{
		"job_description":          in.JobDescription,
		"cv_text":                  in.CVText,
		"cv_summary":               Summary(in.CVText, b.summaryChars(tpl.Provider)),
		"language":                 lang,
		"documentation_language":   lang,
		"company_profile_language": lang,
		"role":                     Role,
		"task":                     Task,
		"instructions":             Instructions,
		"doc_type":                 tpl.DocType,
		"doc_type_display":         tpl.DisplayName,
	}

	for _, name := range names {
		if name == "reference_letters" {
			refs, err := b.referenceLetters(ctx, in.User)
			if err != nil {
				return "", err
			}
			values[name] = refs
			continue
		}
		if _, ok := values[name]; !ok {
			return "", &MissingPlaceholderError{DocType: tpl.DocType, Name: name}
		}
	}

	out := placeholderRe.ReplaceAllStringFunc(tpl.Prompt, func(m string) string {
		return values[m[1:len(m)-1]]
	})
	b.logger.Debug("prompt.build.ok", "doc_type", tpl.DocType, "placeholders", len(names), "chars", len(out))
	return out, nil
}

// Language returns the raw language value selected by source, falling back to
// the default language. For documentation_language the application's own
// setting wins over the user's.
func (b *Builder) Language(source constants.LanguageSource, user *entity.User, app *entity.Application) string {
	var candidates []*string
	switch source {
	case constants.LanguageSourcePreferred:
		if user != nil {
			candidates = append(candidates, user.PreferredLanguage)
		}
	case constants.LanguageSourceMotherTongue:
		if user != nil {
			candidates = append(candidates, user.MotherTongue)
		}
	default:
		if app != nil {
			candidates = append(candidates, app.DocumentationLanguage)
		}
		if user != nil {
			candidates = append(candidates, user.DocumentationLanguage)
		}
	}
	for _, c := range candidates {
		if c != nil && strings.TrimSpace(*c) != "" {
			return strings.TrimSpace(*c)
		}
	}
	return b.opts.DefaultLanguage
}

func (b *Builder) summaryChars(provider string) int {
	if n, ok := b.opts.ProviderSummaryChars[strings.ToLower(provider)]; ok && n > 0 {
		return n
	}
	return b.opts.SummaryChars
}

func (b *Builder) referenceLetters(ctx context.Context, user *entity.User) (string, error) {
	if b.refs == nil || user == nil {
		return NoReferenceLetters, nil
	}
	s, err := b.refs.ReferenceLetters(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("load reference letters: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		return NoReferenceLetters, nil
	}
	return s, nil
}

// Placeholders lists the distinct placeholder names of tmpl in order of first use.
func Placeholders(tmpl string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Summary returns the first n runes of text followed by "..." when text is longer.
func Summary(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return string(r[:n]) + "..."
}

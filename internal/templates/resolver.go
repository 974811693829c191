// Package templates resolves the prompt, language source, and model used for
// each document type.
package templates

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/repository"
)

// TemplateConfig is everything needed to produce one document type.
type TemplateConfig struct {
	DocType        string
	DisplayName    string
	Prompt         string
	LanguageSource constants.LanguageSource
	Provider       string
	Model          string
	CreditCost     int
	// BuiltIn is set when the prompt came from the catalog rather than a template row.
	BuiltIn bool
}

// Defaults fill provider and model where a template leaves them empty.
type Defaults struct {
	Provider string
	Model    string
}

// Resolver looks up an active template row first and falls back to the
// catalog's built-in prompts.
type Resolver struct {
	repo     repository.TemplateRepository
	catalog  atomic.Pointer[Catalog]
	defaults Defaults
	logger   *slog.Logger
}

func NewResolver(repo repository.TemplateRepository, catalog *Catalog, defaults Defaults, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if defaults.Provider == "" {
		defaults.Provider = "openai"
	}
	if defaults.Model == "" {
		defaults.Model = "gpt-4"
	}
	r := &Resolver{repo: repo, defaults: defaults, logger: logger}
	r.catalog.Store(catalog)
	return r
}

// Catalog returns the current catalog.
func (r *Resolver) Catalog() *Catalog { return r.catalog.Load() }

// SetCatalog swaps the catalog used for built-in prompts.
func (r *Resolver) SetCatalog(c *Catalog) {
	if c != nil {
		r.catalog.Store(c)
	}
}

// Resolve returns nil, nil when docType has neither an active template nor a
// built-in prompt; callers skip such doc types.
func (r *Resolver) Resolve(ctx context.Context, docType string) (*TemplateConfig, error) {
	all, err := r.ResolveAll(ctx, []string{docType})
	if err != nil {
		return nil, err
	}
	return all[docType], nil
}

// ResolveAll resolves docTypes with a single template query. Unresolvable doc
// types are absent from the result.
func (r *Resolver) ResolveAll(ctx context.Context, docTypes []string) (map[string]*TemplateConfig, error) {
	rows, err := r.repo.ActiveByDocTypes(ctx, docTypes)
	if err != nil {
		return nil, err
	}
	catalog := r.Catalog()
	out := make(map[string]*TemplateConfig, len(docTypes))
	for _, dt := range docTypes {
		if row, ok := rows[dt]; ok {
			out[dt] = r.fromRow(row)
			continue
		}
		if p, ok := catalog.Prompt(dt); ok {
			out[dt] = r.fromPrompt(p)
			continue
		}
		r.logger.Debug("templates.resolve.miss", "doc_type", dt)
	}
	return out, nil
}

func (r *Resolver) fromRow(t *entity.DocumentTemplate) *TemplateConfig {
	cfg := &TemplateConfig{
		DocType:        t.DocType,
		DisplayName:    t.DisplayName,
		Prompt:         t.PromptTemplate,
		LanguageSource: constants.ParseLanguageSource(t.LanguageSource),
		Provider:       t.LLMProvider,
		Model:          t.LLMModel,
		CreditCost:     t.CreditCost,
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = r.Catalog().Title(t.DocType)
	}
	if cfg.Provider == "" {
		cfg.Provider = r.defaults.Provider
	}
	if cfg.Model == "" {
		cfg.Model = r.defaults.Model
	}
	if cfg.CreditCost < 0 {
		cfg.CreditCost = 0
	}
	return cfg
}

func (r *Resolver) fromPrompt(p Prompt) *TemplateConfig {
	return &TemplateConfig{
		DocType:        p.DocType,
		DisplayName:    p.DisplayName,
		Prompt:         p.Template,
		LanguageSource: constants.LanguageSourceDocumentation,
		Provider:       r.defaults.Provider,
		Model:          r.defaults.Model,
		CreditCost:     p.CreditCost,
		BuiltIn:        true,
	}
}

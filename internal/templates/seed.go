package templates

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/repository"
)

// SeedResult counts what Seed did per catalog document.
type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// Seed creates a template row for every catalog document that has a prompt.
// Existing rows are left alone unless force is set, in which case their
// display name and prompt are refreshed.
func Seed(ctx context.Context, repo repository.TemplateRepository, catalog *Catalog, defaults Defaults, force bool, logger *slog.Logger) (SeedResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.Provider == "" {
		defaults.Provider = "openai"
	}
	if defaults.Model == "" {
		defaults.Model = "gpt-4"
	}
	docs := catalog.Documents()
	res := SeedResult{Total: len(docs)}
	for _, d := range docs {
		p, ok := catalog.Prompt(d.Key)
		if !ok || p.Template == "" {
			logger.Warn("templates.seed.no_prompt", "doc_type", d.Key)
			res.Skipped++
			continue
		}
		existing, err := repo.GetByDocType(ctx, d.Key)
		switch {
		case err == nil:
			if !force {
				logger.Debug("templates.seed.exists", "doc_type", d.Key)
				res.Skipped++
				continue
			}
			existing.DisplayName = d.Title
			existing.PromptTemplate = p.Template
			if err := repo.Update(ctx, existing); err != nil {
				return res, err
			}
			logger.Info("templates.seed.updated", "doc_type", d.Key)
			res.Updated++
		case repository.IsNotFound(err):
			_, err := repo.Create(ctx, &entity.DocumentTemplate{
				DocType:        d.Key,
				DisplayName:    d.Title,
				CreditCost:     p.CreditCost,
				LanguageSource: string(constants.LanguageSourceDocumentation),
				LLMProvider:    defaults.Provider,
				LLMModel:       defaults.Model,
				PromptTemplate: p.Template,
				IsActive:       true,
			})
			if err != nil {
				return res, err
			}
			logger.Info("templates.seed.created", "doc_type", d.Key)
			res.Created++
		default:
			return res, err
		}
	}
	return res, nil
}

package matching

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/async"
	"github.com/joseph-ayodele/jobapply/internal/credits"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/llm"
	"github.com/joseph-ayodele/jobapply/internal/repository"
	"github.com/joseph-ayodele/jobapply/internal/sources"
)

// Invoker sends a prompt to a named provider. *llm.Registry implements it.
type Invoker interface {
	Invoke(ctx context.Context, provider, model, prompt string) (string, error)
}

// Model selects the provider and model used for scoring.
type Model struct {
	Provider string
	Name     string
}

type Orchestrator struct {
	db      credits.Transactor
	repos   *repository.Repositories
	llm     Invoker
	model   Model
	sources *sources.Sources
	logger  *slog.Logger
}

var _ async.Handler = (*Orchestrator)(nil)

func NewOrchestrator(logger *slog.Logger, db credits.Transactor, repos *repository.Repositories, invoker Invoker, model Model, src *sources.Sources) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if model.Provider == "" {
		model.Provider = "openai"
	}
	if model.Name == "" {
		model.Name = "gpt-4o-mini"
	}
	return &Orchestrator{db: db, repos: repos, llm: invoker, model: model, sources: src, logger: logger}
}

// Run scores the task's application with a single LLM call. Provider and
// parse failures fail the task; returned errors are worth a retry.
func (o *Orchestrator) Run(ctx context.Context, taskID uuid.UUID) error {
	start := time.Now()
	log := o.logger.With("task_id", taskID)

	task, err := o.repos.Matching.GetTask(ctx, taskID)
	if repository.IsNotFound(err) {
		log.Warn("matching.run.missing")
		return nil
	}
	if err != nil {
		return err
	}
	if task.Status.IsTerminal() {
		log.Info("matching.run.skip_terminal", "status", task.Status)
		return nil
	}
	started, err := o.repos.Matching.StartTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !started {
		return nil
	}

	app, err := o.repos.Applications.GetByID(ctx, task.ApplicationID)
	if repository.IsNotFound(err) {
		return o.finishFailed(ctx, taskID, "Application not found")
	}
	if err != nil {
		return err
	}
	cvText, err := o.sources.CVText(ctx, task.UserID)
	if errors.Is(err, sources.ErrNoCV) {
		return o.finishFailed(ctx, taskID, "No CV found")
	}
	if err != nil {
		return err
	}
	jobDescription, err := o.sources.JobDescription(ctx, app)
	if err != nil {
		return err
	}

	reply, err := o.llm.Invoke(ctx, o.model.Provider, o.model.Name, llm.BuildMatchingPrompt(jobDescription, cvText))
	if err != nil {
		if _, ok := llm.AsProviderError(err); !ok || ctx.Err() != nil {
			return err
		}
		return o.finishFailed(ctx, taskID, err.Error())
	}

	result, err := llm.ParseMatchingResult(reply, o.logger)
	if err != nil {
		return o.finishFailed(ctx, taskID, "Failed to parse matching result: "+err.Error())
	}

	score := &entity.MatchingScore{
		ApplicationID:   app.ID,
		OverallScore:    result.OverallScore,
		Strengths:       entity.StringList(result.Strengths),
		Gaps:            entity.StringList(result.Gaps),
		Recommendations: entity.StringList(result.Recommendations),
	}
	if result.Story != "" {
		score.Story = &result.Story
	}
	err = o.db.WithTx(ctx, func(ctx context.Context) error {
		if err := o.repos.Matching.UpsertScore(ctx, score); err != nil {
			return err
		}
		_, err := o.repos.Matching.FinishTask(ctx, taskID, constants.TaskStatusCompleted, nil)
		return err
	})
	if err != nil {
		return err
	}

	log.Info("matching.run.done",
		"application_id", app.ID,
		"score", result.OverallScore,
		"strengths", len(result.Strengths),
		"gaps", len(result.Gaps),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Fail marks the task failed once the queue gives up on it.
func (o *Orchestrator) Fail(ctx context.Context, taskID uuid.UUID, cause error) error {
	msg := "Task failed: " + cause.Error()
	_, err := o.repos.Matching.FinishTask(ctx, taskID, constants.TaskStatusFailed, &msg)
	if err != nil {
		return err
	}
	o.logger.Error("matching.run.failed", "task_id", taskID, "error", cause)
	return nil
}

func (o *Orchestrator) finishFailed(ctx context.Context, taskID uuid.UUID, msg string) error {
	o.logger.Error("matching.run.fatal", "task_id", taskID, "reason", msg)
	_, err := o.repos.Matching.FinishTask(ctx, taskID, constants.TaskStatusFailed, &msg)
	return err
}

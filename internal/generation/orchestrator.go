package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/async"
	"github.com/joseph-ayodele/jobapply/internal/credits"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/llm"
	"github.com/joseph-ayodele/jobapply/internal/prompt"
	"github.com/joseph-ayodele/jobapply/internal/repository"
	"github.com/joseph-ayodele/jobapply/internal/sources"
	"github.com/joseph-ayodele/jobapply/internal/storage"
	"github.com/joseph-ayodele/jobapply/internal/templates"
)

// Invoker sends a prompt to a named provider. *llm.Registry implements it.
type Invoker interface {
	Invoke(ctx context.Context, provider, model, prompt string) (string, error)
}

// Orchestrator runs queued generation tasks one document at a time, committing
// after every document so progress is visible while the task runs.
type Orchestrator struct {
	db       credits.Transactor
	repos    *repository.Repositories
	resolver *templates.Resolver
	builder  *prompt.Builder
	llm      Invoker
	sources  *sources.Sources
	store    storage.Persister
	logger   *slog.Logger
}

var _ async.Handler = (*Orchestrator)(nil)

func NewOrchestrator(
	logger *slog.Logger,
	db credits.Transactor,
	repos *repository.Repositories,
	resolver *templates.Resolver,
	builder *prompt.Builder,
	invoker Invoker,
	src *sources.Sources,
	store storage.Persister,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		db:       db,
		repos:    repos,
		resolver: resolver,
		builder:  builder,
		llm:      invoker,
		sources:  src,
		store:    store,
		logger:   logger,
	}
}

// Progress is floor(100*completed/total).
func Progress(completed, total int) int {
	if total <= 0 {
		return 100
	}
	if completed > total {
		completed = total
	}
	return completed * 100 / total
}

// Run executes taskID. Errors returned are infrastructure failures worth a
// retry; everything else is recorded on the task.
func (o *Orchestrator) Run(ctx context.Context, taskID uuid.UUID) error {
	start := time.Now()
	log := o.logger.With("task_id", taskID)

	task, err := o.repos.GenerationTasks.GetByID(ctx, taskID)
	if repository.IsNotFound(err) {
		log.Warn("generation.run.missing")
		return nil
	}
	if err != nil {
		return err
	}
	if task.Status.IsTerminal() {
		log.Info("generation.run.skip_terminal", "status", task.Status)
		return nil
	}

	total := len(task.DocTypes)
	started, err := o.repos.GenerationTasks.Start(ctx, taskID, total)
	if err != nil {
		return err
	}
	if !started {
		log.Info("generation.run.skip_terminal")
		return nil
	}
	log.Info("generation.run.start", "doc_types", []string(task.DocTypes), "resumed", task.Status == constants.TaskStatusProcessing)

	app, err := o.repos.Applications.GetByID(ctx, task.ApplicationID)
	if repository.IsNotFound(err) {
		return o.fatal(ctx, taskID, "Application not found")
	}
	if err != nil {
		return err
	}
	user, err := o.repos.Users.GetByID(ctx, task.UserID)
	if repository.IsNotFound(err) {
		return o.fatal(ctx, taskID, "User not found")
	}
	if err != nil {
		return err
	}
	cvText, err := o.sources.CVText(ctx, user.ID)
	if errors.Is(err, sources.ErrNoCV) {
		return o.fatal(ctx, taskID, "No CV found")
	}
	if err != nil {
		return err
	}
	jobDescription, err := o.sources.JobDescription(ctx, app)
	if err != nil {
		return err
	}

	done, err := o.repos.GeneratedDocuments.DocTypesForTask(ctx, taskID)
	if err != nil {
		return err
	}
	resolved, err := o.resolver.ResolveAll(ctx, task.DocTypes)
	if err != nil {
		return err
	}

	in := prompt.Input{
		JobDescription: jobDescription,
		CVText:         cvText,
		User:           user,
		Application:    app,
	}

	completed := 0
	var docErrors []string
	for _, docType := range task.DocTypes {
		if done[docType] {
			completed++
			log.Info("generation.doc.already_done", "doc_type", docType)
			continue
		}
		tpl, ok := resolved[docType]
		if !ok {
			log.Warn("generation.doc.no_template", "doc_type", docType)
			continue
		}

		content, genErr := o.generate(ctx, tpl, in)
		if genErr != nil {
			if !isDocumentError(genErr) || ctx.Err() != nil {
				return genErr
			}
			completed++
			docErrors = append(docErrors, fmt.Sprintf("Error generating %s: %v", docType, genErr))
			log.Warn("generation.doc.error", "doc_type", docType, "error", genErr)
			if err := o.repos.GenerationTasks.Checkpoint(ctx, taskID, completed, Progress(completed, total), joinErrors(docErrors)); err != nil {
				return err
			}
			continue
		}

		location := o.persist(ctx, user.ID, app.ID, docType, content)
		completed++
		doc := &entity.GeneratedDocument{
			ApplicationID:    app.ID,
			GenerationTaskID: &taskID,
			DocType:          docType,
			Format:           constants.FormatText,
			StoragePath:      location,
			Content:          content,
		}
		err := o.db.WithTx(ctx, func(ctx context.Context) error {
			inserted, err := o.repos.GeneratedDocuments.Create(ctx, doc)
			if err != nil {
				return err
			}
			if !inserted {
				log.Info("generation.doc.duplicate", "doc_type", docType)
			}
			return o.repos.GenerationTasks.Checkpoint(ctx, taskID, completed, Progress(completed, total), joinErrors(docErrors))
		})
		if err != nil {
			return err
		}
		log.Info("generation.doc.ok",
			"doc_type", docType,
			"chars", len(content),
			"location", location,
			"completed", completed,
			"total", total,
		)
	}

	progress := max(task.Progress, Progress(completed, total))
	finished, err := o.repos.GenerationTasks.Finish(ctx, taskID, constants.TaskStatusCompleted, progress, joinErrors(docErrors))
	if err != nil {
		return err
	}
	log.Info("generation.run.done",
		"finished", finished,
		"completed", completed,
		"total", total,
		"errors", len(docErrors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Fail marks the task failed once the queue gives up on it.
func (o *Orchestrator) Fail(ctx context.Context, taskID uuid.UUID, cause error) error {
	msg := "Task failed: " + cause.Error()
	changed, err := o.repos.GenerationTasks.Finish(ctx, taskID, constants.TaskStatusFailed, 0, &msg)
	if err != nil {
		return err
	}
	o.logger.Error("generation.run.failed", "task_id", taskID, "changed", changed, "error", cause)
	return nil
}

func (o *Orchestrator) fatal(ctx context.Context, taskID uuid.UUID, msg string) error {
	o.logger.Error("generation.run.fatal", "task_id", taskID, "reason", msg)
	_, err := o.repos.GenerationTasks.Finish(ctx, taskID, constants.TaskStatusFailed, 0, &msg)
	return err
}

func (o *Orchestrator) generate(ctx context.Context, tpl *templates.TemplateConfig, in prompt.Input) (string, error) {
	p, err := o.builder.Build(ctx, tpl, in)
	if err != nil {
		return "", err
	}
	return o.llm.Invoke(ctx, tpl.Provider, tpl.Model, p)
}

// persist writes content best effort; a failed write yields the unpersisted marker.
func (o *Orchestrator) persist(ctx context.Context, userID, applicationID uuid.UUID, docType, content string) string {
	marker := constants.UnpersistedPrefix + docType
	if o.store == nil {
		return marker
	}
	location, err := o.store.Persist(ctx, storage.Key(userID, applicationID, docType), []byte(content))
	if err != nil {
		o.logger.Warn("generation.doc.persist_error", "doc_type", docType, "error", err)
		return marker
	}
	return location
}

// isDocumentError reports whether err concerns only the current document.
func isDocumentError(err error) bool {
	var mp *prompt.MissingPlaceholderError
	if errors.As(err, &mp) {
		return true
	}
	_, ok := llm.AsProviderError(err)
	return ok
}

func joinErrors(errs []string) *string {
	if len(errs) == 0 {
		return nil
	}
	s := strings.Join(errs, "; ")
	return &s
}

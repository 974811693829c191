// Package generation turns a "generate documents" request into a credited,
// queued task and runs it.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/async"
	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/credits"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/repository"
	"github.com/joseph-ayodele/jobapply/internal/sources"
	"github.com/joseph-ayodele/jobapply/internal/storage"
	"github.com/joseph-ayodele/jobapply/internal/templates"
)

var ErrNoDocTypes = common.NewAppError("NO_DOC_TYPES", "at least one document type is required", common.ErrInvalidInput)

// UnknownDocTypesError lists requested doc types with neither a template nor a built-in prompt.
type UnknownDocTypesError struct {
	DocTypes []string
}

func (e *UnknownDocTypesError) Error() string {
	return "unknown document types: " + strings.Join(e.DocTypes, ", ")
}

func (e *UnknownDocTypesError) Unwrap() error { return common.ErrInvalidInput }

// CreateResult is returned to the caller as soon as the task is queued.
type CreateResult struct {
	TaskID           uuid.UUID `json:"task_id"`
	Status           string    `json:"status"`
	TotalDocuments   int       `json:"total_documents"`
	CreditsUsed      int       `json:"credits_used"`
	RemainingCredits int       `json:"remaining_credits"`
}

// TaskView is a task plus, once it completed, the documents it produced.
type TaskView struct {
	*entity.GenerationTask
	Documents []*entity.GeneratedDocument `json:"generated_documents,omitempty"`
}

type Service struct {
	db       credits.Transactor
	repos    *repository.Repositories
	resolver *templates.Resolver
	ledger   *credits.Ledger
	sources  *sources.Sources
	queue    async.Queue
	store    storage.Persister
	logger   *slog.Logger
}

func NewService(
	logger *slog.Logger,
	db credits.Transactor,
	repos *repository.Repositories,
	resolver *templates.Resolver,
	ledger *credits.Ledger,
	src *sources.Sources,
	queue async.Queue,
	store storage.Persister,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		repos:    repos,
		resolver: resolver,
		ledger:   ledger,
		sources:  src,
		queue:    queue,
		store:    store,
		logger:   logger,
	}
}

// NormalizeDocTypes trims, drops empties and removes duplicates keeping first occurrence.
func NormalizeDocTypes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, dt := range in {
		dt = strings.TrimSpace(dt)
		if dt == "" || seen[dt] {
			continue
		}
		seen[dt] = true
		out = append(out, dt)
	}
	return out
}

// CreateTask validates the request, reserves the credits and creates the
// pending task in one transaction, then queues it. Credits are never
// reserved without a task row, and a task row never exists without its debit.
func (s *Service) CreateTask(ctx context.Context, userID, applicationID uuid.UUID, docTypes []string) (*CreateResult, error) {
	docTypes = NormalizeDocTypes(docTypes)
	if len(docTypes) == 0 {
		return nil, ErrNoDocTypes
	}

	app, err := s.repos.Applications.GetForUser(ctx, applicationID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.sources.CVText(ctx, userID); err != nil {
		return nil, err
	}

	resolved, err := s.resolver.ResolveAll(ctx, docTypes)
	if err != nil {
		return nil, err
	}
	var unknown []string
	cost := 0
	for _, dt := range docTypes {
		tpl, ok := resolved[dt]
		if !ok {
			unknown = append(unknown, dt)
			continue
		}
		cost += tpl.CreditCost
	}
	if len(unknown) > 0 {
		return nil, &UnknownDocTypesError{DocTypes: unknown}
	}

	task := &entity.GenerationTask{
		ApplicationID: app.ID,
		UserID:        userID,
		Status:        constants.TaskStatusPending,
		TotalDocs:     len(docTypes),
		DocTypes:      entity.StringList(docTypes),
	}
	createTask := func(ctx context.Context) error {
		_, err := s.repos.GenerationTasks.Create(ctx, task)
		return err
	}

	var remaining int
	if cost > 0 {
		remaining, err = s.ledger.Reserve(ctx, userID, cost, createTask)
	} else {
		if err = s.db.WithTx(ctx, createTask); err == nil {
			remaining, err = s.ledger.Balance(ctx, userID)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, async.NewJob(async.KindGeneration, task.ID)); err != nil {
		s.logger.Error("generation.enqueue.error", "task_id", task.ID, "error", err)
		msg := "Failed to queue task: " + err.Error()
		if _, ferr := s.repos.GenerationTasks.Finish(ctx, task.ID, constants.TaskStatusFailed, 0, &msg); ferr != nil {
			s.logger.Error("generation.enqueue.mark_failed_error", "task_id", task.ID, "error", ferr)
		}
		return nil, common.NewAppError("ENQUEUE_FAILED", "could not queue generation task", fmt.Errorf("%w: %v", common.ErrInternal, err))
	}

	s.logger.Info("generation.task.created",
		"task_id", task.ID,
		"user_id", userID,
		"application_id", app.ID,
		"doc_types", docTypes,
		"credits_used", cost,
		"credits_remaining", remaining,
	)
	return &CreateResult{
		TaskID:           task.ID,
		Status:           constants.StatusQueued,
		TotalDocuments:   len(docTypes),
		CreditsUsed:      cost,
		RemainingCredits: remaining,
	}, nil
}

// Status returns the caller's task. Documents are attached only to a
// completed task.
func (s *Service) Status(ctx context.Context, userID, taskID uuid.UUID) (*TaskView, error) {
	task, err := s.repos.GenerationTasks.GetForUser(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	view := &TaskView{GenerationTask: task}
	if task.Status != constants.TaskStatusCompleted {
		return view, nil
	}
	if view.Documents, err = s.repos.GeneratedDocuments.ListByTask(ctx, taskID); err != nil {
		return nil, err
	}
	return view, nil
}

// DeleteDocuments removes generated documents of the caller's application, all
// of them when ids is empty, and returns how many rows were deleted. Stored
// files are removed best effort.
func (s *Service) DeleteDocuments(ctx context.Context, userID, applicationID uuid.UUID, ids []uuid.UUID) (int, error) {
	if _, err := s.repos.Applications.GetForUser(ctx, applicationID, userID); err != nil {
		return 0, err
	}
	removed, err := s.repos.GeneratedDocuments.DeleteForApplication(ctx, applicationID, ids)
	if err != nil {
		return 0, err
	}
	for _, d := range removed {
		if constants.IsUnpersisted(d.StoragePath) || s.store == nil {
			continue
		}
		if err := s.store.Remove(ctx, d.StoragePath); err != nil {
			s.logger.Warn("generation.delete.file_error", "document_id", d.ID, "location", d.StoragePath, "error", err)
		}
	}
	s.logger.Info("generation.documents.deleted", "application_id", applicationID, "count", len(removed))
	return len(removed), nil
}

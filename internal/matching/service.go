// Package matching scores how well the user's CV fits an application.
package matching

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/async"
	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/repository"
	"github.com/joseph-ayodele/jobapply/internal/sources"
)

// CreateResult is either a queued task or the score that already exists.
type CreateResult struct {
	TaskID *uuid.UUID            `json:"task_id,omitempty"`
	Status string                `json:"status"`
	Score  *entity.MatchingScore `json:"matching_score,omitempty"`
}

// TaskView is a scoring task with its score once completed.
type TaskView struct {
	*entity.MatchingScoreTask
	Score *entity.MatchingScore `json:"matching_score,omitempty"`
}

type Service struct {
	repos   *repository.Repositories
	sources *sources.Sources
	queue   async.Queue
	logger  *slog.Logger
}

func NewService(logger *slog.Logger, repos *repository.Repositories, src *sources.Sources, queue async.Queue) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repos: repos, sources: src, queue: queue, logger: logger}
}

// CreateTask queues a scoring run. Scoring is free. Without recalculate an
// existing score is returned as already_calculated and nothing is queued.
func (s *Service) CreateTask(ctx context.Context, userID, applicationID uuid.UUID, recalculate bool) (*CreateResult, error) {
	app, err := s.repos.Applications.GetForUser(ctx, applicationID, userID)
	if err != nil {
		return nil, err
	}

	if !recalculate {
		score, err := s.repos.Matching.GetScore(ctx, app.ID)
		switch {
		case err == nil:
			s.logger.Info("matching.task.already_calculated", "application_id", app.ID, "score", score.OverallScore)
			return &CreateResult{Status: constants.StatusAlreadyCalculated, Score: score}, nil
		case !repository.IsNotFound(err):
			return nil, err
		}
	}

	if _, err := s.sources.CVText(ctx, userID); err != nil {
		return nil, err
	}

	task, err := s.repos.Matching.CreateTask(ctx, &entity.MatchingScoreTask{
		ApplicationID: app.ID,
		UserID:        userID,
		Recalculate:   recalculate,
	})
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, async.NewJob(async.KindMatching, task.ID)); err != nil {
		s.logger.Error("matching.enqueue.error", "task_id", task.ID, "error", err)
		msg := "Failed to queue task: " + err.Error()
		if _, ferr := s.repos.Matching.FinishTask(ctx, task.ID, constants.TaskStatusFailed, &msg); ferr != nil {
			s.logger.Error("matching.enqueue.mark_failed_error", "task_id", task.ID, "error", ferr)
		}
		return nil, common.NewAppError("ENQUEUE_FAILED", "could not queue matching task", fmt.Errorf("%w: %v", common.ErrInternal, err))
	}

	s.logger.Info("matching.task.created", "task_id", task.ID, "application_id", app.ID, "recalculate", recalculate)
	return &CreateResult{TaskID: &task.ID, Status: constants.StatusQueued}, nil
}

// Status returns the caller's scoring task, with the score when completed.
func (s *Service) Status(ctx context.Context, userID, taskID uuid.UUID) (*TaskView, error) {
	task, err := s.repos.Matching.GetTaskForUser(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	view := &TaskView{MatchingScoreTask: task}
	if task.Status == constants.TaskStatusCompleted {
		score, err := s.repos.Matching.GetScore(ctx, task.ApplicationID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
		view.Score = score
	}
	return view, nil
}

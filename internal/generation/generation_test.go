package generation_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/async"
	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/credits"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/generation"
	"github.com/joseph-ayodele/jobapply/internal/llm"
	"github.com/joseph-ayodele/jobapply/internal/prompt"
	"github.com/joseph-ayodele/jobapply/internal/repository/repotest"
	"github.com/joseph-ayodele/jobapply/internal/sources"
	"github.com/joseph-ayodele/jobapply/internal/storage"
	"github.com/joseph-ayodele/jobapply/internal/templates"
)

type fakeQueue struct {
	mu   sync.Mutex
	jobs []async.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Shutdown(context.Context) {}

// fakeLLM answers "doc X ..." prompts with "content X" unless X is listed in fail.
type fakeLLM struct {
	mu     sync.Mutex
	fail   map[string]error
	calls  []string
	before func(docType string)
}

func (f *fakeLLM) Invoke(_ context.Context, provider, _ string, p string) (string, error) {
	docType := strings.Fields(strings.TrimPrefix(p, "doc "))[0]
	f.mu.Lock()
	f.calls = append(f.calls, docType)
	hook := f.before
	err := f.fail[docType]
	f.mu.Unlock()
	if hook != nil {
		hook(docType)
	}
	if err != nil {
		return "", &llm.ProviderError{Provider: provider, Cause: err}
	}
	return "content " + docType, nil
}

func (f *fakeLLM) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type failingStore struct{}

func (failingStore) Persist(context.Context, string, []byte) (string, error) {
	return "", errors.New("disk full")
}
func (failingStore) Remove(context.Context, string) error { return nil }

type fixture struct {
	env     *repotest.Env
	queue   *fakeQueue
	llm     *fakeLLM
	root    string
	ledger  *credits.Ledger
	service *generation.Service
	orch    *generation.Orchestrator
}

func newFixture(t *testing.T, store storage.Persister) *fixture {
	t.Helper()
	env := repotest.New(t)
	logger := repotest.Logger()

	root := filepath.Join(t.TempDir(), "generated")
	if store == nil {
		store = storage.NewLocal(root, logger)
	}
	src := sources.New(env.Repos.Users, env.Repos.Documents, env.Repos.JobOffers, logger)
	resolver := templates.NewResolver(env.Repos.Templates, templates.NewCatalog(nil, nil, nil), templates.Defaults{}, logger)
	builder := prompt.NewBuilder(src, prompt.Options{}, logger)
	ledger := credits.NewLedger(env.DB, env.Repos.Users, logger)
	queue := &fakeQueue{}
	fake := &fakeLLM{fail: map[string]error{}}

	for _, dt := range []string{"A", "B", "C"} {
		env.Template(t, dt, "doc "+dt+" for {cv_text} at {job_description}", 1)
	}

	return &fixture{
		env:     env,
		queue:   queue,
		llm:     fake,
		root:    root,
		ledger:  ledger,
		service: generation.NewService(logger, env.DB, env.Repos, resolver, ledger, src, queue, store),
		orch:    generation.NewOrchestrator(logger, env.DB, env.Repos, resolver, builder, fake, src, store),
	}
}

// applicant creates a user with a CV and one application.
func (f *fixture) applicant(t *testing.T, balance int) (*entity.User, *entity.Application) {
	t.Helper()
	u := f.env.User(t, balance, "en")
	f.env.CV(t, u.ID, "Go engineer")
	return u, f.env.Application(t, u.ID)
}

func (f *fixture) task(t *testing.T, id uuid.UUID) *entity.GenerationTask {
	t.Helper()
	task, err := f.env.Repos.GenerationTasks.GetByID(context.Background(), id)
	require.NoError(t, err)
	return task
}

func TestNormalizeDocTypes(t *testing.T) {
	assert.Equal(t, []string{"B", "A", "C"}, generation.NormalizeDocTypes([]string{" B", "A", "", "B", "C ", "A"}))
	assert.Empty(t, generation.NormalizeDocTypes([]string{" ", ""}))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, generation.Progress(0, 3))
	assert.Equal(t, 33, generation.Progress(1, 3))
	assert.Equal(t, 66, generation.Progress(2, 3))
	assert.Equal(t, 100, generation.Progress(3, 3))
	assert.Equal(t, 100, generation.Progress(0, 0))
}

func TestCreateTaskReservesCreditsAndQueues(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 3)

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A", "B", "A"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusQueued, res.Status)
	assert.Equal(t, 2, res.TotalDocuments)
	assert.Equal(t, entity.StringList{"A", "B"}, f.task(t, res.TaskID).DocTypes)
	assert.Equal(t, 2, res.CreditsUsed)
	assert.Equal(t, 1, res.RemainingCredits)

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, async.KindGeneration, f.queue.jobs[0].Kind)
	assert.Equal(t, res.TaskID, f.queue.jobs[0].TaskID)

	view, err := f.service.Status(ctx, u.ID, res.TaskID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusPending, view.Status)
	assert.Nil(t, view.Documents, "documents are only attached to completed tasks")

	task := f.task(t, res.TaskID)
	assert.Equal(t, constants.TaskStatusPending, task.Status)
	assert.Equal(t, entity.StringList{"A", "B"}, task.DocTypes)
	assert.Equal(t, 2, task.TotalDocs)
}

func TestCreateTaskInsufficientCredits(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 2)

	_, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A", "B", "C"})
	require.Error(t, err)
	ie, ok := credits.IsInsufficient(err)
	require.True(t, ok)
	assert.Equal(t, 3, ie.Needed)
	assert.Equal(t, 2, ie.Have)
	assert.ErrorIs(t, err, common.ErrPaymentRequired)

	bal, err := f.ledger.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, bal, "balance untouched")
	assert.Empty(t, f.queue.jobs)
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 10)

	_, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{" "})
	assert.ErrorIs(t, err, generation.ErrNoDocTypes)

	_, err = f.service.CreateTask(ctx, u.ID, app.ID, []string{"A", "NOPE"})
	var unknown *generation.UnknownDocTypesError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"NOPE"}, unknown.DocTypes)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	stranger := f.env.User(t, 10, "")
	_, err = f.service.CreateTask(ctx, stranger.ID, app.ID, []string{"A"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	noCV := f.env.User(t, 10, "")
	noCVApp := f.env.Application(t, noCV.ID)
	_, err = f.service.CreateTask(ctx, noCV.ID, noCVApp.ID, []string{"A"})
	assert.ErrorIs(t, err, sources.ErrNoCV)

	bal, _ := f.ledger.Balance(ctx, u.ID)
	assert.Equal(t, 10, bal)
}

func TestCreateTaskFreeTemplatesSkipReserve(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.env.Template(t, "FREE", "doc FREE {cv_text}", 0)
	u, app := f.applicant(t, 0)

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"FREE"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreditsUsed)
	assert.Equal(t, 0, res.RemainingCredits)
	assert.Equal(t, constants.TaskStatusPending, f.task(t, res.TaskID).Status)
}

func TestCreateTaskEnqueueFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 5)
	f.queue.err = async.ErrQueueClosed

	_, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInternal)

	bal, _ := f.ledger.Balance(ctx, u.ID)
	assert.Equal(t, 4, bal, "no implicit refund")
}

func TestRunPartialFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 3)
	f.llm.fail["B"] = errors.New("rate limited")

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A", "B", "C"})
	require.NoError(t, err)
	require.NoError(t, f.orch.Run(ctx, res.TaskID))

	task := f.task(t, res.TaskID)
	assert.Equal(t, constants.TaskStatusCompleted, task.Status)
	assert.Equal(t, 3, task.TotalDocs)
	assert.Equal(t, 3, task.CompletedDocs)
	assert.Equal(t, 100, task.Progress)
	require.NotNil(t, task.ErrorMessage)
	assert.Equal(t, "Error generating B: llm provider openai: rate limited", *task.ErrorMessage)

	view, err := f.service.Status(ctx, u.ID, res.TaskID)
	require.NoError(t, err)
	require.Len(t, view.Documents, 2)
	assert.Equal(t, "A", view.Documents[0].DocType)
	assert.Equal(t, "C", view.Documents[1].DocType)
	assert.Equal(t, "content A", view.Documents[0].Content)

	path := filepath.FromSlash(view.Documents[0].StoragePath)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content A", string(b))
	assert.Equal(t, filepath.Base(path), "app_"+app.ID.String()+"_A.txt")
}

func TestRunAllDocumentsFailStillCompletes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 2)
	f.llm.fail["A"] = errors.New("boom")
	f.llm.fail["B"] = errors.New("bang")

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, f.orch.Run(ctx, res.TaskID))

	task := f.task(t, res.TaskID)
	assert.Equal(t, constants.TaskStatusCompleted, task.Status)
	assert.Equal(t, 2, task.CompletedDocs)
	assert.Equal(t, "Error generating A: llm provider openai: boom; Error generating B: llm provider openai: bang", *task.ErrorMessage)
}

func TestRunProgressIsMonotonic(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 3)

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A", "B", "C"})
	require.NoError(t, err)

	var seen []int
	f.llm.before = func(string) {
		seen = append(seen, f.task(t, res.TaskID).Progress)
	}
	require.NoError(t, f.orch.Run(ctx, res.TaskID))

	assert.Equal(t, []int{0, 33, 66}, seen)
	assert.Equal(t, 100, f.task(t, res.TaskID).Progress)
}

func TestRunSkipsDocTypesWithoutTemplate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 3)

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A", "B", "C"})
	require.NoError(t, err)

	tpl, err := f.env.Repos.Templates.GetByDocType(ctx, "B")
	require.NoError(t, err)
	tpl.IsActive = false
	require.NoError(t, f.env.Repos.Templates.Update(ctx, tpl))

	require.NoError(t, f.orch.Run(ctx, res.TaskID))
	task := f.task(t, res.TaskID)
	assert.Equal(t, constants.TaskStatusCompleted, task.Status)
	assert.Equal(t, 2, task.CompletedDocs)
	assert.Equal(t, 66, task.Progress)
	assert.Nil(t, task.ErrorMessage)
	assert.Equal(t, []string{"A", "C"}, f.llm.called())
}

func TestRunMissingPlaceholderIsPerDocument(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.env.Template(t, "BAD", "doc BAD {salary_expectation}", 1)
	u, app := f.applicant(t, 2)

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"BAD", "A"})
	require.NoError(t, err)
	require.NoError(t, f.orch.Run(ctx, res.TaskID))

	task := f.task(t, res.TaskID)
	assert.Equal(t, constants.TaskStatusCompleted, task.Status)
	assert.Equal(t, 2, task.CompletedDocs)
	assert.Equal(t, "Error generating BAD: template BAD: no value for placeholder {salary_expectation}", *task.ErrorMessage)
	assert.Equal(t, []string{"A"}, f.llm.called(), "no LLM call for an unbuildable prompt")
}

func TestRunTerminalTaskIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 1)

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A"})
	require.NoError(t, err)
	require.NoError(t, f.orch.Run(ctx, res.TaskID))
	first := f.task(t, res.TaskID)

	require.NoError(t, f.orch.Run(ctx, res.TaskID))
	require.NoError(t, f.orch.Fail(ctx, res.TaskID, errors.New("late")))

	again := f.task(t, res.TaskID)
	assert.Equal(t, constants.TaskStatusCompleted, again.Status)
	assert.Equal(t, first.Progress, again.Progress)
	assert.Nil(t, again.ErrorMessage)
	assert.Equal(t, []string{"A"}, f.llm.called())
}

func TestRunResumesRedeliveredTask(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 3)

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A", "B", "C"})
	require.NoError(t, err)

	// a previous worker produced A, checkpointed and crashed
	_, err = f.env.Repos.GenerationTasks.Start(ctx, res.TaskID, 3)
	require.NoError(t, err)
	_, err = f.env.Repos.GeneratedDocuments.Create(ctx, &entity.GeneratedDocument{
		ApplicationID:    app.ID,
		GenerationTaskID: &res.TaskID,
		DocType:          "A",
		StoragePath:      "unpersisted:A",
		Content:          "content A",
	})
	require.NoError(t, err)
	require.NoError(t, f.env.Repos.GenerationTasks.Checkpoint(ctx, res.TaskID, 1, 33, nil))

	require.NoError(t, f.orch.Run(ctx, res.TaskID))

	assert.Equal(t, []string{"B", "C"}, f.llm.called())
	task := f.task(t, res.TaskID)
	assert.Equal(t, constants.TaskStatusCompleted, task.Status)
	assert.Equal(t, 3, task.CompletedDocs)
	assert.Equal(t, 100, task.Progress)

	docs, err := f.env.Repos.GeneratedDocuments.ListByTask(ctx, res.TaskID)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestRunFailsWithoutCV(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u := f.env.User(t, 0, "")
	app := f.env.Application(t, u.ID)

	task, err := f.env.Repos.GenerationTasks.Create(ctx, &entity.GenerationTask{
		ApplicationID: app.ID,
		UserID:        u.ID,
		DocTypes:      entity.StringList{"A"},
	})
	require.NoError(t, err)
	require.NoError(t, f.orch.Run(ctx, task.ID))

	got := f.task(t, task.ID)
	assert.Equal(t, constants.TaskStatusFailed, got.Status)
	assert.Equal(t, "No CV found", *got.ErrorMessage)
	assert.Empty(t, f.llm.called())
}

func TestRunPersistFailureKeepsDocument(t *testing.T) {
	f := newFixture(t, failingStore{})
	ctx := context.Background()
	u, app := f.applicant(t, 1)

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A"})
	require.NoError(t, err)
	require.NoError(t, f.orch.Run(ctx, res.TaskID))

	docs, err := f.env.Repos.GeneratedDocuments.ListByTask(ctx, res.TaskID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "unpersisted:A", docs[0].StoragePath)
	assert.Equal(t, "content A", docs[0].Content)
	assert.Equal(t, constants.TaskStatusCompleted, f.task(t, res.TaskID).Status)
}

func TestDeleteDocuments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 2)

	res, err := f.service.CreateTask(ctx, u.ID, app.ID, []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, f.orch.Run(ctx, res.TaskID))

	docs, err := f.env.Repos.GeneratedDocuments.ListByApplication(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	stranger := f.env.User(t, 0, "")
	_, err = f.service.DeleteDocuments(ctx, stranger.ID, app.ID, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	n, err := f.service.DeleteDocuments(ctx, u.ID, app.ID, []uuid.UUID{docs[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = os.Stat(filepath.FromSlash(docs[0].StoragePath))
	assert.True(t, os.IsNotExist(err))

	n, err = f.service.DeleteDocuments(ctx, u.ID, app.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEndToEndThroughQueue(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, app := f.applicant(t, 3)

	runner := async.NewRunner(repotest.Logger(), async.WithRetryDelay(time.Millisecond))
	runner.Handle(async.KindGeneration, f.orch)
	queue := async.NewProcessorQueue(runner, repotest.Logger(), async.WithWorkers(1))

	service := generation.NewService(repotest.Logger(), f.env.DB, f.env.Repos,
		templates.NewResolver(f.env.Repos.Templates, templates.NewCatalog(nil, nil, nil), templates.Defaults{}, repotest.Logger()),
		f.ledger, sources.New(f.env.Repos.Users, f.env.Repos.Documents, f.env.Repos.JobOffers, repotest.Logger()),
		queue, storage.NewLocal(f.root, repotest.Logger()))

	res, err := service.CreateTask(ctx, u.ID, app.ID, []string{"A", "B", "C"})
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	task := f.task(t, res.TaskID)
	assert.Equal(t, constants.TaskStatusCompleted, task.Status)
	assert.Equal(t, 3, task.CompletedDocs)

	_, err = service.CreateTask(ctx, u.ID, app.ID, []string{"A"})
	_, insufficient := credits.IsInsufficient(err)
	assert.True(t, insufficient)
}

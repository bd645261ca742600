package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aleister1102/changewatch/internal/common"
	"github.com/aleister1102/changewatch/internal/fetcher"
	"github.com/aleister1102/changewatch/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSchedulerClosed is returned by lifecycle commands after Shutdown.
var ErrSchedulerClosed = errors.New("task scheduler is shut down")

// TaskScheduler owns every task's polling loop. Registry mutations and the
// runner map are serialized by one mutex; loop joins happen outside of it so
// that pausing one task never blocks commands on another.
type TaskScheduler struct {
	deps     Dependencies
	unit     time.Duration
	now      func() time.Time
	validate *validator.Validate
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	runners map[string]*taskRunner
	closed  bool

	// retiring counts loops of deleted tasks that have not exited yet.
	retiring sync.WaitGroup
}

// Option customizes a TaskScheduler.
type Option func(*TaskScheduler)

// WithIntervalUnit sets the duration of one interval "second".
func WithIntervalUnit(unit time.Duration) Option {
	return func(s *TaskScheduler) {
		if unit > 0 {
			s.unit = unit
		}
	}
}

// WithClock overrides the time source used for snapshots and history.
func WithClock(now func() time.Time) Option {
	return func(s *TaskScheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTaskScheduler creates a scheduler. No task runs until CreateTask,
// ResumeTask or Restore is called.
func NewTaskScheduler(deps Dependencies, logger zerolog.Logger, opts ...Option) (*TaskScheduler, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &TaskScheduler{
		deps:     deps,
		unit:     time.Second,
		now:      time.Now,
		validate: validator.New(),
		logger:   logger.With().Str("component", "TaskScheduler").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		runners:  make(map[string]*taskRunner),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateTask validates input, persists the task and starts its loop.
func (s *TaskScheduler) CreateTask(ctx context.Context, input models.CreateTaskInput) (models.MonitorTask, error) {
	kind, err := models.ParseResourceKind(input.Kind)
	if err != nil {
		return models.MonitorTask{}, common.NewValidationError("kind", input.Kind, "must be one of website, rss, github")
	}
	if err := s.validateInput(input); err != nil {
		return models.MonitorTask{}, err
	}

	taskURL := input.URL
	if kind == models.KindGitHub {
		taskURL = fetcher.ReleasesFeedURL(taskURL)
	}

	task := models.MonitorTask{
		ID:              newTaskID(),
		URL:             taskURL,
		Kind:            kind,
		IntervalSeconds: input.IntervalSeconds,
		CompareMode:     input.CompareMode,
		Notify:          input.Notify,
		Recipients:      nonNilStrings(input.Recipients),
		CCRecipients:    nonNilStrings(input.CCRecipients),
		Status:          models.StatusRunning,
		CreatedAt:       s.now(),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.MonitorTask{}, ErrSchedulerClosed
	}
	if err := s.deps.Registry.Save(ctx, task); err != nil {
		s.mu.Unlock()
		s.logger.Error().Err(err).Str("url", task.URL).Msg("Failed to persist new task")
		return models.MonitorTask{}, err
	}
	runner := newTaskRunner(task, &s.deps, s.unit, s.now, s.logger)
	s.runners[task.ID] = runner
	s.mu.Unlock()

	runner.reconcile(s.ctx)
	s.logger.Info().Str("task_id", task.ID).Str("kind", string(task.Kind)).Str("url", task.URL).Int("interval_seconds", task.IntervalSeconds).Msg("Task created")
	return task, nil
}

// DeleteTask removes a task from the registry and cancels its loop without
// waiting for an in-flight tick. Purgers run once the runner has stopped
// writing; the in-flight tick keeps fetching but drops its snapshot and
// history row. Deleting an unknown id reports not found.
func (s *TaskScheduler) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	removed, err := s.deps.Registry.Delete(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	runner, known := s.runners[id]
	delete(s.runners, id)
	var done <-chan struct{}
	if known {
		if done = runner.loopDone(); done != nil {
			s.retiring.Add(1)
		}
	}
	s.mu.Unlock()

	if done != nil {
		go func() {
			defer s.retiring.Done()
			<-done
		}()
	}
	if known {
		runner.markDeleted()
		runner.reconcile(s.ctx)
	}
	if !removed && !known {
		return notFound(id)
	}

	for _, p := range s.deps.Purgers {
		if err := p.Purge(id); err != nil {
			s.logger.Warn().Err(err).Str("task_id", id).Msg("Failed to purge task artifacts")
		}
	}
	s.logger.Info().Str("task_id", id).Msg("Task deleted")
	return nil
}

// PauseTask persists the paused state, then stops the loop and waits for
// any in-flight tick. Pausing a paused task is a no-op.
func (s *TaskScheduler) PauseTask(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.StatusPaused)
}

// ResumeTask restarts a paused task with a fresh timer.
func (s *TaskScheduler) ResumeTask(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.StatusRunning)
}

func (s *TaskScheduler) transition(ctx context.Context, id string, status models.TaskStatus) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	runner, ok := s.runners[id]
	if !ok {
		s.mu.Unlock()
		return notFound(id)
	}
	if runner.status() != status {
		if err := s.deps.Registry.UpdateStatus(ctx, id, status); err != nil {
			s.mu.Unlock()
			return err
		}
		runner.setStatus(status)
		s.logger.Info().Str("task_id", id).Str("status", string(status)).Msg("Task status changed")
	}
	s.mu.Unlock()

	runner.reconcile(s.ctx)
	return nil
}

// GetTask returns one task with its runtime state.
func (s *TaskScheduler) GetTask(ctx context.Context, id string) (models.TaskSummary, error) {
	s.mu.Lock()
	runner, ok := s.runners[id]
	s.mu.Unlock()
	if ok {
		return runner.summary(), nil
	}

	task, err := s.deps.Registry.Get(ctx, id)
	if err != nil {
		return models.TaskSummary{}, err
	}
	return models.TaskSummary{MonitorTask: *task}, nil
}

// ListTasks returns every persisted task, oldest first, merged with the
// runtime state of its runner.
func (s *TaskScheduler) ListTasks(ctx context.Context) ([]models.TaskSummary, error) {
	tasks, err := s.deps.Registry.List(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]models.TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		if runner, ok := s.runners[task.ID]; ok {
			summaries = append(summaries, runner.summary())
			continue
		}
		summaries = append(summaries, models.TaskSummary{MonitorTask: task})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Restore loads the registry and starts every task whose persisted status
// is running. It returns the number of started tasks.
func (s *TaskScheduler) Restore(ctx context.Context) (int, error) {
	tasks, err := s.deps.Registry.List(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSchedulerClosed
	}
	restored := make([]*taskRunner, 0, len(tasks))
	for _, task := range tasks {
		if _, exists := s.runners[task.ID]; exists {
			continue
		}
		runner := newTaskRunner(task, &s.deps, s.unit, s.now, s.logger)
		s.runners[task.ID] = runner
		restored = append(restored, runner)
	}
	s.mu.Unlock()

	started := 0
	for _, runner := range restored {
		if runner.status() == models.StatusRunning {
			runner.reconcile(s.ctx)
			started++
		}
	}
	s.logger.Info().Int("tasks", len(restored)).Int("started", started).Msg("Tasks restored from registry")
	return started, nil
}

// Shutdown cancels every loop, including in-flight ticks, and waits for
// them to exit or for ctx to expire.
func (s *TaskScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	runners := make([]*taskRunner, 0, len(s.runners))
	for _, r := range s.runners {
		runners = append(runners, r)
	}
	s.mu.Unlock()

	s.cancel()

	var errs common.ErrorCollector
	for _, r := range runners {
		errs.AddWithContext(r.wait(ctx), fmt.Sprintf("waiting for task '%s' to stop", r.snapshot().ID))
	}
	errs.AddWithContext(s.waitRetiring(ctx), "waiting for deleted tasks to stop")
	if errs.HasErrors() {
		return errs.Error()
	}
	s.logger.Info().Int("tasks", len(runners)).Msg("Task scheduler stopped")
	return nil
}

func (s *TaskScheduler) waitRetiring(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.retiring.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *TaskScheduler) validateInput(input models.CreateTaskInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return common.NewValidationError(fe.Field(), fe.Value(), fmt.Sprintf("failed '%s' validation", fe.Tag()))
	}
	return common.WrapError(common.ErrInvalidInput, err.Error())
}

func notFound(id string) error {
	return fmt.Errorf("task '%s': %w", id, models.ErrRecordNotFound)
}

func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

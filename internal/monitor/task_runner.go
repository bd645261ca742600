package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aleister1102/changewatch/internal/metrics"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/aleister1102/changewatch/internal/notifier"

	"github.com/rs/zerolog"
)

// taskRunner owns the polling loop and the in-memory state of one task.
type taskRunner struct {
	deps   *Dependencies
	unit   time.Duration
	now    func() time.Time
	logger zerolog.Logger

	// mu guards the fields below.
	mu          sync.Mutex
	task        models.MonitorTask
	deleted     bool
	lastContent string
	hasBaseline bool
	lastCheckAt time.Time
	lastError   string

	// writeMu orders snapshot and history writes against markDeleted, so
	// purgers running after a delete never race a late write.
	writeMu sync.Mutex

	// opMu serializes loop start/stop; cancel and done are only touched under it.
	opMu   sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newTaskRunner(task models.MonitorTask, deps *Dependencies, unit time.Duration, now func() time.Time, logger zerolog.Logger) *taskRunner {
	return &taskRunner{
		deps: deps,
		unit: unit,
		now:  now,
		task: task,
		logger: logger.With().
			Str("task_id", task.ID).
			Str("kind", string(task.Kind)).
			Str("url", task.URL).
			Logger(),
	}
}

func (r *taskRunner) snapshot() models.MonitorTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.task
}

func (r *taskRunner) status() models.TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.task.Status
}

func (r *taskRunner) setStatus(status models.TaskStatus) {
	r.mu.Lock()
	r.task.Status = status
	r.mu.Unlock()
}

// markDeleted blocks until any in-progress write has finished. Writes
// attempted afterwards are dropped.
func (r *taskRunner) markDeleted() {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	r.deleted = true
	r.mu.Unlock()
}

// persist runs write unless the task has been deleted.
func (r *taskRunner) persist(write func()) bool {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	deleted := r.deleted
	r.mu.Unlock()
	if deleted {
		return false
	}
	write()
	return true
}

// loopDone returns the channel closed when the current loop exits, or nil.
func (r *taskRunner) loopDone() <-chan struct{} {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	return r.done
}

func (r *taskRunner) summary() models.TaskSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := models.TaskSummary{
		MonitorTask: r.task,
		HasBaseline: r.hasBaseline,
		LastError:   r.lastError,
	}
	if !r.lastCheckAt.IsZero() {
		at := r.lastCheckAt
		s.LastCheckAt = &at
	}
	return s
}

// reconcile brings the loop in line with the desired state: running tasks
// get a loop, paused tasks lose theirs after the in-flight tick completes,
// deleted tasks are cancelled without waiting.
func (r *taskRunner) reconcile(base context.Context) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	deleted := r.deleted
	wantRunning := r.task.Status == models.StatusRunning
	r.mu.Unlock()

	switch {
	case deleted:
		if r.cancel != nil {
			r.cancel()
			r.logger.Info().Msg("Task deleted, loop cancelled")
		}
		r.cancel, r.done = nil, nil
	case wantRunning && r.done == nil:
		if base.Err() != nil {
			return
		}
		loopCtx, cancel := context.WithCancel(base)
		done := make(chan struct{})
		r.cancel, r.done = cancel, done
		metrics.IncActiveTasks()
		go r.loop(loopCtx, base, done)
		r.logger.Info().Dur("interval", r.snapshot().Interval(r.unit)).Msg("Task loop started")
	case !wantRunning && r.done != nil:
		r.cancel()
		<-r.done
		r.cancel, r.done = nil, nil
		r.logger.Info().Msg("Task loop stopped")
	}
}

// wait blocks until the current loop, if any, has exited or ctx is done.
func (r *taskRunner) wait(ctx context.Context) error {
	r.opMu.Lock()
	done := r.done
	r.opMu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop ticks immediately and then sleeps interval between tick ends.
// Ticks run on tickCtx so that cancelling loopCtx never interrupts one.
func (r *taskRunner) loop(loopCtx, tickCtx context.Context, done chan struct{}) {
	defer close(done)
	defer metrics.DecActiveTasks()

	for {
		if loopCtx.Err() != nil {
			return
		}
		r.tick(tickCtx)

		timer := time.NewTimer(r.snapshot().Interval(r.unit))
		select {
		case <-loopCtx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// tick runs one fetch/snapshot/diff/classify/notify pass. It never panics
// and never returns an error; outcomes go to logs, metrics and history.
func (r *taskRunner) tick(ctx context.Context) {
	started := r.now()
	task := r.snapshot()
	record := models.CheckRecord{
		TaskID:      task.ID,
		URL:         task.URL,
		CheckedAtMs: started.UnixMilli(),
	}

	defer func() {
		if rec := recover(); rec != nil {
			record.Outcome = string(models.OutcomePanicked)
			record.ErrorMessage = fmt.Sprint(rec)
			r.logger.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic during tick")
		}
		r.finishTick(task, record, started)
	}()

	r.runTick(ctx, task, &record)
}

func (r *taskRunner) runTick(ctx context.Context, task models.MonitorTask, record *models.CheckRecord) {
	content, err := r.fetch(ctx, task)
	if err != nil {
		record.Outcome = string(models.OutcomeFetchFailed)
		record.ErrorMessage = err.Error()
		metrics.ObserveFetchError(string(task.Kind))
		r.logger.Warn().Err(err).Msg("Fetch failed, skipping this tick")
		return
	}
	record.ContentLength = int64(len(content))

	var path string
	var saveErr error
	saved := r.persist(func() {
		path, saveErr = r.deps.Snapshots.Save(models.Snapshot{
			TaskID:  task.ID,
			Kind:    task.Kind,
			Content: content,
			TakenAt: r.now(),
		})
	})
	if !saved {
		r.logger.Debug().Msg("Task deleted during fetch, snapshot dropped")
	}
	if saveErr != nil {
		r.logger.Error().Err(saveErr).Msg("Failed to save snapshot")
	}
	record.SnapshotPath = path

	if !task.CompareMode {
		record.Outcome = string(models.OutcomeSnapshotted)
		return
	}

	diff := r.compare(content)
	record.LinesAdded = int32(diff.LinesAdded)
	record.LinesDeleted = int32(diff.LinesDeleted)
	switch {
	case diff.NoBaseline:
		record.Outcome = string(models.OutcomeBaseline)
		r.logger.Info().Int("bytes", len(content)).Msg("Baseline recorded")
		return
	case !diff.HasChanges():
		record.Outcome = string(models.OutcomeUnchanged)
		r.logger.Debug().Msg("No change detected")
		return
	}

	record.Outcome = string(models.OutcomeChanged)
	r.logger.Info().Int("lines_added", diff.LinesAdded).Int("lines_deleted", diff.LinesDeleted).Msg("Change detected")

	if !task.Notify {
		return
	}
	r.classifyAndNotify(ctx, task, diff, record)
}

func (r *taskRunner) fetch(ctx context.Context, task models.MonitorTask) (string, error) {
	f, err := r.deps.Fetchers.ForKind(task.Kind)
	if err != nil {
		return "", err
	}
	return f.Fetch(ctx, task.URL)
}

// compare diffs content against the last-known content. The first content
// of a runner yields the no-baseline result.
func (r *taskRunner) compare(content string) models.DiffResult {
	previous, hadBaseline := r.swapContent(content)
	if !hadBaseline {
		return models.NoBaselineResult()
	}
	return r.deps.Differ.Compute(previous, content)
}

// swapContent stores content as the last-known content and returns the
// previous value and whether one existed.
func (r *taskRunner) swapContent(content string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, had := r.lastContent, r.hasBaseline
	r.lastContent = content
	r.hasBaseline = true
	return previous, had
}

func (r *taskRunner) classifyAndNotify(ctx context.Context, task models.MonitorTask, diff models.DiffResult, record *models.CheckRecord) {
	diffText := diff.Text()

	var verdict *models.ClassificationVerdict
	v, classifyErr := r.deps.Classifier.Classify(ctx, diffText)
	if classifyErr != nil {
		metrics.ObserveClassification(metrics.ClassifyUnavailable)
		r.logger.Warn().Err(classifyErr).Msg("Classifier unavailable, notifying by default")
	} else {
		verdict = &v
		record.Classified = true
		record.NeedsReview = v.NeedsReview
		if v.NeedsReview {
			metrics.ObserveClassification(metrics.ClassifyReview)
		} else {
			metrics.ObserveClassification(metrics.ClassifyNoReview)
		}
	}

	if !notifier.ShouldNotify(diff, verdict, classifyErr) {
		metrics.ObserveNotification(metrics.NotifySuppressed)
		r.logger.Info().Str("reason", v.Reason).Msg("Classifier found no review needed, notification suppressed")
		return
	}

	record.Notified = r.deps.Notifier.Notify(ctx, task, diffText, verdict)
	if record.Notified {
		metrics.ObserveNotification(metrics.NotifySent)
	} else {
		metrics.ObserveNotification(metrics.NotifyFailed)
	}
}

func (r *taskRunner) finishTick(task models.MonitorTask, record models.CheckRecord, started time.Time) {
	elapsed := r.now().Sub(started)

	r.mu.Lock()
	r.lastCheckAt = started
	r.lastError = record.ErrorMessage
	r.mu.Unlock()

	metrics.ObserveTick(string(task.Kind), record.Outcome, elapsed)

	if r.deps.History == nil {
		return
	}
	var err error
	r.persist(func() { err = r.deps.History.Append(record) })
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to record check history")
	}
}

package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/differ"
	"github.com/aleister1102/changewatch/internal/fetcher"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/aleister1102/changewatch/internal/notifier"
	"github.com/rs/zerolog"
)

type memRegistry struct {
	mu      sync.Mutex
	tasks   map[string]models.MonitorTask
	saveErr error
}

func newMemRegistry() *memRegistry {
	return &memRegistry{tasks: make(map[string]models.MonitorTask)}
}

func (m *memRegistry) Save(_ context.Context, task models.MonitorTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *memRegistry) Get(_ context.Context, id string) (*models.MonitorTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &task, nil
}

func (m *memRegistry) List(_ context.Context) ([]models.MonitorTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := make([]models.MonitorTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (m *memRegistry) UpdateStatus(_ context.Context, id string, status models.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	task.Status = status
	m.tasks[id] = task
	return nil
}

func (m *memRegistry) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	delete(m.tasks, id)
	return ok, nil
}

func (m *memRegistry) status(id string) models.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id].Status
}

// scriptedFetcher returns contents in order, repeating the last one.
type scriptedFetcher struct {
	mu       sync.Mutex
	contents []string
	errs     map[int]error
	panicOn  int
	calls    int
	urls     []string

	// started receives one value per call when non-nil.
	started chan struct{}
	// release, when non-nil, blocks every call until it is closed.
	release chan struct{}
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.urls = append(f.urls, url)
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if release != nil {
		<-release
	}

	if call == f.panicOn {
		panic("fetcher exploded")
	}
	if err, ok := f.errs[call]; ok {
		return "", &fetcher.FetchError{URL: url, Stage: fetcher.StageRequest, Err: err}
	}
	if len(f.contents) == 0 {
		return "", nil
	}
	idx := call - 1
	if idx >= len(f.contents) {
		idx = len(f.contents) - 1
	}
	return f.contents[idx], nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type singleFetcher struct {
	f fetcher.Fetcher
}

func (s singleFetcher) ForKind(models.ResourceKind) (fetcher.Fetcher, error) {
	return s.f, nil
}

type memSnapshots struct {
	mu    sync.Mutex
	saved []models.Snapshot
}

func (m *memSnapshots) Save(s models.Snapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, s)
	return "/snapshots/" + s.TaskID, nil
}

func (m *memSnapshots) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type memHistory struct {
	mu      sync.Mutex
	records []models.CheckRecord
}

func (m *memHistory) Append(r models.CheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memHistory) List(taskID string, limit int) ([]models.CheckRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CheckRecord
	for _, r := range m.records {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memHistory) outcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Outcome)
	}
	return out
}

type stubClassifier struct {
	mu      sync.Mutex
	verdict models.ClassificationVerdict
	err     error
	calls   int
	diffs   []string
}

func (c *stubClassifier) Classify(_ context.Context, diffText string) (models.ClassificationVerdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.diffs = append(c.diffs, diffText)
	return c.verdict, c.err
}

func (c *stubClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingSender struct {
	mu       sync.Mutex
	messages []notifier.Message
}

func (s *recordingSender) Send(_ context.Context, msg notifier.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) Mode() string { return "test" }

func (s *recordingSender) sent() []notifier.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifier.Message(nil), s.messages...)
}

var errUnreachable = errors.New("connection refused")

type harness struct {
	registry   *memRegistry
	fetcher    *scriptedFetcher
	snapshots  *memSnapshots
	history    *memHistory
	classifier *stubClassifier
	sender     *recordingSender
	deps       Dependencies
}

func newHarness(contents ...string) *harness {
	h := &harness{
		registry:   newMemRegistry(),
		fetcher:    &scriptedFetcher{contents: contents, errs: map[int]error{}},
		snapshots:  &memSnapshots{},
		history:    &memHistory{},
		classifier: &stubClassifier{},
		sender:     &recordingSender{},
	}
	h.deps = Dependencies{
		Registry:   h.registry,
		Fetchers:   singleFetcher{f: h.fetcher},
		Snapshots:  h.snapshots,
		Differ:     differ.NewEngine("", zerolog.Nop()),
		Classifier: h.classifier,
		Notifier:   notifier.NewEmailNotifierWithSender(h.sender, config.TemplateConfig{}, zerolog.Nop()),
		History:    h.history,
	}
	return h
}

func (h *harness) runner(task models.MonitorTask) *taskRunner {
	if task.ID == "" {
		task.ID = "task-1"
	}
	if task.URL == "" {
		task.URL = "https://example.com/page"
	}
	if task.Kind == "" {
		task.Kind = models.KindWebsite
	}
	if task.IntervalSeconds == 0 {
		task.IntervalSeconds = 1
	}
	if task.Status == "" {
		task.Status = models.StatusRunning
	}
	return newTaskRunner(task, &h.deps, time.Millisecond, time.Now, zerolog.Nop())
}

func (h *harness) scheduler(opts ...Option) (*TaskScheduler, error) {
	opts = append([]Option{WithIntervalUnit(time.Millisecond)}, opts...)
	return NewTaskScheduler(h.deps, zerolog.Nop(), opts...)
}

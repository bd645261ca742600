// Package api exposes task lifecycle commands and read-only monitor state over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/aleister1102/changewatch/internal/datastore"
	"github.com/aleister1102/changewatch/internal/metrics"
	"github.com/aleister1102/changewatch/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	maxRequestBodyBytes = 1 << 20
	requestTimeout      = 30 * time.Second
	defaultHistoryLimit = 50
)

// TaskService is the lifecycle surface of the scheduler.
type TaskService interface {
	CreateTask(ctx context.Context, input models.CreateTaskInput) (models.MonitorTask, error)
	DeleteTask(ctx context.Context, id string) error
	PauseTask(ctx context.Context, id string) error
	ResumeTask(ctx context.Context, id string) error
	GetTask(ctx context.Context, id string) (models.TaskSummary, error)
	ListTasks(ctx context.Context) ([]models.TaskSummary, error)
}

// SnapshotLister lists the stored snapshots of a task.
type SnapshotLister interface {
	List(taskID string) ([]datastore.SnapshotFile, error)
}

// HistoryLister reads a task's check history, newest first.
type HistoryLister interface {
	List(taskID string, limit int) ([]models.CheckRecord, error)
}

// LastDiffReader returns the most recently computed diff.
type LastDiffReader interface {
	LastDiff() (string, error)
}

// Server wires HTTP handlers to the scheduler and stores.
type Server struct {
	router    chi.Router
	tasks     TaskService
	snapshots SnapshotLister
	history   HistoryLister
	diffs     LastDiffReader
	logger    zerolog.Logger
}

// NewServer builds the router. history and diffs may be nil, in which case
// their endpoints answer 503.
func NewServer(tasks TaskService, snapshots SnapshotLister, history HistoryLister, diffs LastDiffReader, logger zerolog.Logger) *Server {
	s := &Server{
		tasks:     tasks,
		snapshots: snapshots,
		history:   history,
		diffs:     diffs,
		logger:    logger.With().Str("component", "APIServer").Logger(),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(timeoutMiddleware(requestTimeout))

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", s.createTask)
			r.Get("/", s.listTasks)
			r.Route("/{task_id}", func(r chi.Router) {
				r.Get("/", s.getTask)
				r.Delete("/", s.deleteTask)
				r.Post("/pause", s.pauseTask)
				r.Post("/resume", s.resumeTask)
				r.Get("/snapshots", s.listSnapshots)
				r.Get("/history", s.listHistory)
			})
		})
		r.Get("/diff/last", s.lastDiff)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// NewHTTPServer wraps the router in an http.Server listening on addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

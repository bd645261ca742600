package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/changewatch/internal/models"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// TaskStore is the sqlite backed task registry.
type TaskStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewTaskStore opens the registry database and ensures the schema is set up.
func NewTaskStore(dataSourceName string, logger zerolog.Logger) (*TaskStore, error) {
	logger = logger.With().Str("component", "TaskStore").Logger()
	logger.Info().Str("db_path", dataSourceName).Msg("Initializing task registry database")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create task registry directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// A single connection keeps sqlite writers from racing into SQLITE_BUSY.
	dbInstance.SetMaxOpenConns(1)

	store := &TaskStore{
		db:     dbInstance,
		logger: logger,
	}

	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Info().Str("path", dataSourceName).Msg("Task registry initialized and schema verified")
	return store, nil
}

// Close closes the database connection.
func (s *TaskStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the tasks table if it doesn't already exist.
func (s *TaskStore) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		interval_seconds INTEGER NOT NULL,
		compare_mode INTEGER NOT NULL DEFAULT 0,
		notify INTEGER NOT NULL DEFAULT 0,
		recipients TEXT NOT NULL DEFAULT '[]',
		cc_recipients TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// Save inserts the task or replaces the stored row with the same id.
func (s *TaskStore) Save(ctx context.Context, task models.MonitorTask) error {
	recipients, err := encodeAddresses(task.Recipients)
	if err != nil {
		return NewRegistryError("save", task.ID, err)
	}
	cc, err := encodeAddresses(task.CCRecipients)
	if err != nil {
		return NewRegistryError("save", task.ID, err)
	}

	query := `
	INSERT INTO tasks (id, url, kind, interval_seconds, compare_mode, notify, recipients, cc_recipients, status, created_at_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		url = excluded.url,
		kind = excluded.kind,
		interval_seconds = excluded.interval_seconds,
		compare_mode = excluded.compare_mode,
		notify = excluded.notify,
		recipients = excluded.recipients,
		cc_recipients = excluded.cc_recipients,
		status = excluded.status
	`
	_, err = s.db.ExecContext(ctx, query,
		task.ID, task.URL, string(task.Kind), task.IntervalSeconds,
		task.CompareMode, task.Notify, recipients, cc,
		string(task.Status), task.CreatedAt.UnixMilli(),
	)
	if err != nil {
		s.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to save task")
		return NewRegistryError("save", task.ID, err)
	}
	return nil
}

// Get loads one task. A missing id yields an error wrapping models.ErrRecordNotFound.
func (s *TaskStore) Get(ctx context.Context, id string) (*models.MonitorTask, error) {
	row := s.db.QueryRowContext(ctx, selectTaskColumns+` WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewRegistryError("get", id, models.ErrRecordNotFound)
		}
		return nil, NewRegistryError("get", id, err)
	}
	return task, nil
}

// List returns every task ordered by creation time.
func (s *TaskStore) List(ctx context.Context) ([]models.MonitorTask, error) {
	rows, err := s.db.QueryContext(ctx, selectTaskColumns+` ORDER BY created_at_ms ASC, id ASC`)
	if err != nil {
		return nil, NewRegistryError("list", "", err)
	}
	defer rows.Close()

	tasks := make([]models.MonitorTask, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, NewRegistryError("list", "", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, NewRegistryError("list", "", err)
	}
	return tasks, nil
}

// UpdateStatus persists a new run state for an existing task.
func (s *TaskStore) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error {
	result, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		s.logger.Error().Err(err).Str("task_id", id).Msg("Failed to update task status")
		return NewRegistryError("update status", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return NewRegistryError("update status", id, err)
	}
	if affected == 0 {
		return NewRegistryError("update status", id, models.ErrRecordNotFound)
	}
	return nil
}

// Delete removes a task and reports whether a row existed.
func (s *TaskStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		s.logger.Error().Err(err).Str("task_id", id).Msg("Failed to delete task")
		return false, NewRegistryError("delete", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, NewRegistryError("delete", id, err)
	}
	return affected > 0, nil
}

const selectTaskColumns = `SELECT id, url, kind, interval_seconds, compare_mode, notify, recipients, cc_recipients, status, created_at_ms FROM tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.MonitorTask, error) {
	var (
		task                models.MonitorTask
		kind, status        string
		recipients, cc      string
		compareMode, notify bool
		createdAtMs         int64
	)
	if err := row.Scan(&task.ID, &task.URL, &kind, &task.IntervalSeconds, &compareMode, &notify, &recipients, &cc, &status, &createdAtMs); err != nil {
		return nil, err
	}

	task.Kind = models.ResourceKind(kind)
	task.Status = models.TaskStatus(status)
	task.CompareMode = compareMode
	task.Notify = notify
	task.CreatedAt = time.UnixMilli(createdAtMs)

	var err error
	if task.Recipients, err = decodeAddresses(recipients); err != nil {
		return nil, fmt.Errorf("decoding recipients of task '%s': %w", task.ID, err)
	}
	if task.CCRecipients, err = decodeAddresses(cc); err != nil {
		return nil, fmt.Errorf("decoding cc recipients of task '%s': %w", task.ID, err)
	}
	return &task, nil
}

func encodeAddresses(addrs []string) (string, error) {
	if addrs == nil {
		addrs = []string{}
	}
	data, err := json.Marshal(addrs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeAddresses(raw string) ([]string, error) {
	addrs := []string{}
	if raw == "" {
		return addrs, nil
	}
	if err := json.Unmarshal([]byte(raw), &addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

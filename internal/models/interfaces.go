package models

import "context"

// TaskRegistry persists task descriptions. Implementations must be safe for
// concurrent use; the scheduler additionally serializes mutations.
type TaskRegistry interface {
	Save(ctx context.Context, task MonitorTask) error
	Get(ctx context.Context, id string) (*MonitorTask, error)
	List(ctx context.Context) ([]MonitorTask, error)
	UpdateStatus(ctx context.Context, id string, status TaskStatus) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// SnapshotWriter receives every successfully fetched body.
type SnapshotWriter interface {
	Save(snapshot Snapshot) (string, error)
}

// CheckHistoryStore records the outcome of every tick.
type CheckHistoryStore interface {
	Append(record CheckRecord) error
	List(taskID string, limit int) ([]CheckRecord, error)
}

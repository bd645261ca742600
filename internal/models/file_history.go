package models

import (
	"errors"
	"time"
)

var (
	// ErrRecordNotFound is returned when a task or history record does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidKind rejects resource kinds other than website, rss and github.
	ErrInvalidKind = errors.New("invalid resource kind")
)

// CheckOutcome classifies how a single tick ended.
type CheckOutcome string

const (
	OutcomeFetchFailed CheckOutcome = "fetch_failed"
	OutcomeSnapshotted CheckOutcome = "snapshotted"
	OutcomeBaseline    CheckOutcome = "baseline"
	OutcomeUnchanged   CheckOutcome = "unchanged"
	OutcomeChanged     CheckOutcome = "changed"
	OutcomePanicked    CheckOutcome = "panicked"
)

// Snapshot is one fetched content body with its capture time.
type Snapshot struct {
	TaskID  string
	Kind    ResourceKind
	Content string
	TakenAt time.Time
}

// CheckRecord is one row of a task's check history.
// Timestamps are stored as unix milliseconds.
type CheckRecord struct {
	TaskID        string `parquet:"task_id,zstd" json:"task_id"`
	URL           string `parquet:"url,zstd" json:"url"`
	CheckedAtMs   int64  `parquet:"checked_at_ms" json:"checked_at_ms"`
	Outcome       string `parquet:"outcome,zstd" json:"outcome"`
	LinesAdded    int32  `parquet:"lines_added" json:"lines_added"`
	LinesDeleted  int32  `parquet:"lines_deleted" json:"lines_deleted"`
	Classified    bool   `parquet:"classified" json:"classified"`
	NeedsReview   bool   `parquet:"needs_review" json:"needs_review"`
	Notified      bool   `parquet:"notified" json:"notified"`
	SnapshotPath  string `parquet:"snapshot_path,zstd,optional" json:"snapshot_path,omitempty"`
	ErrorMessage  string `parquet:"error_message,zstd,optional" json:"error_message,omitempty"`
	ContentLength int64  `parquet:"content_length" json:"content_length"`
}

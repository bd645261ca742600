package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aleister1102/changewatch/internal/models"

	"github.com/rs/zerolog"
)

// SnapshotTimeLayout names snapshot files with second resolution.
const SnapshotTimeLayout = "20060102_150405"

// SnapshotFile describes one stored snapshot.
type SnapshotFile struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	TakenAt time.Time `json:"taken_at"`
	Size    int64     `json:"size"`
}

// SnapshotStore writes every fetched body to <dir>/<taskID>/<timestamp>.<ext>.
// Two snapshots of one task in the same second overwrite each other.
type SnapshotStore struct {
	dir    string
	logger zerolog.Logger
}

// NewSnapshotStore creates a new SnapshotStore rooted at dir.
func NewSnapshotStore(dir string, logger zerolog.Logger) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure snapshot directory '%s': %w", dir, err)
	}
	return &SnapshotStore{
		dir:    dir,
		logger: logger.With().Str("component", "SnapshotStore").Logger(),
	}, nil
}

// Dir returns the root snapshot directory.
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// Save writes the snapshot and returns the file path.
func (s *SnapshotStore) Save(snapshot models.Snapshot) (string, error) {
	taskDir, err := taskPath(s.dir, snapshot.TaskID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(taskDir, 0755); err != nil {
		return "", fmt.Errorf("creating snapshot directory '%s': %w", taskDir, err)
	}

	takenAt := snapshot.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}
	path := filepath.Join(taskDir, takenAt.Local().Format(SnapshotTimeLayout)+snapshotExt(snapshot.Kind))

	if err := os.WriteFile(path, []byte(snapshot.Content), 0644); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Failed to write snapshot")
		return "", fmt.Errorf("writing snapshot '%s': %w", path, err)
	}

	s.logger.Debug().Str("task_id", snapshot.TaskID).Str("path", path).Int("bytes", len(snapshot.Content)).Msg("Snapshot saved")
	return path, nil
}

// List returns the snapshots of a task, newest first. A task without
// snapshots yields an empty slice.
func (s *SnapshotStore) List(taskID string) ([]SnapshotFile, error) {
	taskDir, err := taskPath(s.dir, taskID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(taskDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SnapshotFile{}, nil
		}
		return nil, fmt.Errorf("reading snapshot directory '%s': %w", taskDir, err)
	}

	files := make([]SnapshotFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stamp := strings.TrimSuffix(name, filepath.Ext(name))
		takenAt, err := time.ParseInLocation(SnapshotTimeLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, SnapshotFile{
			Name:    name,
			Path:    filepath.Join(taskDir, name),
			TakenAt: takenAt,
			Size:    info.Size(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].TakenAt.After(files[j].TakenAt)
	})
	return files, nil
}

// Purge removes every snapshot of a task.
func (s *SnapshotStore) Purge(taskID string) error {
	taskDir, err := taskPath(s.dir, taskID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(taskDir); err != nil {
		return fmt.Errorf("removing snapshot directory '%s': %w", taskDir, err)
	}
	s.logger.Info().Str("task_id", taskID).Msg("Snapshots purged")
	return nil
}

func snapshotExt(kind models.ResourceKind) string {
	if kind.IsFeed() {
		return ".json"
	}
	return ".html"
}

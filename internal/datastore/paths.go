package datastore

import (
	"fmt"
	"path/filepath"
	"strings"
)

// taskPath joins a task id onto base and refuses ids that would resolve
// outside of it.
func taskPath(base, taskID string, elem ...string) (string, error) {
	if taskID == "" || taskID == "." || taskID == ".." || strings.ContainsAny(taskID, `/\`) {
		return "", fmt.Errorf("task id %q: %w", taskID, ErrUnsafePath)
	}

	cleanBase := filepath.Clean(base)
	joined := filepath.Join(append([]string{cleanBase, taskID}, elem...)...)

	rel, err := filepath.Rel(cleanBase, joined)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("task id %q: %w", taskID, ErrUnsafePath)
	}
	return joined, nil
}

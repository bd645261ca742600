package datastore

import (
	"errors"
	"fmt"
)

// ErrUnsafePath rejects task ids that would escape the storage directory.
var ErrUnsafePath = errors.New("unsafe storage path")

// RegistryError represents a persistence failure for task metadata.
type RegistryError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *RegistryError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("task registry %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("task registry %s failed for '%s': %v", e.Op, e.TaskID, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(op, taskID string, err error) error {
	return &RegistryError{Op: op, TaskID: taskID, Err: err}
}

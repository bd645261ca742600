package datastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "changewatch.lock"

// ErrDataDirLocked is returned when another process already owns the data directory.
var ErrDataDirLocked = errors.New("data directory is locked by another process")

// DirLock is an exclusive lock on a data directory.
type DirLock struct {
	lock *flock.Flock
}

// AcquireDirLock takes the lock file inside dir without blocking.
func AcquireDirLock(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure data directory '%s': %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", lock.Path(), ErrDataDirLocked)
	}
	return &DirLock{lock: lock}, nil
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.lock.Path()
}

// Release unlocks the data directory.
func (l *DirLock) Release() error {
	return l.lock.Unlock()
}

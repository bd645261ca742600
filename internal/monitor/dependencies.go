package monitor

import (
	"errors"

	"github.com/aleister1102/changewatch/internal/classifier"
	"github.com/aleister1102/changewatch/internal/fetcher"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/aleister1102/changewatch/internal/notifier"
)

// FetcherProvider returns the fetch strategy of a resource kind.
type FetcherProvider interface {
	ForKind(kind models.ResourceKind) (fetcher.Fetcher, error)
}

// DiffComputer compares the previous and current content of a task.
type DiffComputer interface {
	Compute(old, new string) models.DiffResult
}

// Purger drops per-task artifacts once a task is deleted.
type Purger interface {
	Purge(taskID string) error
}

// Dependencies are the collaborators shared by every task.
type Dependencies struct {
	Registry   models.TaskRegistry
	Fetchers   FetcherProvider
	Snapshots  models.SnapshotWriter
	Differ     DiffComputer
	Classifier classifier.Classifier
	Notifier   notifier.Notifier

	// History is optional; nil disables check history.
	History models.CheckHistoryStore
	// Purgers run after a successful delete.
	Purgers []Purger
}

func (d Dependencies) validate() error {
	switch {
	case d.Registry == nil:
		return errors.New("monitor: task registry is required")
	case d.Fetchers == nil:
		return errors.New("monitor: fetcher provider is required")
	case d.Snapshots == nil:
		return errors.New("monitor: snapshot writer is required")
	case d.Differ == nil:
		return errors.New("monitor: diff engine is required")
	case d.Classifier == nil:
		return errors.New("monitor: classifier is required")
	case d.Notifier == nil:
		return errors.New("monitor: notifier is required")
	}
	return nil
}

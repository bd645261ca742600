// Package notifier decides whether a detected change warrants an email and
// delivers it over SMTP or the SendCloud API.
package notifier

import (
	"context"

	"github.com/aleister1102/changewatch/internal/models"
)

// Notifier sends one change notification and reports whether it was delivered.
type Notifier interface {
	Notify(ctx context.Context, task models.MonitorTask, diffText string, verdict *models.ClassificationVerdict) bool
}

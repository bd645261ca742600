package notifier

import "github.com/aleister1102/changewatch/internal/models"

// ShouldNotify decides whether a diff is worth an email.
//
// Empty diffs and the first fetch of a task never notify. A non-empty diff
// notifies when the classifier asked for review, and also when no verdict
// could be obtained (classifyErr != nil) so that a real change is never
// silently dropped.
func ShouldNotify(diff models.DiffResult, verdict *models.ClassificationVerdict, classifyErr error) bool {
	if !diff.HasChanges() {
		return false
	}
	if classifyErr != nil || verdict == nil {
		return true
	}
	return verdict.NeedsReview
}

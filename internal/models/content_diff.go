package models

import "strings"

// DiffResult is the outcome of comparing two normalized contents.
type DiffResult struct {
	// Lines holds "-" and "+" prefixed lines in a stable order.
	Lines []string `json:"lines"`
	// NoBaseline marks the first fetch of a task; Lines is always empty then.
	NoBaseline   bool `json:"no_baseline"`
	LinesAdded   int  `json:"lines_added"`
	LinesDeleted int  `json:"lines_deleted"`
}

// NoBaselineResult is the sentinel produced for a task's first fetch.
func NoBaselineResult() DiffResult {
	return DiffResult{NoBaseline: true}
}

// IsEmpty reports "no change". The no-baseline sentinel is not empty, it is absent.
func (d DiffResult) IsEmpty() bool {
	return !d.NoBaseline && len(d.Lines) == 0
}

// HasChanges reports a real, non-empty diff.
func (d DiffResult) HasChanges() bool {
	return !d.NoBaseline && len(d.Lines) > 0
}

// Text joins the diff lines for classification and email bodies.
func (d DiffResult) Text() string {
	return strings.Join(d.Lines, "\n")
}

// ClassificationVerdict is the structured answer of the change classifier.
type ClassificationVerdict struct {
	NeedsReview bool   `json:"review_needed"`
	Summary     string `json:"changed_content"`
	Reason      string `json:"review_reason"`
}

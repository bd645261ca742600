package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ResourceKind selects the fetch strategy for a monitored resource.
type ResourceKind string

const (
	KindWebsite ResourceKind = "website"
	KindRSS     ResourceKind = "rss"
	KindGitHub  ResourceKind = "github"
)

// ResourceKinds lists every supported kind in a stable order.
var ResourceKinds = []ResourceKind{KindWebsite, KindRSS, KindGitHub}

// ParseResourceKind converts a user supplied kind, rejecting unknown values.
func ParseResourceKind(s string) (ResourceKind, error) {
	kind := ResourceKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range ResourceKinds {
		if k == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q: %w", s, ErrInvalidKind)
}

// IsFeed reports whether content of this kind is a serialized feed rather than HTML.
func (k ResourceKind) IsFeed() bool {
	return k == KindRSS || k == KindGitHub
}

// TaskStatus is the persisted run state of a task.
type TaskStatus string

const (
	StatusRunning TaskStatus = "running"
	StatusPaused  TaskStatus = "paused"
)

// MonitorTask is the persisted description of one monitored resource.
// Last-known content is deliberately absent: it only lives in the running task.
type MonitorTask struct {
	ID              string       `json:"id"`
	URL             string       `json:"url"`
	Kind            ResourceKind `json:"kind"`
	IntervalSeconds int          `json:"interval_seconds"`
	CompareMode     bool         `json:"compare_mode"`
	Notify          bool         `json:"notify"`
	Recipients      []string     `json:"recipients"`
	CCRecipients    []string     `json:"cc_recipients"`
	Status          TaskStatus   `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Interval converts IntervalSeconds using unit as the length of one "second".
func (t MonitorTask) Interval(unit time.Duration) time.Duration {
	return time.Duration(t.IntervalSeconds) * unit
}

// ResourceName is the display name used in notifications: the URL host,
// or the raw URL when it cannot be parsed.
func (t MonitorTask) ResourceName() string {
	u, err := url.Parse(t.URL)
	if err != nil || u.Host == "" {
		return t.URL
	}
	return u.Host
}

// CreateTaskInput is a create command as accepted from the control plane.
type CreateTaskInput struct {
	URL             string   `json:"url" validate:"required,url"`
	Kind            string   `json:"kind" validate:"required"`
	IntervalSeconds int      `json:"interval_seconds" validate:"required,min=1"`
	CompareMode     bool     `json:"compare_mode"`
	Notify          bool     `json:"notify"`
	Recipients      []string `json:"recipients" validate:"omitempty,dive,email"`
	CCRecipients    []string `json:"cc_recipients" validate:"omitempty,dive,email"`
}

// TaskSummary is what listTasks reports: the persisted task plus runtime facts.
type TaskSummary struct {
	MonitorTask
	HasBaseline bool       `json:"has_baseline"`
	LastCheckAt *time.Time `json:"last_check_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

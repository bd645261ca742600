// Package fetcher retrieves monitored resources and normalizes them into a
// text form whose line diff only reflects material changes.
package fetcher

import (
	"context"
	"fmt"

	"github.com/aleister1102/changewatch/internal/httpclient"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/rs/zerolog"
)

// Fetcher retrieves one resource and returns its normalized content.
// Every failure is returned as a *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Fetch stages reported in FetchError.
const (
	StageRequest = "request"
	StageParse   = "parse"
)

// FetchError is a failed fetch: network trouble, a non-2xx status or content
// that could not be parsed.
type FetchError struct {
	URL   string
	Kind  models.ResourceKind
	Stage string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch of '%s' failed during %s: %v", e.Kind, e.URL, e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(kind models.ResourceKind, url, stage string, err error) *FetchError {
	return &FetchError{URL: url, Kind: kind, Stage: stage, Err: err}
}

// Factory hands out the fetch strategy for a resource kind.
type Factory struct {
	fetchers map[models.ResourceKind]Fetcher
}

// NewFactory builds the three strategies on top of one shared client.
func NewFactory(client *httpclient.HTTPClient, logger zerolog.Logger) *Factory {
	feed := NewFeedFetcher(client, logger)
	return &Factory{
		fetchers: map[models.ResourceKind]Fetcher{
			models.KindWebsite: NewWebsiteFetcher(client, logger),
			models.KindRSS:     feed,
			models.KindGitHub:  NewGitHubFetcher(feed),
		},
	}
}

// ForKind returns the fetcher for kind.
func (f *Factory) ForKind(kind models.ResourceKind) (Fetcher, error) {
	fetcher, ok := f.fetchers[kind]
	if !ok {
		return nil, fmt.Errorf("no fetcher for kind %q: %w", kind, models.ErrInvalidKind)
	}
	return fetcher, nil
}

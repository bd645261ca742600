package fetcher

import (
	"bytes"
	"context"

	"github.com/aleister1102/changewatch/internal/httpclient"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/rs/zerolog"
)

// WebsiteFetcher GETs a page and returns its canonical HTML.
type WebsiteFetcher struct {
	client *httpclient.HTTPClient
	logger zerolog.Logger
}

// NewWebsiteFetcher creates a WebsiteFetcher
func NewWebsiteFetcher(client *httpclient.HTTPClient, logger zerolog.Logger) *WebsiteFetcher {
	return &WebsiteFetcher{
		client: client,
		logger: logger.With().Str("component", "WebsiteFetcher").Logger(),
	}
}

// Fetch implements Fetcher.
func (f *WebsiteFetcher) Fetch(ctx context.Context, url string) (string, error) {
	result, err := f.client.FetchContent(ctx, url, map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	})
	if err != nil {
		return "", newFetchError(models.KindWebsite, url, StageRequest, err)
	}

	normalized, err := NormalizeHTML(bytes.NewReader(result.Content))
	if err != nil {
		return "", newFetchError(models.KindWebsite, url, StageParse, err)
	}

	f.logger.Debug().
		Str("url", url).
		Int("raw_bytes", result.ContentLength).
		Int("normalized_bytes", len(normalized)).
		Msg("Fetched page")
	return normalized, nil
}

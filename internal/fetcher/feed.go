package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/aleister1102/changewatch/internal/httpclient"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// FeedFetcher downloads an RSS or Atom feed and serializes its entries.
type FeedFetcher struct {
	client *httpclient.HTTPClient
	logger zerolog.Logger
	kind   models.ResourceKind
}

// NewFeedFetcher creates a FeedFetcher
func NewFeedFetcher(client *httpclient.HTTPClient, logger zerolog.Logger) *FeedFetcher {
	return &FeedFetcher{
		client: client,
		logger: logger.With().Str("component", "FeedFetcher").Logger(),
		kind:   models.KindRSS,
	}
}

// feedEntry fixes the field order of serialized entries.
type feedEntry struct {
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	ID         string   `json:"id"`
	Published  string   `json:"published"`
	Updated    string   `json:"updated"`
	Authors    []string `json:"authors"`
	Categories []string `json:"categories"`
	Summary    string   `json:"summary"`
	Content    string   `json:"content"`
}

// Fetch implements Fetcher.
func (f *FeedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.fetch(ctx, url, f.kind)
}

func (f *FeedFetcher) fetch(ctx context.Context, url string, kind models.ResourceKind) (string, error) {
	result, err := f.client.FetchContent(ctx, url, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		return "", newFetchError(kind, url, StageRequest, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(result.Content))
	if err != nil {
		return "", newFetchError(kind, url, StageParse, err)
	}

	normalized, err := SerializeFeedItems(feed.Items)
	if err != nil {
		return "", newFetchError(kind, url, StageParse, err)
	}

	f.logger.Debug().Str("url", url).Int("entries", len(feed.Items)).Msg("Fetched feed")
	return normalized, nil
}

// SerializeFeedItems renders entries in feed order as indented JSON with a
// fixed key order.
func SerializeFeedItems(items []*gofeed.Item) (string, error) {
	entries := make([]feedEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, feedEntry{
			Title:      item.Title,
			Link:       item.Link,
			ID:         item.GUID,
			Published:  feedTime(item.PublishedParsed, item.Published),
			Updated:    feedTime(item.UpdatedParsed, item.Updated),
			Authors:    authorNames(item.Authors),
			Categories: nonNil(item.Categories),
			Summary:    item.Description,
			Content:    item.Content,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func feedTime(parsed *time.Time, raw string) string {
	if parsed != nil {
		return parsed.UTC().Format(time.RFC3339)
	}
	return raw
}

func authorNames(people []*gofeed.Person) []string {
	names := []string{}
	for _, p := range people {
		if p == nil {
			continue
		}
		if p.Name != "" {
			names = append(names, p.Name)
		} else if p.Email != "" {
			names = append(names, p.Email)
		}
	}
	return names
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

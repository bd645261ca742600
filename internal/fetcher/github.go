package fetcher

import (
	"context"
	"strings"

	"github.com/aleister1102/changewatch/internal/models"
)

const releasesFeedSuffix = "/releases.atom"

// ReleasesFeedURL turns a repository URL into its releases Atom feed URL.
// It is idempotent: a URL that already ends in /releases.atom is returned as is.
func ReleasesFeedURL(repoURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(repoURL), "/")
	if strings.HasSuffix(trimmed, releasesFeedSuffix) {
		return trimmed
	}
	return trimmed + releasesFeedSuffix
}

// GitHubFetcher fetches a repository's releases feed.
type GitHubFetcher struct {
	feed *FeedFetcher
}

// NewGitHubFetcher creates a GitHubFetcher on top of a FeedFetcher
func NewGitHubFetcher(feed *FeedFetcher) *GitHubFetcher {
	return &GitHubFetcher{feed: feed}
}

// Fetch implements Fetcher.
func (f *GitHubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.feed.fetch(ctx, ReleasesFeedURL(url), models.KindGitHub)
}

// Package classifier asks an OpenAI-compatible chat completion endpoint
// whether a content change needs human review.
//
// Every failure mode (transport, HTTP status, unparseable output, missing
// configuration) is reported as an error wrapping ErrUnavailable so that
// callers can apply a single fallback policy.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/httpclient"
	"github.com/aleister1102/changewatch/internal/models"

	"github.com/rs/zerolog"
)

var (
	// ErrUnavailable means no verdict could be obtained for a diff.
	ErrUnavailable = errors.New("classifier unavailable")
	// ErrDisabled is returned by the classifier used when no model or key is configured.
	ErrDisabled = fmt.Errorf("%w: not configured", ErrUnavailable)
)

// Classifier turns a diff into a review verdict.
type Classifier interface {
	Classify(ctx context.Context, diffText string) (models.ClassificationVerdict, error)
}

// New returns an LLM classifier, or a disabled one when cfg lacks a model or API key.
func New(cfg config.ClassifierConfig, client *httpclient.HTTPClient, logger zerolog.Logger) (Classifier, error) {
	if !cfg.IsConfigured() {
		logger.Info().Str("component", "Classifier").Msg("Classifier not configured, change classification disabled")
		return Disabled{}, nil
	}
	return NewLLMClassifier(cfg, client, logger)
}

// Disabled never classifies.
type Disabled struct{}

// Classify always fails with ErrDisabled.
func (Disabled) Classify(context.Context, string) (models.ClassificationVerdict, error) {
	return models.ClassificationVerdict{}, ErrDisabled
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/httpclient"
	"github.com/aleister1102/changewatch/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	jsonResponseType    = "json_object"
	completionsPath     = "chat/completions"
	maxErrorBodySnippet = 512
)

// LLMClassifier calls a chat completion endpoint with the review policy prompt.
type LLMClassifier struct {
	cfg      config.ClassifierConfig
	endpoint string
	client   *httpclient.HTTPClient
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// NewLLMClassifier creates a classifier for a configured endpoint. A nil
// client gets a dedicated one built from cfg.
func NewLLMClassifier(cfg config.ClassifierConfig, client *httpclient.HTTPClient, logger zerolog.Logger) (*LLMClassifier, error) {
	logger = logger.With().Str("component", "LLMClassifier").Str("model", cfg.Model).Logger()

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = config.DefaultClassifierBaseURL
	}
	endpoint, err := completionsEndpoint(baseURL)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client, err = httpclient.NewHTTPClientBuilder(logger).
			WithTimeout(cfg.Timeout()).
			Build()
		if err != nil {
			return nil, err
		}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	logger.Info().Str("endpoint", endpoint).Msg("Change classifier enabled")
	return &LLMClassifier{
		cfg:      cfg,
		endpoint: endpoint,
		client:   client,
		limiter:  limiter,
		logger:   logger,
	}, nil
}

// Classify sends diffText to the model and parses its verdict.
func (c *LLMClassifier) Classify(ctx context.Context, diffText string) (models.ClassificationVerdict, error) {
	var empty models.ClassificationVerdict
	if strings.TrimSpace(diffText) == "" {
		return empty, unavailable("empty diff")
	}

	if timeout := c.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return empty, unavailable("rate limiter: %v", err)
		}
	}

	diffText, truncated := truncateDiff(diffText, c.cfg.MaxDiffChars)
	if truncated {
		c.logger.Warn().Int("max_chars", c.cfg.MaxDiffChars).Msg("Diff truncated before classification")
	}

	content, err := c.complete(ctx, diffText)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Classification request failed")
		return empty, unavailable("%v", err)
	}

	verdict, err := ParseVerdict(content)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Classifier returned an unparseable verdict")
		return empty, unavailable("parse verdict: %v", err)
	}

	c.logger.Debug().Bool("review_needed", verdict.NeedsReview).Str("summary", verdict.Summary).Msg("Change classified")
	return verdict, nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *LLMClassifier) complete(ctx context.Context, diffText string) (string, error) {
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: ReviewPolicyPrompt},
			{Role: "user", Content: diffText},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(&httpclient.HTTPRequest{
		Context: ctx,
		Method:  http.MethodPost,
		URL:     c.endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + strings.TrimSpace(c.cfg.APIKey),
			"Content-Type":  "application/json",
			"Accept":        "application/json",
		},
		Body: encoded,
	})
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: snippet(resp.Body)}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(resp.Body, &completion); err != nil {
		return "", &decodeError{Body: snippet(resp.Body), Err: err}
	}
	if completion.Error != nil {
		return "", &apiError{Message: strings.TrimSpace(completion.Error.Message)}
	}
	for _, choice := range completion.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	if len(completion.Choices) > 0 {
		choice := completion.Choices[0]
		return "", &emptyContentError{FinishReason: choice.FinishReason, Refusal: choice.Message.Refusal}
	}
	return "", &emptyContentError{}
}

func completionsEndpoint(baseURL string) (string, error) {
	trimmed := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(trimmed, "/"+completionsPath) {
		return trimmed, nil
	}
	return url.JoinPath(trimmed, completionsPath)
}

func snippet(body []byte) string {
	if len(body) > maxErrorBodySnippet {
		body = body[:maxErrorBodySnippet]
	}
	return strings.TrimSpace(string(body))
}

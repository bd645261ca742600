package classifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/httpclient"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}, "finish_reason": "stop"},
		},
	})
	return string(body)
}

func newTestClassifier(t *testing.T, serverURL string, mutate func(*config.ClassifierConfig)) *LLMClassifier {
	t.Helper()
	cfg := config.ClassifierConfig{
		Model:          "test-model",
		BaseURL:        serverURL,
		APIKey:         "secret",
		TimeoutSeconds: 5,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).
		WithTimeout(cfg.Timeout()).
		WithRetry(httpclient.RetryHandlerConfig{MaxRetries: 0}).
		Build()
	require.NoError(t, err)

	c, err := NewLLMClassifier(cfg, client, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestLLMClassifier_Classify(t *testing.T) {
	var gotRequest chatCompletionRequest
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotRequest)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody(`{"review_needed": true, "changed_content": "CVE fix", "review_reason": "security"}`))
	}))
	defer server.Close()

	c := newTestClassifier(t, server.URL+"/v1", nil)
	verdict, err := c.Classify(context.Background(), "-openssl 3.0.1\n+openssl 3.0.2")
	require.NoError(t, err)

	assert.Equal(t, models.ClassificationVerdict{NeedsReview: true, Summary: "CVE fix", Reason: "security"}, verdict)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "test-model", gotRequest.Model)
	assert.Equal(t, "json_object", gotRequest.ResponseFormat["type"])
	require.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, ReviewPolicyPrompt, gotRequest.Messages[0].Content)
	assert.Equal(t, "-openssl 3.0.1\n+openssl 3.0.2", gotRequest.Messages[1].Content)
}

func TestLLMClassifier_FailuresAreUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "<html>gateway</html>")
			},
		},
		{
			name: "unparseable verdict",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, completionBody("I think it is fine."))
			},
		},
		{
			name: "missing review_needed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, completionBody(`{"changed_content": "x", "review_reason": "y"}`))
			},
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"choices": []}`)
			},
		},
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"error": {"message": "quota exceeded"}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := newTestClassifier(t, server.URL, nil)
			_, err := c.Classify(context.Background(), "+changed")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestLLMClassifier_EmptyDiffIsUnavailable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := newTestClassifier(t, server.URL, nil)
	_, err := c.Classify(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestLLMClassifier_TruncatesLargeDiffs(t *testing.T) {
	var gotRequest chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotRequest)
		_, _ = io.WriteString(w, completionBody(`{"review_needed": false, "changed_content": "docs", "review_reason": "docs only"}`))
	}))
	defer server.Close()

	c := newTestClassifier(t, server.URL, func(cfg *config.ClassifierConfig) { cfg.MaxDiffChars = 10 })
	verdict, err := c.Classify(context.Background(), strings.Repeat("+line\n", 50))
	require.NoError(t, err)
	assert.False(t, verdict.NeedsReview)

	require.Len(t, gotRequest.Messages, 2)
	assert.True(t, strings.HasPrefix(gotRequest.Messages[1].Content, "+line\n+lin"))
	assert.Contains(t, gotRequest.Messages[1].Content, "[diff truncated]")
}

func TestLLMClassifier_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, completionBody(`{"review_needed": true}`))
	}))
	defer server.Close()

	c := newTestClassifier(t, server.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Classify(ctx, "+x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew_DisabledWithoutCredentials(t *testing.T) {
	c, err := New(config.ClassifierConfig{Model: "m"}, nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "+x")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    models.ClassificationVerdict
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"review_needed": false, "changed_content": " typo ", "review_reason": "docs"}`,
			want:    models.ClassificationVerdict{NeedsReview: false, Summary: "typo", Reason: "docs"},
		},
		{
			name:    "code fence",
			content: "```json\n{\"review_needed\": true, \"changed_content\": \"CVE\", \"review_reason\": \"security\"}\n```",
			want:    models.ClassificationVerdict{NeedsReview: true, Summary: "CVE", Reason: "security"},
		},
		{
			name:    "surrounding prose",
			content: `Here you go: {"review_needed": true, "changed_content": "a", "review_reason": "b"} hope it helps`,
			want:    models.ClassificationVerdict{NeedsReview: true, Summary: "a", Reason: "b"},
		},
		{name: "empty", content: "", wantErr: true},
		{name: "missing flag", content: `{"changed_content": "a"}`, wantErr: true},
		{name: "wrong type", content: `{"review_needed": "yes"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVerdict(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompletionsEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://api.openai.com/v1":                   "https://api.openai.com/v1/chat/completions",
		"https://api.openai.com/v1/":                  "https://api.openai.com/v1/chat/completions",
		"https://proxy.local/api/v3/chat/completions": "https://proxy.local/api/v3/chat/completions",
	}
	for base, want := range tests {
		got, err := completionsEndpoint(base)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

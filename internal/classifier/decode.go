package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aleister1102/changewatch/internal/models"
)

type verdictPayload struct {
	ReviewNeeded   *bool  `json:"review_needed"`
	ChangedContent string `json:"changed_content"`
	ReviewReason   string `json:"review_reason"`
}

// ParseVerdict decodes a model answer. review_needed is mandatory; the
// summary and reason may be empty.
func ParseVerdict(content string) (models.ClassificationVerdict, error) {
	var payload verdictPayload
	if err := DecodeLLMJSON(content, &payload); err != nil {
		return models.ClassificationVerdict{}, err
	}
	if payload.ReviewNeeded == nil {
		return models.ClassificationVerdict{}, fmt.Errorf("missing review_needed (payload snippet: %s)", summarizePayloadSnippet(content))
	}
	return models.ClassificationVerdict{
		NeedsReview: *payload.ReviewNeeded,
		Summary:     strings.TrimSpace(payload.ChangedContent),
		Reason:      strings.TrimSpace(payload.ReviewReason),
	}, nil
}

// DecodeLLMJSON decodes JSON from an LLM response, handling common formatting quirks.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}

	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, summarizePayloadSnippet(sanitized))
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}

// truncateDiff caps the diff at maxChars runes.
func truncateDiff(diff string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		return diff, false
	}
	runes := []rune(diff)
	if len(runes) <= maxChars {
		return diff, false
	}
	return string(runes[:maxChars]) + "\n... [diff truncated]", true
}

package notifier

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/models"
)

// Placeholders recognized in the subject and body templates.
const (
	PlaceholderWebsiteName = "{{website_name}}"
	PlaceholderURL         = "{{url}}"
	PlaceholderChangeTime  = "{{change_time}}"
	PlaceholderChanges     = "{{changes}}"
	PlaceholderAIAnalysis  = "{{ai_analysis}}"
)

// Placeholders recognized in the analysis template.
const (
	PlaceholderReviewNeeded = "{{review_needed}}"
	PlaceholderSummary      = "{{summary}}"
	PlaceholderReason       = "{{reason}}"
	PlaceholderAIResult     = "{{ai_result}}"
)

// TemplateRenderer fills the configured templates with plain string substitution.
type TemplateRenderer struct {
	cfg config.TemplateConfig
	now func() time.Time
}

// NewTemplateRenderer creates a renderer, falling back to the default
// template for every empty field.
func NewTemplateRenderer(cfg config.TemplateConfig) *TemplateRenderer {
	defaults := config.NewDefaultTemplateConfig()
	if cfg.SubjectTemplate == "" {
		cfg.SubjectTemplate = defaults.SubjectTemplate
	}
	if cfg.BodyTemplate == "" {
		cfg.BodyTemplate = defaults.BodyTemplate
	}
	if cfg.AnalysisTemplate == "" {
		cfg.AnalysisTemplate = defaults.AnalysisTemplate
	}
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = defaults.TimeLayout
	}
	return &TemplateRenderer{cfg: cfg, now: time.Now}
}

// Render builds the subject and body for one change. A nil verdict leaves
// {{ai_analysis}} empty.
func (r *TemplateRenderer) Render(task models.MonitorTask, diffText string, verdict *models.ClassificationVerdict) (subject, body string) {
	analysis := ""
	if verdict != nil {
		analysis = r.RenderAnalysis(*verdict)
	}

	replacer := strings.NewReplacer(
		PlaceholderWebsiteName, task.ResourceName(),
		PlaceholderURL, task.URL,
		PlaceholderChangeTime, r.now().Format(r.cfg.TimeLayout),
		PlaceholderChanges, diffText,
		PlaceholderAIAnalysis, analysis,
	)
	return replacer.Replace(r.cfg.SubjectTemplate), replacer.Replace(r.cfg.BodyTemplate)
}

// RenderAnalysis renders the verdict through the analysis template.
func (r *TemplateRenderer) RenderAnalysis(verdict models.ClassificationVerdict) string {
	raw, _ := json.Marshal(verdict)
	return strings.NewReplacer(
		PlaceholderReviewNeeded, strconv.FormatBool(verdict.NeedsReview),
		PlaceholderSummary, verdict.Summary,
		PlaceholderReason, verdict.Reason,
		PlaceholderAIResult, string(raw),
	).Replace(r.cfg.AnalysisTemplate)
}

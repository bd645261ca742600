package notifier

import (
	"context"

	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/httpclient"
	"github.com/aleister1102/changewatch/internal/models"

	"github.com/rs/zerolog"
)

// EmailNotifier renders a change into an email and hands it to a Sender.
// Failures are logged and never retried.
type EmailNotifier struct {
	sender   Sender
	renderer *TemplateRenderer
	logger   zerolog.Logger
}

// NewEmailNotifier builds the sender selected by emailCfg.
func NewEmailNotifier(emailCfg config.EmailConfig, templateCfg config.TemplateConfig, client *httpclient.HTTPClient, logger zerolog.Logger) (*EmailNotifier, error) {
	sender, err := NewSender(emailCfg, client, logger)
	if err != nil {
		return nil, err
	}
	return NewEmailNotifierWithSender(sender, templateCfg, logger), nil
}

// NewEmailNotifierWithSender creates a notifier around an existing sender.
func NewEmailNotifierWithSender(sender Sender, templateCfg config.TemplateConfig, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:   sender,
		renderer: NewTemplateRenderer(templateCfg),
		logger:   logger.With().Str("component", "EmailNotifier").Str("mode", sender.Mode()).Logger(),
	}
}

// Notify implements Notifier.
func (n *EmailNotifier) Notify(ctx context.Context, task models.MonitorTask, diffText string, verdict *models.ClassificationVerdict) bool {
	logger := n.logger.With().Str("task_id", task.ID).Str("url", task.URL).Logger()

	if len(task.Recipients) == 0 && len(task.CCRecipients) == 0 {
		logger.Warn().Msg("Task has no recipients, skipping notification")
		return false
	}

	subject, body := n.renderer.Render(task, diffText, verdict)
	err := n.sender.Send(ctx, Message{
		Subject: subject,
		Body:    body,
		To:      task.Recipients,
		CC:      task.CCRecipients,
	})
	if err != nil {
		if isDisabled(err) {
			logger.Info().Msg("Email delivery disabled, notification skipped")
		} else {
			logger.Error().Err(err).Msg("Failed to send change notification")
		}
		return false
	}

	logger.Info().Str("subject", subject).Msg("Change notification sent")
	return true
}

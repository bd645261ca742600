package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aleister1102/changewatch/internal/common"
	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/httpclient"

	"github.com/rs/zerolog"
)

// ErrEmailDisabled is returned by the sender used when email is not configured.
var ErrEmailDisabled = fmt.Errorf("email delivery: %w", common.ErrFeatureDisabled)

// Message is one outgoing email.
type Message struct {
	Subject string
	Body    string
	To      []string
	CC      []string
}

// Sender delivers a message through one transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Mode() string
}

// SendError reports a failed delivery.
type SendError struct {
	Mode string
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send via %s failed: %v", e.Mode, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// NewSender picks the transport selected by cfg.Mode. Missing credentials
// yield a sender that refuses every message with ErrEmailDisabled.
func NewSender(cfg config.EmailConfig, client *httpclient.HTTPClient, logger zerolog.Logger) (Sender, error) {
	if !cfg.IsConfigured() {
		logger.Info().Str("mode", cfg.Mode).Msg("Email not configured, notifications disabled")
		return noopSender{}, nil
	}

	switch strings.ToLower(cfg.Mode) {
	case config.EmailModeSMTP:
		return NewSMTPSender(cfg, logger), nil
	case config.EmailModeSendCloud:
		return NewSendCloudSender(cfg, client, logger)
	default:
		return nil, common.NewValidationError("mode", cfg.Mode, "unsupported email mode")
	}
}

type noopSender struct{}

func (noopSender) Send(context.Context, Message) error {
	return ErrEmailDisabled
}

func (noopSender) Mode() string {
	return "disabled"
}

func isDisabled(err error) bool {
	return errors.Is(err, common.ErrFeatureDisabled)
}

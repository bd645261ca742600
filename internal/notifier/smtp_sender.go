package notifier

import (
	"context"
	"fmt"

	"github.com/aleister1102/changewatch/internal/config"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

const smtpsPort = 465

// SMTPSender delivers plain text mail through an authenticated SMTP relay.
type SMTPSender struct {
	cfg    config.EmailConfig
	logger zerolog.Logger
}

// NewSMTPSender creates a new SMTPSender.
func NewSMTPSender(cfg config.EmailConfig, logger zerolog.Logger) *SMTPSender {
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = config.DefaultSMTPPort
	}
	return &SMTPSender{
		cfg:    cfg,
		logger: logger.With().Str("component", "SMTPSender").Str("host", cfg.SMTPHost).Logger(),
	}
}

// Mode implements Sender.
func (s *SMTPSender) Mode() string {
	return config.EmailModeSMTP
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return &SendError{Mode: s.Mode(), Err: err}
	}

	client, err := mail.NewClient(s.cfg.SMTPHost, s.clientOptions()...)
	if err != nil {
		return &SendError{Mode: s.Mode(), Err: fmt.Errorf("create smtp client: %w", err)}
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return &SendError{Mode: s.Mode(), Err: err}
	}

	s.logger.Info().Strs("to", msg.To).Strs("cc", msg.CC).Msg("Email sent via SMTP")
	return nil
}

func (s *SMTPSender) buildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.SMTPAccount); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if len(msg.To) > 0 {
		if err := m.To(msg.To...); err != nil {
			return nil, fmt.Errorf("invalid recipient: %w", err)
		}
	}
	if len(msg.CC) > 0 {
		if err := m.Cc(msg.CC...); err != nil {
			return nil, fmt.Errorf("invalid cc recipient: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.SMTPAccount),
		mail.WithPassword(s.cfg.SMTPPassword),
	}
	if s.cfg.SMTPPort == smtpsPort {
		opts = append(opts, mail.WithSSLPort(false))
	}
	opts = append(opts, mail.WithPort(s.cfg.SMTPPort))
	if timeout := s.cfg.Timeout(); timeout > 0 {
		opts = append(opts, mail.WithTimeout(timeout))
	}
	return opts
}

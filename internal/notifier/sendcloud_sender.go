package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aleister1102/changewatch/internal/common"
	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/httpclient"

	"github.com/rs/zerolog"
)

// SendCloudSender posts mail to the SendCloud transactional API.
type SendCloudSender struct {
	cfg    config.EmailConfig
	client *httpclient.HTTPClient
	logger zerolog.Logger
}

type sendCloudResponse struct {
	Result     bool   `json:"result"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// NewSendCloudSender creates a new SendCloudSender. A nil client gets one
// built with the email timeout. Sends are never retried: a failed delivery
// is reported and the next tick tries again.
func NewSendCloudSender(cfg config.EmailConfig, client *httpclient.HTTPClient, logger zerolog.Logger) (*SendCloudSender, error) {
	logger = logger.With().Str("component", "SendCloudSender").Logger()
	if cfg.APIURL == "" {
		cfg.APIURL = config.DefaultSendCloudEndpoint
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = config.DefaultSendCloudFrom
	}
	if cfg.FromName == "" {
		cfg.FromName = config.DefaultSendCloudFromName
	}
	if client == nil {
		var err error
		client, err = httpclient.NewHTTPClientBuilder(logger).
			WithTimeout(cfg.Timeout()).
			WithRetry(httpclient.RetryHandlerConfig{}).
			Build()
		if err != nil {
			return nil, err
		}
	}
	return &SendCloudSender{cfg: cfg, client: client.WithoutRetry(), logger: logger}, nil
}

// Mode implements Sender.
func (s *SendCloudSender) Mode() string {
	return config.EmailModeSendCloud
}

// Send implements Sender. The API reports success with "result": true;
// any other answer is a failure.
func (s *SendCloudSender) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("apiUser", s.cfg.APIUser)
	form.Set("apiKey", s.cfg.APIKey)
	form.Set("from", s.cfg.FromEmail)
	form.Set("fromName", s.cfg.FromName)
	form.Set("to", strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		form.Set("cc", strings.Join(msg.CC, ", "))
	}
	form.Set("subject", msg.Subject)
	form.Set("html", strings.ReplaceAll(msg.Body, "\n", "<br>"))

	resp, err := s.client.Do(&httpclient.HTTPRequest{
		Context: ctx,
		Method:  http.MethodPost,
		URL:     s.cfg.APIURL,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return &SendError{Mode: s.Mode(), Err: err}
	}
	if !resp.IsSuccess() {
		return &SendError{Mode: s.Mode(), Err: common.NewHTTPErrorWithURL(resp.StatusCode, http.StatusText(resp.StatusCode), s.cfg.APIURL)}
	}

	var result sendCloudResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return &SendError{Mode: s.Mode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if !result.Result {
		message := result.Message
		if message == "" {
			message = "unknown error"
		}
		return &SendError{Mode: s.Mode(), Err: fmt.Errorf("api rejected message: %s", message)}
	}

	s.logger.Info().Strs("to", msg.To).Strs("cc", msg.CC).Msg("Email sent via SendCloud")
	return nil
}

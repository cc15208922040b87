package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"tinyhome/internal/app/policies"
)

const (
	DefaultSendGridHost = "https://api.sendgrid.com"
	sendEndpoint        = "/v3/mail/send"
)

// SendGrid delivers plain-text mail through the SendGrid v3 API.
type SendGrid struct {
	APIKey   string
	Host     string
	From     string
	FromName string
	Logger   *slog.Logger
}

func NewSendGrid(apiKey, from, fromName string, logger *slog.Logger) *SendGrid {
	return &SendGrid{APIKey: apiKey, Host: DefaultSendGridHost, From: from, FromName: fromName, Logger: logger}
}

func (s *SendGrid) Send(ctx context.Context, msg policies.Message) error {
	if s.APIKey == "" || s.From == "" {
		return policies.ErrNotifierDisabled
	}
	if msg.To == "" {
		return &policies.NotifyError{To: msg.To, Err: errors.New("empty recipient")}
	}
	m := mail.NewSingleEmail(mail.NewEmail(s.FromName, s.From), msg.Subject, mail.NewEmail("", msg.To), msg.Body, "")

	host := s.Host
	if host == "" {
		host = DefaultSendGridHost
	}
	request := sendgrid.GetRequest(s.APIKey, sendEndpoint, host)
	request.Method = http.MethodPost
	request.Body = mail.GetRequestBody(m)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return &policies.NotifyError{To: msg.To, Err: err}
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return &policies.NotifyError{To: msg.To, Err: fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, truncate(resp.Body, 512))}
	}
	if s.Logger != nil {
		s.Logger.Info("email sent", "to", msg.To, "subject", msg.Subject, "status", resp.StatusCode)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ policies.Notifier = (*SendGrid)(nil)

package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-resty/resty/v2"
)

const resendEndpoint = "/emails"

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ResendSender posts messages to the Resend HTTP API.
type ResendSender struct {
	client *resty.Client
	from   string
}

// NewResendSender builds a Resend transport rooted at baseURL.
func NewResendSender(baseURL, apiKey string, from mail.Address, timeout time.Duration) *ResendSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ResendSender{client: client, from: from.String()}
}

// Send delivers msg with a single attempt.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	var apiErr resendError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(resendPayload{
			From:    s.from,
			To:      []string{msg.To},
			Subject: msg.Subject,
			HTML:    msg.HTML,
			Text:    msg.Text,
		}).
		SetError(&apiErr).
		Post(resendEndpoint)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("resend rejected message: status %d: %s", resp.StatusCode(), apiErr.Message)
	}
	return nil
}

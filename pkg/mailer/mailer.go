// Package mailer delivers transactional email through a configurable provider.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/pkg/config"
)

const (
	ProviderResend   = "resend"
	ProviderSendgrid = "sendgrid"
	ProviderLog      = "log"
)

// ErrNoRecipient is returned when a message has no destination address.
var ErrNoRecipient = errors.New("mailer: message has no recipient")

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the transport named by cfg.Provider.
func New(cfg config.MailConfig, logger *zap.Logger) (Sender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	from := mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}

	switch cfg.Provider {
	case ProviderResend:
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("mailer: RESEND_API_KEY is required for provider %q", cfg.Provider)
		}
		return NewResendSender(cfg.ResendBaseURL, cfg.ResendAPIKey, from, cfg.Timeout), nil
	case ProviderSendgrid:
		if cfg.SendgridAPIKey == "" {
			return nil, fmt.Errorf("mailer: SENDGRID_API_KEY is required for provider %q", cfg.Provider)
		}
		return NewSendgridSender(cfg.SendgridAPIKey, from), nil
	case ProviderLog, "":
		return NewLogSender(from, logger), nil
	default:
		return nil, fmt.Errorf("mailer: unknown provider %q", cfg.Provider)
	}
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ud28188-create/codonyx.org/pkg/metrics"
)

// ErrDisabled signals that outbound email is switched off by configuration.
var ErrDisabled = errors.New("mail: delivery disabled")

// Message is an outbound email. HTML is optional; Text is always sent.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Settings selects and configures a delivery provider.
type Settings struct {
	Provider string // smtp | ses | disabled
	From     string
	FromName string
	SMTP     SMTPSettings
	SES      SESSettings
}

// New builds the mailer for the configured provider, instrumented with delivery metrics.
func New(ctx context.Context, cfg Settings) (Mailer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	var (
		inner Mailer
		err   error
	)
	switch provider {
	case "", "disabled", "none":
		provider = "disabled"
		inner = disabledMailer{}
	case "smtp":
		smtpCfg := cfg.SMTP
		smtpCfg.Enabled = true
		if smtpCfg.From == "" {
			smtpCfg.From = formatAddress(cfg.FromName, cfg.From)
		}
		inner, err = NewSMTPMailer(smtpCfg)
	case "ses":
		sesCfg := cfg.SES
		if sesCfg.From == "" {
			sesCfg.From = formatAddress(cfg.FromName, cfg.From)
		}
		inner, err = NewSESMailer(ctx, sesCfg)
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return Instrument(inner, provider), nil
}

// Instrument wraps m so every delivery is counted per provider and result.
func Instrument(m Mailer, provider string) Mailer {
	return &instrumentedMailer{inner: m, provider: provider}
}

type instrumentedMailer struct {
	inner    Mailer
	provider string
}

func (m *instrumentedMailer) Send(ctx context.Context, msg Message) error {
	err := m.inner.Send(ctx, msg)
	switch {
	case err == nil:
		metrics.EmailDeliveries.WithLabelValues(m.provider, "sent").Inc()
	case errors.Is(err, ErrDisabled):
		metrics.EmailDeliveries.WithLabelValues(m.provider, "disabled").Inc()
	default:
		metrics.EmailDeliveries.WithLabelValues(m.provider, "failed").Inc()
	}
	return err
}

type disabledMailer struct{}

func (disabledMailer) Send(context.Context, Message) error { return ErrDisabled }

func validateMessage(msg Message, defaultFrom string) (string, []string, error) {
	recipients := uniqueAddresses(msg.To)
	if len(recipients) == 0 {
		return "", nil, errors.New("mail: at least one recipient is required")
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = defaultFrom
	}
	if from == "" {
		return "", nil, errors.New("mail: sender address is required")
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return "", nil, fmt.Errorf("mail: invalid from address: %w", err)
	}
	for _, rcpt := range recipients {
		if _, err := mail.ParseAddress(rcpt); err != nil {
			return "", nil, fmt.Errorf("mail: invalid recipient address %q: %w", rcpt, err)
		}
	}
	return from, recipients, nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, addr)
	}
	return result
}

func formatAddress(name, address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

// envelopeAddress strips any display name for use in SMTP MAIL FROM.
func envelopeAddress(value string) string {
	if parsed, err := mail.ParseAddress(value); err == nil {
		return parsed.Address
	}
	return value
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

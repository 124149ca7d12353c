package notify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
)

// Mailer sends notification mails over SMTP. A mailer built from a
// disabled configuration accepts sends and drops them, so callers never
// branch on whether notification is configured.
type Mailer struct {
	cfg    config.NotifyConfig
	client *mail.Client
	logger *slog.Logger
}

// NewMailer creates a mailer from the notification configuration.
func NewMailer(cfg config.NotifyConfig, logger *slog.Logger) (*Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{
		cfg:    cfg,
		logger: logger.With("component", "notify"),
	}
	if !cfg.Enabled {
		return m, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(30 * time.Second),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	m.client = client
	return m, nil
}

// Enabled reports whether mails actually leave this process.
func (m *Mailer) Enabled() bool {
	return m.client != nil
}

// Send delivers a plain-text mail with optional file attachments.
// Attachments that do not exist are skipped; the run log may be gone if
// the sweeper got there first.
func (m *Mailer) Send(ctx context.Context, recipients []string, subject, body string, attachments ...string) error {
	if m.client == nil {
		m.logger.Debug("notification disabled, dropping mail",
			"subject", subject,
		)
		return nil
	}
	if len(recipients) == 0 {
		m.logger.Debug("no recipients, dropping mail",
			"subject", subject,
		)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("recipients %v: %w", recipients, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	for _, path := range attachments {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				m.logger.Warn("cannot read attachment",
					"path", path,
					"error", err,
				)
			}
			continue
		}
		msg.AttachFile(path)
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %v: %w", recipients, err)
	}

	m.logger.Info("notification sent",
		"recipients", len(recipients),
		"subject", subject,
	)
	return nil
}

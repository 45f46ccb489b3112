package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
)

// Notifier delivers a message to an email address. Implementations must
// return domain.ErrEmailNonexistent when the server reports the recipient
// does not exist, as distinct from a generic transport failure.
type Notifier interface {
	Send(ctx context.Context, subject, body, to string) error
}

// SMTPNotifier sends mail over plain SMTP.
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPNotifier builds the notifier.
func NewSMTPNotifier(cfg config.SMTPConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

// Send delivers one plain-text message.
func (n *SMTPNotifier) Send(_ context.Context, subject, body, to string) error {
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.cfg.From, to, subject, body)

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{to}, []byte(msg)); err != nil {
		if recipientRejected(err) {
			n.logger.Debug("smtp recipient rejected", zap.String("to", to))
			return domain.ErrEmailNonexistent
		}
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// recipientRejected reports whether the SMTP server refused the recipient
// address itself (550 mailbox unavailable, 551 user not local, 553 mailbox
// name not allowed).
func recipientRejected(err error) bool {
	var protoErr *textproto.Error
	if !errors.As(err, &protoErr) {
		return false
	}
	switch protoErr.Code {
	case 550, 551, 553:
		return true
	}
	return false
}

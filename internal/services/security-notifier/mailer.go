package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	config "github.com/NordCoder/Postboard/internal/config/security-notifier"
	"github.com/go-mail/mail/v2"
	"go.uber.org/zap"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Mailer struct {
	dialer     *mail.Dialer
	addr       string
	from       string
	subjPrefix string

	log *zap.Logger
}

var _ EmailSender = (*Mailer)(nil)

// NewMailer uses implicit TLS when cfg.UseTLS is set and opportunistic
// STARTTLS otherwise. An unparsable port falls back to 25.
func NewMailer(cfg config.SMTP, l *zap.Logger) *Mailer {
	if l == nil {
		l = zap.NewNop()
	}
	h, p := splitAddr(cfg.Addr)

	d := mail.NewDialer(h, p, cfg.User, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: h}
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	if cfg.UseTLS {
		d.SSL = true
		d.StartTLSPolicy = mail.NoStartTLS
	} else {
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}

	return &Mailer{
		dialer:     d,
		addr:       cfg.Addr,
		from:       cfg.From,
		subjPrefix: cfg.SubjPrefix,
		log:        l.With(zap.String("component", "security-notifier.mailer")),
	}
}

func (m *Mailer) message(to, subject, body string) (string, *mail.Message) {
	subj := strings.TrimSpace(m.subjPrefix + " " + subject)
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subj)
	msg.SetBody("text/plain", body)
	return subj, msg
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("send email: header injection in recipient or subject")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	subj, msg := m.message(to, subject, body)

	start := time.Now()
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.Bool("tls", m.dialer.SSL),
		zap.String("subject", subj),
	)

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Error("smtp send failed", zap.Error(err))
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func splitAddr(addr string) (string, int) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 25
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return h, 25
	}
	return h, port
}

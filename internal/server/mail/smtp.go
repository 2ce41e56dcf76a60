package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// dialContext is a seam for testing the transport.
var dialContext = (&net.Dialer{}).DialContext

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	// Timeout bounds a whole delivery, dial included. Zero leaves only the
	// caller's deadline.
	Timeout time.Duration
}

type SMTPSender struct {
	cfg    SMTPConfig
	log    logging.Logger
	tracer trace.Tracer
}

func NewSMTPSender(cfg SMTPConfig, log logging.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		log:    log.With("module", "mail"),
		tracer: otel.Tracer("aquatrack/server/mail"),
	}
}

func (s *SMTPSender) build(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	ctx, span := s.tracer.Start(ctx, "smtp.Send")
	defer span.End()

	span.SetAttributes(
		attribute.String("mail.to", msg.To),
		attribute.String("mail.subject", msg.Subject),
	)

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	if err := s.deliver(ctx, auth, msg.To, s.build(msg)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		s.log.Error(ctx, "error sending email", "to", msg.To, "subject", msg.Subject, "error", err)
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.log.Info(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// deliver runs one SMTP session. Every read and write on the connection is
// bounded by the context deadline and aborted when the context is done.
func (s *SMTPSender) deliver(ctx context.Context, auth smtp.Auth, to string, body []byte) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	conn, err := dialContext(ctx, "tcp", net.JoinHostPort(s.cfg.Host, s.cfg.Port))
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server doesn't support AUTH")
		}
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

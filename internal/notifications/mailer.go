package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"seatline/internal/shared/apperr"
	"seatline/internal/shared/config"
	"seatline/pkg/logger"
)

// Mail is one outgoing message with an HTML body and a plain-text fallback
type Mail struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	HTML      string
	Text      string
}

// Mailer delivers mail to an address
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// DeliveryError wraps a transport failure with the step that failed
type DeliveryError struct {
	Diagnostic string
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mail delivery failed: %s: %v", e.Diagnostic, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Kind() apperr.Kind { return apperr.Delivery }

const defaultSMTPTimeout = 30 * time.Second

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
	Timeout   time.Duration
}

func SMTPConfigFrom(cfg config.EmailConfig) *SMTPConfig {
	return &SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		UseTLS:    cfg.UseTLS,
		Timeout:   defaultSMTPTimeout,
	}
}

func (c *SMTPConfig) validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("SMTP config is nil")
	case c.Host == "":
		return fmt.Errorf("SMTP host is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	case c.FromEmail == "":
		return fmt.Errorf("from email is required")
	}
	return nil
}

// SMTPMailer sends through an SMTP relay, upgrading with STARTTLS when
// configured.
type SMTPMailer struct {
	config *SMTPConfig
	logger *logger.Logger
	now    func() time.Time
}

func NewSMTPMailer(config *SMTPConfig) (*SMTPMailer, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	return &SMTPMailer{
		config: config,
		logger: logger.GetDefault(),
		now:    time.Now,
	}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, mail Mail) error {
	if mail.FromEmail == "" {
		mail.FromEmail = s.config.FromEmail
	}
	if mail.FromName == "" {
		mail.FromName = s.config.FromName
	}
	message := buildMessage(mail, s.now())

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if err := s.deliver(ctx, addr, auth, mail, message); err != nil {
		return err
	}

	s.logger.InfoWithContext(ctx, "Mail sent", map[string]interface{}{
		"to":      mail.To,
		"subject": mail.Subject,
	})
	return nil
}

// deliver runs the SMTP exchange under the configured timeout. Cancelling ctx
// aborts it.
func (s *SMTPMailer) deliver(ctx context.Context, addr string, auth smtp.Auth, mail Mail, message []byte) error {
	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}

	conn, err := (&net.Dialer{Timeout: timeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return &DeliveryError{Diagnostic: "connect", Err: err}
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return &DeliveryError{Diagnostic: "connect", Err: err}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return &DeliveryError{Diagnostic: "greeting", Err: err}
	}
	defer client.Close()

	if s.config.UseTLS {
		tlsConfig := &tls.Config{ServerName: s.config.Host}
		if err := client.StartTLS(tlsConfig); err != nil {
			return &DeliveryError{Diagnostic: "starttls", Err: err}
		}
	}
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return &DeliveryError{Diagnostic: "authenticate", Err: err}
		}
	}
	if err := client.Mail(mail.FromEmail); err != nil {
		return &DeliveryError{Diagnostic: "sender rejected", Err: err}
	}
	if err := client.Rcpt(mail.To); err != nil {
		return &DeliveryError{Diagnostic: "recipient rejected", Err: err}
	}

	w, err := client.Data()
	if err != nil {
		return &DeliveryError{Diagnostic: "data", Err: err}
	}
	if _, err := w.Write(message); err != nil {
		return &DeliveryError{Diagnostic: "write", Err: err}
	}
	if err := w.Close(); err != nil {
		return &DeliveryError{Diagnostic: "data", Err: err}
	}

	// the relay has accepted the message at this point
	if err := client.Quit(); err != nil {
		s.logger.WithError(err).WarnContext(ctx, "SMTP QUIT failed after delivery", "to", mail.To)
	}
	return nil
}

// buildMessage creates the multipart/alternative message with its headers
func buildMessage(mail Mail, now time.Time) []byte {
	boundary := "boundary_" + strconv.FormatInt(now.UnixNano(), 10)
	from := mail.FromEmail
	if mail.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mail.FromName, mail.FromEmail)
	}

	var b strings.Builder
	headers := [][2]string{
		{"From", from},
		{"To", mail.To},
		{"Subject", mail.Subject},
		{"MIME-Version", "1.0"},
		{"Date", now.Format(time.RFC1123Z)},
		{"Content-Type", fmt.Sprintf("multipart/alternative; boundary=%s", boundary)},
	}
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")

	text := mail.Text
	if text == "" {
		text = "Please view this email in HTML format."
	}
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, text)
	if mail.HTML != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, mail.HTML)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

// LogMailer only logs outgoing mail. It is used when no SMTP host is set.
type LogMailer struct {
	logger *logger.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{logger: logger.GetDefault()}
}

func (m *LogMailer) Send(ctx context.Context, mail Mail) error {
	m.logger.InfoWithContext(ctx, "Mail not sent, no SMTP host configured", map[string]interface{}{
		"to":      mail.To,
		"subject": mail.Subject,
	})
	return nil
}

// NewMailer picks SMTP when a host is configured and the log mailer otherwise
func NewMailer(cfg config.EmailConfig) (Mailer, error) {
	if cfg.SMTPHost == "" {
		return NewLogMailer(), nil
	}
	return NewSMTPMailer(SMTPConfigFrom(cfg))
}

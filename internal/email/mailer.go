// Package email sends the templated missed-call notices raised by the
// hangup workflow. Templates live in the database, keyed by domain and
// language with a global fallback.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/pbxgate/pbxgate/internal/database"
	"github.com/pbxgate/pbxgate/internal/database/models"
	"github.com/pbxgate/pbxgate/internal/httapi"
)

// SMTPConfig holds the outbound mail server configuration.
type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
	TLS      string // "none", "starttls", "tls"
}

// Valid returns true if the minimum required fields are set.
func (c SMTPConfig) Valid() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

// smtpClient abstracts the methods used from *smtp.Client for testing.
type smtpClient interface {
	Hello(localName string) error
	Extension(ext string) (bool, string)
	StartTLS(config *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Mailer renders missed-call templates and delivers them over SMTP.
type Mailer struct {
	cfg       SMTPConfig
	templates database.EmailTemplateRepository
	logger    *slog.Logger
	// dialFunc allows injecting a custom dialer for testing.
	dialFunc func(addr string, tlsConfig *tls.Config, tlsMode string) (smtpClient, error)
}

// NewMailer creates a Mailer.
func NewMailer(cfg SMTPConfig, templates database.EmailTemplateRepository, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:       cfg,
		templates: templates,
		logger:    logger.With("component", "email"),
		dialFunc:  defaultDial,
	}
}

var _ httapi.MissedCallMailer = (*Mailer)(nil)

// SendMissedCall looks up the missed-call template for the call's domain
// and language, fills the caller placeholders and sends the notice.
func (m *Mailer) SendMissedCall(ctx context.Context, mc httapi.MissedCall) error {
	if !m.cfg.Valid() {
		return fmt.Errorf("smtp not configured")
	}
	if mc.To == "" {
		return fmt.Errorf("no recipient email address")
	}

	tpl, err := m.templates.Get(ctx, mc.DomainID, mc.Language, "missed", "default")
	if err != nil {
		return fmt.Errorf("looking up missed-call template: %w", err)
	}
	if tpl == nil {
		return fmt.Errorf("missed-call template not found for language %s", mc.Language)
	}

	subject, body := renderTemplate(tpl, mc)
	msg := buildMessage(m.cfg, mc.To, subject, body, tpl.Type)

	if err := m.send(mc.To, msg); err != nil {
		return err
	}
	m.logger.Info("missed call notice sent", "to", mc.To, "caller", mc.CallerIDNumber)
	return nil
}

// renderTemplate substitutes the caller placeholders in subject and body.
func renderTemplate(tpl *models.EmailTemplate, mc httapi.MissedCall) (subject, body string) {
	r := strings.NewReplacer(
		"{caller_id_name}", mc.CallerIDName,
		"{caller_id_number}", mc.CallerIDNumber,
		"{sip_to_user}", mc.SIPToUser,
		"{dialed_user}", mc.DialedUser,
	)
	return r.Replace(tpl.Subject), r.Replace(tpl.Body)
}

func (m *Mailer) send(to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	tlsConfig := &tls.Config{ServerName: m.cfg.Host}

	client, err := m.dialFunc(addr, tlsConfig, m.cfg.TLS)
	if err != nil {
		return fmt.Errorf("connecting to smtp server: %w", err)
	}
	defer client.Close()

	if err := client.Hello("localhost"); err != nil {
		return fmt.Errorf("smtp hello: %w", err)
	}
	if strings.EqualFold(m.cfg.TLS, "starttls") {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	if err := client.Quit(); err != nil {
		m.logger.Warn("smtp quit error (non-fatal)", "error", err)
	}
	return nil
}

// defaultDial connects to the SMTP server using either plain TCP or implicit TLS.
func defaultDial(addr string, tlsConfig *tls.Config, tlsMode string) (smtpClient, error) {
	if strings.EqualFold(tlsMode, "tls") {
		conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", addr, tlsConfig)
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, tlsConfig.ServerName)
	}
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	return smtp.NewClient(conn, host)
}

// buildMessage constructs the RFC 5322 message bytes.
func buildMessage(cfg SMTPConfig, to, subject, body, contentType string) []byte {
	var buf bytes.Buffer
	ct := "text/plain"
	if contentType == "html" {
		ct = "text/html"
	}
	fmt.Fprintf(&buf, "From: %s\r\n", cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: %s; charset=utf-8\r\n", ct)
	fmt.Fprintf(&buf, "\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

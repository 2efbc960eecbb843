package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"

	"github.com/pbxgate/pbxgate/internal/database/models"
	"github.com/pbxgate/pbxgate/internal/httapi"
)

type fakeTemplates struct {
	tpl *models.EmailTemplate
	err error
}

func (f *fakeTemplates) Get(ctx context.Context, domainID, language, category, subcategory string) (*models.EmailTemplate, error) {
	return f.tpl, f.err
}

// fakeSMTP records the SMTP dialogue instead of talking to a server.
type fakeSMTP struct {
	hello    string
	starttls bool
	authed   bool
	from     string
	rcpt     []string
	data     bytes.Buffer
	quit     bool

	startTLSOffered bool
}

func (f *fakeSMTP) Hello(localName string) error { f.hello = localName; return nil }

func (f *fakeSMTP) Extension(ext string) (bool, string) {
	if ext == "STARTTLS" {
		return f.startTLSOffered, ""
	}
	return false, ""
}

func (f *fakeSMTP) StartTLS(config *tls.Config) error { f.starttls = true; return nil }
func (f *fakeSMTP) Auth(a smtp.Auth) error            { f.authed = true; return nil }
func (f *fakeSMTP) Mail(from string) error            { f.from = from; return nil }
func (f *fakeSMTP) Rcpt(to string) error              { f.rcpt = append(f.rcpt, to); return nil }

func (f *fakeSMTP) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.data}, nil
}

func (f *fakeSMTP) Quit() error  { f.quit = true; return nil }
func (f *fakeSMTP) Close() error { return nil }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func testMailer(templates *fakeTemplates, client *fakeSMTP) *Mailer {
	m := NewMailer(SMTPConfig{
		Host:     "mail.example.com",
		Port:     "587",
		From:     "pbx@example.com",
		Username: "pbx",
		Password: "secret",
		TLS:      "starttls",
	}, templates, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.dialFunc = func(addr string, tlsConfig *tls.Config, tlsMode string) (smtpClient, error) {
		return client, nil
	}
	return m
}

func missedCall() httapi.MissedCall {
	return httapi.MissedCall{
		DomainID:       "dom1",
		Language:       "en-us",
		To:             "ops@example.com",
		CallerIDName:   "Bob",
		CallerIDNumber: "5551234",
		SIPToUser:      "201",
		DialedUser:     "201",
	}
}

func TestSendMissedCall(t *testing.T) {
	templates := &fakeTemplates{tpl: &models.EmailTemplate{
		Language: "en-us", Category: "missed", Subcategory: "default",
		Subject: "Missed call from {caller_id_name}",
		Body:    "{caller_id_number} tried to reach {dialed_user}.",
		Type:    "text",
	}}
	client := &fakeSMTP{startTLSOffered: true}
	m := testMailer(templates, client)

	if err := m.SendMissedCall(context.Background(), missedCall()); err != nil {
		t.Fatal(err)
	}

	if !client.starttls {
		t.Error("STARTTLS not negotiated")
	}
	if !client.authed {
		t.Error("AUTH not sent")
	}
	if client.from != "pbx@example.com" {
		t.Errorf("MAIL FROM = %q", client.from)
	}
	if len(client.rcpt) != 1 || client.rcpt[0] != "ops@example.com" {
		t.Errorf("RCPT TO = %v", client.rcpt)
	}
	if !client.quit {
		t.Error("QUIT not sent")
	}

	msg := client.data.String()
	for _, want := range []string{
		"Subject: Missed call from Bob\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
		"5551234 tried to reach 201.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in message:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "{caller_id_") {
		t.Errorf("unreplaced placeholder in message:\n%s", msg)
	}
}

func TestSendMissedCallHTMLContentType(t *testing.T) {
	templates := &fakeTemplates{tpl: &models.EmailTemplate{
		Subject: "Missed call",
		Body:    "<p>{caller_id_number}</p>",
		Type:    "html",
	}}
	client := &fakeSMTP{}
	m := testMailer(templates, client)

	if err := m.SendMissedCall(context.Background(), missedCall()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(client.data.String(), "Content-Type: text/html; charset=utf-8\r\n") {
		t.Errorf("wrong content type:\n%s", client.data.String())
	}
}

func TestSendMissedCallSkipsStartTLSWhenNotOffered(t *testing.T) {
	templates := &fakeTemplates{tpl: &models.EmailTemplate{Subject: "s", Body: "b", Type: "text"}}
	client := &fakeSMTP{startTLSOffered: false}
	m := testMailer(templates, client)

	if err := m.SendMissedCall(context.Background(), missedCall()); err != nil {
		t.Fatal(err)
	}
	if client.starttls {
		t.Error("STARTTLS must not run when the server does not offer it")
	}
}

func TestSendMissedCallTemplateMissing(t *testing.T) {
	m := testMailer(&fakeTemplates{}, &fakeSMTP{})

	err := m.SendMissedCall(context.Background(), missedCall())
	if err == nil || !strings.Contains(err.Error(), "template not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestSendMissedCallNotConfigured(t *testing.T) {
	m := NewMailer(SMTPConfig{}, &fakeTemplates{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := m.SendMissedCall(context.Background(), missedCall()); err == nil {
		t.Fatal("expected an error with empty smtp config")
	}
}

func TestSendMissedCallNoRecipient(t *testing.T) {
	m := testMailer(&fakeTemplates{}, &fakeSMTP{})

	mc := missedCall()
	mc.To = ""
	if err := m.SendMissedCall(context.Background(), mc); err == nil {
		t.Fatal("expected an error without a recipient")
	}
}

package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

// defaultFromName signs practice mail when no sender name is configured.
const defaultFromName = "Laila Gmaihi Therapy"

// EmailSender delivers one practice email: a booking notice to the
// practitioner, a booking receipt to the client or an eBook link.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one rendered email. ReplyTo routes client answers to the
// practitioner and practitioner answers to the client. HTML is optional;
// providers that need one get the escaped text body instead.
type EmailMessage struct {
	To      string
	ToName  string
	ReplyTo string
	Subject string
	Body    string
	HTML    string
}

// recipientDomain is what gets logged about an address. Client addresses are
// health data and stay out of logs.
func recipientDomain(addr string) string {
	if at := strings.LastIndexByte(addr, '@'); at >= 0 {
		return addr[at+1:]
	}
	return ""
}

// textAsHTML renders a plain body for HTML-only clients. Client-typed
// descriptions pass through here, so everything is escaped.
func textAsHTML(body string) string {
	escaped := html.EscapeString(body)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>\n") + "</p>"
}

// SendGridConfig configures the SendGrid sender. APIKey and FromEmail come
// from SENDGRID_API_KEY and SENDGRID_FROM_EMAIL.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender sends practice mail through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *logging.Logger
}

// NewSendGridSender returns nil without an API key so callers can fall back
// to another provider.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger.Component("sendgrid"),
	}
}

func (s *SendGridSender) message(msg EmailMessage) *mail.SGMailV3 {
	body := msg.HTML
	if body == "" {
		body = textAsHTML(msg.Body)
	}
	m := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Body, body)
	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	return m
}

// Send posts msg to SendGrid. Any status of 400 or above is an error so the
// booking is reported as not delivered.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	resp, err := s.client.SendWithContext(ctx, s.message(msg))
	if err != nil {
		s.logger.Error("sendgrid request failed", "error", err, "to_domain", recipientDomain(msg.To))
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected email", "status", resp.StatusCode, "body", resp.Body, "to_domain", recipientDomain(msg.To))
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}
	s.logger.Debug("email accepted", "subject", msg.Subject, "status", resp.StatusCode)
	return nil
}

// StubEmailSender only logs. It is the EMAIL_PROVIDER=stub default for local
// runs, where no booking should ever reach a real inbox.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger.Component("email_stub")}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email not sent", "subject", msg.Subject, "to_domain", recipientDomain(msg.To))
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)

package notify

import (
	"context"
	"fmt"
	netmail "net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures the SES sender. FromEmail must be a verified
// identity in the practice's AWS account.
type SESConfig struct {
	FromEmail string
	FromName  string
}

// SESSender sends practice mail through SES v2 using the shared AWS config.
type SESSender struct {
	client sesAPI
	from   string
	logger *logging.Logger
}

// NewSESSender returns nil when no SES client was built.
func NewSESSender(client *sesv2.Client, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	return newSESSender(client, cfg, logger)
}

func newSESSender(client sesAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	// Address.String quotes the name and MIME-encodes non-ASCII letters.
	from := (&netmail.Address{Name: cfg.FromName, Address: cfg.FromEmail}).String()
	return &SESSender{client: client, from: from, logger: logger.Component("ses")}
}

func (s *SESSender) input(msg EmailMessage) *sesv2.SendEmailInput {
	body := &types.Body{Text: utf8Content(msg.Body)}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8Content(msg.Subject), Body: body},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}
	return in
}

// Send hands msg to SES.
func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}
	out, err := s.client.SendEmail(ctx, s.input(msg))
	if err != nil {
		s.logger.Error("SES rejected email", "error", err, "to_domain", recipientDomain(msg.To))
		return fmt.Errorf("notify: SES send failed: %w", err)
	}
	s.logger.Debug("email accepted", "subject", msg.Subject, "message_id", aws.ToString(out.MessageId))
	return nil
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)

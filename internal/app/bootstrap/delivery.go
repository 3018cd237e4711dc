package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/therapy-booking/internal/config"
	"github.com/wolfman30/therapy-booking/internal/notify"
	"github.com/wolfman30/therapy-booking/internal/observability/metrics"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

// AWSClients holds the SDK clients used for delivery. Any may be nil.
type AWSClients struct {
	SES *sesv2.Client
	SQS *sqs.Client
	S3  *s3.Client
}

// NewAWSClients builds only the clients cfg actually needs.
func NewAWSClients(awsCfg aws.Config, cfg *appconfig.Config) AWSClients {
	var clients AWSClients
	if cfg.EmailProvider == "ses" {
		clients.SES = sesv2.NewFromConfig(awsCfg)
	}
	if cfg.BookingQueueURL != "" {
		clients.SQS = sqs.NewFromConfig(awsCfg)
	}
	if cfg.EbookBucket != "" {
		pathStyle := strings.TrimSpace(cfg.AWSEndpointOverride) != ""
		clients.S3 = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = pathStyle
		})
	}
	return clients
}

// BuildEmailSender selects the email provider named by EMAIL_PROVIDER.
func BuildEmailSender(cfg *appconfig.Config, clients AWSClients, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "", "stub":
		logger.Warn("email provider is stub; booking emails are only logged")
		return notify.NewStubEmailSender(logger), nil
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil || cfg.SendGridFromEmail == "" {
			return nil, fmt.Errorf("bootstrap: sendgrid requires SENDGRID_API_KEY and SENDGRID_FROM_EMAIL")
		}
		return sender, nil
	case "ses":
		if cfg.SESFromEmail == "" {
			return nil, fmt.Errorf("bootstrap: ses requires SES_FROM_EMAIL")
		}
		sender := notify.NewSESSender(clients.SES, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: ses client not configured")
		}
		return sender, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}

// BuildDispatcher wires the delivery collaborator for the widget.
func BuildDispatcher(cfg *appconfig.Config, clients AWSClients, m *metrics.WidgetMetrics, logger *logging.Logger) (*notify.Dispatcher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	email, err := BuildEmailSender(cfg, clients, logger)
	if err != nil {
		return nil, err
	}

	dcfg := notify.DispatcherConfig{
		Email:             email,
		Metrics:           m,
		PractitionerName:  cfg.PractitionerName,
		PractitionerEmail: cfg.PractitionerEmail,
	}
	if cfg.BookingQueueURL != "" && clients.SQS != nil {
		dcfg.Queue = notify.NewSQSPublisher(clients.SQS, cfg.BookingQueueURL)
	}
	if cfg.EbookBucket != "" && clients.S3 != nil {
		dcfg.EbookLinks = notify.NewS3LinkSigner(clients.S3, cfg.EbookBucket, cfg.EbookKey, cfg.EbookLinkTTL)
	}

	d := notify.NewDispatcher(dcfg, logger.Component("notify"))
	logger.Info("delivery configured", "channels", d.String())
	return d, nil
}

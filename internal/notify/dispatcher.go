// Package notify hands finished widget forms to the outside world: the
// practice's scheduling queue and the practitioner's and client's inboxes.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/therapy-booking/internal/booking"
	"github.com/wolfman30/therapy-booking/internal/observability/metrics"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

var notifyTracer = otel.Tracer("therapy.internal.notify")

// DispatcherConfig wires the collaborators of a Dispatcher. Queue, EbookLinks
// and Metrics are optional.
type DispatcherConfig struct {
	Email             EmailSender
	Queue             Publisher
	EbookLinks        LinkSigner
	Metrics           *metrics.WidgetMetrics
	PractitionerName  string
	PractitionerEmail string
}

// Dispatcher implements booking.Deliverer. A request counts as delivered only
// when every configured channel accepted it.
type Dispatcher struct {
	cfg    DispatcherConfig
	logger *logging.Logger
}

// NewDispatcher creates a dispatcher. Email is required.
func NewDispatcher(cfg DispatcherConfig, logger *logging.Logger) *Dispatcher {
	if cfg.Email == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PractitionerName == "" {
		cfg.PractitionerName = defaultFromName
	}
	return &Dispatcher{cfg: cfg, logger: logger}
}

type bookingEmailData struct {
	booking.Confirmation
	ServiceLabel     string
	PractitionerName string
}

type ebookEmailData struct {
	Name             string
	DownloadURL      string
	PractitionerName string
}

// DeliverBooking queues the request for the scheduling backend and emails
// both the practitioner and the client. The queue event carries
// c.RequestID, so a retry after a failed email reaches the backend as the
// same request.
func (d *Dispatcher) DeliverBooking(ctx context.Context, c booking.Confirmation) error {
	ctx, span := notifyTracer.Start(ctx, "notify.deliver_booking", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("therapy.service", string(c.Service)),
		attribute.String("therapy.slot", c.SelectedTime),
		attribute.String("therapy.request_id", c.RequestID),
	)

	if d.cfg.Queue != nil {
		if err := d.publish(ctx, c.RequestID, EventBookingRequested, c); err != nil {
			return d.fail(span, err)
		}
	}

	data := bookingEmailData{
		Confirmation:     c,
		ServiceLabel:     c.Service.Label(),
		PractitionerName: d.cfg.PractitionerName,
	}

	if d.cfg.PractitionerEmail != "" {
		msg, err := buildMessage("practitioner_booking", data)
		if err != nil {
			return d.fail(span, err)
		}
		msg.To = d.cfg.PractitionerEmail
		msg.ToName = d.cfg.PractitionerName
		msg.ReplyTo = c.Email
		if err := d.send(ctx, msg); err != nil {
			return d.fail(span, err)
		}
	}

	msg, err := buildMessage("client_booking", data)
	if err != nil {
		return d.fail(span, err)
	}
	msg.To = c.Email
	msg.ToName = c.Name
	msg.ReplyTo = d.cfg.PractitionerEmail
	if err := d.send(ctx, msg); err != nil {
		return d.fail(span, err)
	}

	d.logger.Info("booking request delivered",
		"request_id", c.RequestID,
		"service", c.Service,
		"date", c.FormattedDate,
		"time", c.SelectedTime,
	)
	return nil
}

// DeliverSubscription emails the subscriber a download link for the eBook.
func (d *Dispatcher) DeliverSubscription(ctx context.Context, s booking.Subscription) error {
	ctx, span := notifyTracer.Start(ctx, "notify.deliver_subscription", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	if d.cfg.Queue != nil {
		if err := d.publish(ctx, subscriptionEventID(s, time.Now()), EventEbookRequested, s); err != nil {
			return d.fail(span, err)
		}
	}

	data := ebookEmailData{Name: s.Name, PractitionerName: d.cfg.PractitionerName}
	if d.cfg.EbookLinks != nil {
		start := time.Now()
		url, err := d.cfg.EbookLinks.DownloadURL(ctx)
		d.cfg.Metrics.ObserveDelivery("s3", err, time.Since(start).Seconds())
		if err != nil {
			return d.fail(span, err)
		}
		data.DownloadURL = url
	}

	msg, err := buildMessage("ebook", data)
	if err != nil {
		return d.fail(span, err)
	}
	msg.To = s.Email
	msg.ToName = s.Name
	msg.ReplyTo = d.cfg.PractitionerEmail
	if err := d.send(ctx, msg); err != nil {
		return d.fail(span, err)
	}

	d.logger.Info("ebook request delivered", "has_link", data.DownloadURL != "")
	return nil
}

// publish sends one event; an empty id gets a random one from the publisher.
func (d *Dispatcher) publish(ctx context.Context, id, eventType string, payload any) error {
	start := time.Now()
	err := d.cfg.Queue.Publish(ctx, QueueEvent{ID: id, Type: eventType, Payload: payload})
	d.cfg.Metrics.ObserveDelivery("queue", err, time.Since(start).Seconds())
	return err
}

// subscriptionEventID keys eBook requests by address and UTC day, so
// repeated sign-ups from one inbox on one day collapse into one event.
func subscriptionEventID(s booking.Subscription, at time.Time) string {
	key := "ebook:" + strings.ToLower(strings.TrimSpace(s.Email)) + ":" + at.UTC().Format(time.DateOnly)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func (d *Dispatcher) send(ctx context.Context, msg EmailMessage) error {
	start := time.Now()
	err := d.cfg.Email.Send(ctx, msg)
	d.cfg.Metrics.ObserveDelivery("email", err, time.Since(start).Seconds())
	return err
}

func (d *Dispatcher) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	d.logger.Error("delivery failed", "error", err)
	return err
}

func buildMessage(prefix string, data any) (EmailMessage, error) {
	subject, err := render(prefix+"_subject", data)
	if err != nil {
		return EmailMessage{}, err
	}
	body, err := render(prefix+"_body", data)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{Subject: subject, Body: body}, nil
}

var _ booking.Deliverer = (*Dispatcher)(nil)

// String describes the configured channels for startup logs.
func (d *Dispatcher) String() string {
	return fmt.Sprintf("email=%T queue=%t ebook_links=%t", d.cfg.Email, d.cfg.Queue != nil, d.cfg.EbookLinks != nil)
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

// Event types published to the practice's scheduling queue.
const (
	EventBookingRequested = "booking.requested"
	EventEbookRequested   = "ebook.requested"
)

// QueueEvent is the envelope read by the scheduling backend, which owns
// conflict checks and the real calendar.
type QueueEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher sends events to the scheduling backend. Events sharing an ID
// describe the same request; the backend keeps the first one.
type Publisher interface {
	Publish(ctx context.Context, evt QueueEvent) error
}

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher publishes JSON events to one SQS queue. On a FIFO queue the
// event ID doubles as the deduplication ID, so SQS drops a repeated request
// within its five minute window.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
	fifo     bool
	now      func() time.Time
}

// NewSQSPublisher creates a publisher around the provided SQS client.
func NewSQSPublisher(client *sqs.Client, queueURL string) *SQSPublisher {
	if client == nil {
		panic("notify: SQS client cannot be nil")
	}
	return newSQSPublisher(client, queueURL)
}

func newSQSPublisher(client sqsAPI, queueURL string) *SQSPublisher {
	if queueURL == "" {
		panic("notify: SQS queueURL cannot be empty")
	}
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
		now:      time.Now,
	}
}

// Publish sends evt, filling in a random ID and the current time when unset.
func (p *SQSPublisher) Publish(ctx context.Context, evt QueueEvent) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = p.now()
	}
	evt.OccurredAt = evt.OccurredAt.UTC()
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notify: encode %s event: %w", evt.Type, err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(evt.Type),
			},
		},
	}
	if p.fifo {
		input.MessageGroupId = aws.String(evt.Type)
		input.MessageDeduplicationId = aws.String(evt.ID)
	}
	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("notify: failed to send SQS message: %w", err)
	}
	return nil
}

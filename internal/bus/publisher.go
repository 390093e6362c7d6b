// Package bus publishes outbox events to a message broker.
package bus

import (
	"context"

	"gocloud.dev/pubsub"

	// Register pubsub drivers
	_ "gocloud.dev/pubsub/awssnssqs"
	_ "gocloud.dev/pubsub/gcppubsub"
	_ "gocloud.dev/pubsub/mempubsub"
	_ "gocloud.dev/pubsub/rabbitpubsub"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/outbox/domain"
)

// Publisher delivers outbox events to a pubsub topic. It implements the
// outbox EventProcessor interface, so the outbox loop drains straight into
// the broker.
type Publisher struct {
	topic *pubsub.Topic
}

// NewPublisher opens the topic for the configured broker using the topicURL.
// Supports: gcppubsub://, awssns://, awssqs://, rabbit://, mem://
func NewPublisher(ctx context.Context, topicURL string) (*Publisher, error) {
	topic, err := pubsub.OpenTopic(ctx, topicURL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open pubsub topic")
	}
	return &Publisher{topic: topic}, nil
}

// Process publishes a single outbox event. The payload goes in the message
// body as-is; the event identity travels in metadata so consumers can route
// and deduplicate without parsing the body.
func (p *Publisher) Process(ctx context.Context, event *domain.OutboxEvent) error {
	message := &pubsub.Message{
		Body: []byte(event.Payload),
		Metadata: map[string]string{
			"event_id":   event.ID.String(),
			"event_type": event.EventType,
		},
	}
	if err := p.topic.Send(ctx, message); err != nil {
		return apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	return nil
}

// Shutdown flushes and closes the topic.
func (p *Publisher) Shutdown(ctx context.Context) error {
	return p.topic.Shutdown(ctx)
}

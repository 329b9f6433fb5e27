package telemetry

import (
	"context"

	"github.com/turtacn/rxnguard/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// EventSource is stamped on every published envelope.
const EventSource = "rxnguard"

// MessagePublisher is the subset of *kafka.Producer used for rejection events.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
}

// RejectionPublisher forwards failure entries to a Kafka topic as
// candidate.rejected envelopes keyed by reaction name.
type RejectionPublisher struct {
	producer MessagePublisher
	topic    string
	metrics  *prometheus.AppMetrics
}

// NewRejectionPublisher publishes to topic, or kafka.TopicRejections when empty.
func NewRejectionPublisher(p MessagePublisher, topic string, metrics *prometheus.AppMetrics) *RejectionPublisher {
	if topic == "" {
		topic = kafka.TopicRejections
	}
	return &RejectionPublisher{producer: p, topic: topic, metrics: metrics}
}

// PublishFailure implements Publisher.
func (p *RejectionPublisher) PublishFailure(ctx context.Context, entry FailureEntry) error {
	err := p.publish(ctx, entry)
	prometheus.RecordRejectionEvent(p.metrics, err)
	return err
}

func (p *RejectionPublisher) publish(ctx context.Context, entry FailureEntry) error {
	env, err := kafka.NewEventEnvelope(kafka.EventTypeCandidateRejected, EventSource, entry)
	if err != nil {
		return err
	}
	env.EventID = entry.ID
	env.Timestamp = entry.Timestamp

	key := UnknownReaction
	if entry.ReactionName != nil && *entry.ReactionName != "" {
		key = *entry.ReactionName
	}
	msg, err := env.ToMessage(p.topic, key)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodePublishFailed, "rejection event not published")
	}
	return nil
}

// DecodeRejection extracts the failure entry from a consumed rejection event.
func DecodeRejection(msg *kafka.Message) (FailureEntry, error) {
	var entry FailureEntry
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return entry, err
	}
	if env.EventType != kafka.EventTypeCandidateRejected {
		return entry, errors.Newf(errors.ErrCodeValidation, "unexpected event type %q", env.EventType)
	}
	err = env.DecodePayload(&entry)
	return entry, err
}

//Personal.AI order the ending

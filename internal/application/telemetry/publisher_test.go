package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/internal/infrastructure/messaging/kafka"
	apperrors "github.com/turtacn/rxnguard/pkg/errors"
)

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, msg *kafka.ProducerMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func TestRejectionPublisher_PublishesEnvelope(t *testing.T) {
	producer := new(MockMessagePublisher)
	var captured *kafka.ProducerMessage
	producer.On("Publish", mock.Anything, mock.AnythingOfType("*kafka.ProducerMessage")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*kafka.ProducerMessage) }).
		Return(nil)

	pub := NewRejectionPublisher(producer, "", nil)
	entry := failure("BrCCBr", "too dissimilar from reactants")
	entry.ID = "f-1"
	entry.Timestamp = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	name := "Bromination"
	entry.ReactionName = &name

	require.NoError(t, pub.PublishFailure(context.Background(), entry))
	producer.AssertExpectations(t)

	require.NotNil(t, captured)
	assert.Equal(t, kafka.TopicRejections, captured.Topic)
	assert.Equal(t, "Bromination", string(captured.Key))
	assert.Equal(t, kafka.EventTypeCandidateRejected, captured.Headers["event_type"])

	decoded, err := DecodeRejection(&kafka.Message{Value: captured.Value})
	require.NoError(t, err)
	assert.Equal(t, "f-1", decoded.ID)
	assert.Equal(t, "BrCCBr", decoded.Product)
	assert.InDelta(t, 0.12, *decoded.Similarity, 1e-9)
}

func TestRejectionPublisher_UnnamedReactionKey(t *testing.T) {
	producer := new(MockMessagePublisher)
	producer.On("Publish", mock.Anything, mock.MatchedBy(func(m *kafka.ProducerMessage) bool {
		return string(m.Key) == UnknownReaction && m.Topic == "custom.topic"
	})).Return(nil)

	pub := NewRejectionPublisher(producer, "custom.topic", nil)
	require.NoError(t, pub.PublishFailure(context.Background(), failure("P", "r")))
	producer.AssertExpectations(t)
}

func TestRejectionPublisher_ProducerError(t *testing.T) {
	producer := new(MockMessagePublisher)
	producer.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := NewRejectionPublisher(producer, "", nil).PublishFailure(context.Background(), failure("P", "r"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePublishFailed))
}

func TestDecodeRejection_WrongType(t *testing.T) {
	env, err := kafka.NewEventEnvelope("something.else", EventSource, map[string]string{})
	require.NoError(t, err)
	msg, err := env.ToMessage(kafka.TopicRejections, "")
	require.NoError(t, err)

	_, err = DecodeRejection(&kafka.Message{Value: msg.Value})
	assert.Error(t, err)
}

//Personal.AI order the ending

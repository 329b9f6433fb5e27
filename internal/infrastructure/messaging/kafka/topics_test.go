package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockKafkaConn struct {
	createFunc func(topics ...kafka.TopicConfig) error
	readFunc   func(topics ...string) ([]kafka.Partition, error)
	created    []kafka.TopicConfig
}

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.created = append(m.created, topics...)
	if m.createFunc != nil {
		return m.createFunc(topics...)
	}
	return nil
}

func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readFunc != nil {
		return m.readFunc(topics...)
	}
	return nil, nil
}

func (m *mockKafkaConn) Close() error { return nil }

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics(0)
	require.Len(t, topics, 1)
	assert.Equal(t, TopicRejections, topics[0].Name)
	assert.Equal(t, 1, topics[0].ReplicationFactor)
	assert.Equal(t, 3, DefaultTopics(3)[0].ReplicationFactor)
}

func TestCreateTopic_ConfigEntries(t *testing.T) {
	conn := &mockKafkaConn{}
	m := NewTopicManagerWithConn(conn, nil)

	require.NoError(t, m.EnsureTopics(context.Background(), DefaultTopics(1)))
	require.Len(t, conn.created, 1)
	assert.Equal(t, TopicRejections, conn.created[0].Topic)
	assert.Equal(t, 6, conn.created[0].NumPartitions)
	require.Len(t, conn.created[0].ConfigEntries, 1)
	assert.Equal(t, "retention.ms", conn.created[0].ConfigEntries[0].ConfigName)
	assert.Equal(t, "2592000000", conn.created[0].ConfigEntries[0].ConfigValue)
}

func TestCreateTopic_Validation(t *testing.T) {
	m := NewTopicManagerWithConn(&mockKafkaConn{}, nil)
	ctx := context.Background()
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{Name: "t", ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1}))
}

func TestCreateTopic_AlreadyExists(t *testing.T) {
	conn := &mockKafkaConn{
		createFunc: func(...kafka.TopicConfig) error { return kafka.TopicAlreadyExists },
	}
	m := NewTopicManagerWithConn(conn, nil)
	assert.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))
}

func TestCreateTopic_FailsWhenMissing(t *testing.T) {
	conn := &mockKafkaConn{
		createFunc: func(...kafka.TopicConfig) error { return errors.New("broker down") },
	}
	m := NewTopicManagerWithConn(conn, nil)
	err := m.CreateTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1})
	assert.Error(t, err)
}

func TestEventEnvelope_RoundTrip(t *testing.T) {
	type payload struct {
		Product string `json:"product"`
	}
	env, err := NewEventEnvelope(EventTypeCandidateRejected, "rxnguard", payload{Product: "CC=O"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)

	pm, err := env.ToMessage(TopicRejections, "Oxidation")
	require.NoError(t, err)
	assert.Equal(t, "Oxidation", string(pm.Key))
	assert.Equal(t, EventTypeCandidateRejected, pm.Headers["event_type"])

	decoded, err := MessageToEventEnvelope(&Message{Value: pm.Value})
	require.NoError(t, err)
	var got payload
	require.NoError(t, decoded.DecodePayload(&got))
	assert.Equal(t, "CC=O", got.Product)
}

func TestMessageToEventEnvelope_Invalid(t *testing.T) {
	_, err := MessageToEventEnvelope(&Message{})
	assert.Error(t, err)
	_, err = MessageToEventEnvelope(&Message{Value: []byte("{not json")})
	assert.Error(t, err)
}

//Personal.AI order the ending

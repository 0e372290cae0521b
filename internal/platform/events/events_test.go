package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_KeysByIncident(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w}

	evt := New(TypeIncidentCreated, uuid.New(), "2024-000123")
	require.NoError(t, p.Publish(context.Background(), evt))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, evt.IncidentID.String(), string(msg.Key))
	assert.Equal(t, TypeIncidentCreated, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "2024-000123", decoded.RegistryNumber)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisher_FlushesPromptly(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "ocorrencias")
	w, ok := p.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "ocorrencias", w.Topic)
	assert.Equal(t, batchTimeout, w.BatchTimeout)
	assert.Less(t, w.BatchTimeout, 100*time.Millisecond)
	assert.False(t, w.Async)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{w: &fakeWriter{err: boom}}
	assert.ErrorIs(t, p.Publish(context.Background(), New(TypeIncidentFinalized, uuid.New(), "x")), boom)
}

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSPublisher(t *testing.T) {
	client := &fakeSQS{}
	p := &SQSPublisher{client: client, queueURL: "http://localhost:4566/000000000000/ocorrencias"}

	evt := New(TypeIncidentFinalized, uuid.New(), "2024-000999")
	evt.FinalStatus = "Removido ao hospital"
	require.NoError(t, p.Publish(context.Background(), evt))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "http://localhost:4566/000000000000/ocorrencias", aws.ToString(in.QueueUrl))
	assert.Contains(t, aws.ToString(in.MessageBody), `"status_final":"Removido ao hospital"`)
	assert.Equal(t, TypeIncidentFinalized, aws.ToString(in.MessageAttributes["type"].StringValue))
}

package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshpatil06123/ecommerce-backend/pkg/events"
)

// MockReader feeds a fixed set of messages and then cancels the context so
// Run returns.
type MockReader struct {
	Messages  []kafka.Message
	Committed []kafka.Message
	cancel    context.CancelFunc
}

func (m *MockReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(m.Messages) == 0 {
		m.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := m.Messages[0]
	m.Messages = m.Messages[1:]
	return msg, nil
}

func (m *MockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.Committed = append(m.Committed, msgs...)
	return nil
}

func (m *MockReader) Close() error { return nil }

type MockDLQ struct {
	Written []kafka.Message
	Err     error
}

func (m *MockDLQ) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Written = append(m.Written, msgs...)
	return nil
}

// MockProcessor fails the first FailTimes calls, then succeeds.
type MockProcessor struct {
	FailTimes int
	Calls     int
	Received  []events.OrderPlaced
}

func (m *MockProcessor) ProcessOrderPayment(_ context.Context, ev events.OrderPlaced) error {
	m.Calls++
	m.Received = append(m.Received, ev)
	if m.Calls <= m.FailTimes {
		return errors.New("transient failure")
	}
	return nil
}

func orderMessage(t *testing.T) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(events.OrderPlaced{
		OrderID: 1, UserID: 2, ProductID: 7, Amount: 75.00, Quantity: 3,
	})
	require.NoError(t, err)
	return kafka.Message{
		Topic:     events.OrderCreatedTopic,
		Partition: 2,
		Offset:    41,
		Key:       []byte("1"),
		Value:     payload,
	}
}

func runConsumer(t *testing.T, reader *MockReader, dlq *MockDLQ, proc *MockProcessor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	reader.cancel = cancel

	c := NewOrderConsumer(reader, dlq, proc)
	c.sleep = func(time.Duration) {}
	c.Run(ctx)
}

func TestOrderConsumer_HandlesAndCommits(t *testing.T) {
	reader := &MockReader{Messages: []kafka.Message{orderMessage(t)}}
	dlq := &MockDLQ{}
	proc := &MockProcessor{}

	runConsumer(t, reader, dlq, proc)

	require.Len(t, proc.Received, 1)
	assert.Equal(t, int64(1), proc.Received[0].OrderID)
	assert.Equal(t, 75.00, proc.Received[0].Amount)
	assert.Len(t, reader.Committed, 1)
	assert.Empty(t, dlq.Written)
}

func TestOrderConsumer_RetriesTransientFailure(t *testing.T) {
	reader := &MockReader{Messages: []kafka.Message{orderMessage(t)}}
	dlq := &MockDLQ{}
	proc := &MockProcessor{FailTimes: 2}

	runConsumer(t, reader, dlq, proc)

	assert.Equal(t, 3, proc.Calls)
	assert.Len(t, reader.Committed, 1)
	assert.Empty(t, dlq.Written)
}

func TestOrderConsumer_ExhaustedRetriesGoToDLQ(t *testing.T) {
	msg := orderMessage(t)
	reader := &MockReader{Messages: []kafka.Message{msg}}
	dlq := &MockDLQ{}
	proc := &MockProcessor{FailTimes: maxAttempts}

	runConsumer(t, reader, dlq, proc)

	assert.Equal(t, maxAttempts, proc.Calls)
	require.Len(t, dlq.Written, 1)
	assert.Len(t, reader.Committed, 1)

	parked := dlq.Written[0]
	assert.Equal(t, events.PaymentDLQTopic, parked.Topic)
	assert.Equal(t, msg.Key, parked.Key)
	assert.Equal(t, msg.Value, parked.Value)

	headers := make(map[string]string)
	for _, h := range parked.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, events.OrderCreatedTopic, headers[HeaderOriginalTopic])
	assert.Equal(t, "2", headers[HeaderOriginalPartition])
	assert.Equal(t, "41", headers[HeaderOriginalOffset])
	assert.Contains(t, headers[HeaderExceptionMessage], "transient failure")
}

func TestOrderConsumer_MalformedPayloadSkipsRetries(t *testing.T) {
	reader := &MockReader{Messages: []kafka.Message{{
		Topic: events.OrderCreatedTopic,
		Key:   []byte("1"),
		Value: []byte("not json"),
	}}}
	dlq := &MockDLQ{}
	proc := &MockProcessor{}

	runConsumer(t, reader, dlq, proc)

	assert.Zero(t, proc.Calls)
	assert.Len(t, dlq.Written, 1)
	assert.Len(t, reader.Committed, 1)
}

// flakyReader fails fetches with a transient error before cancelling.
type flakyReader struct {
	failures int
	cancel   context.CancelFunc
}

func (r *flakyReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.failures > 0 {
		r.failures--
		return kafka.Message{}, errors.New("broker unreachable")
	}
	r.cancel()
	return kafka.Message{}, context.Canceled
}

func (r *flakyReader) CommitMessages(context.Context, ...kafka.Message) error { return nil }
func (r *flakyReader) Close() error                                           { return nil }

func TestOrderConsumer_FetchErrorBacksOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &flakyReader{failures: 3, cancel: cancel}

	var slept int
	c := NewOrderConsumer(reader, &MockDLQ{}, &MockProcessor{})
	c.sleep = func(d time.Duration) {
		assert.Equal(t, fetchRetryDelay, d)
		slept++
	}
	c.Run(ctx)

	assert.Equal(t, 3, slept)
}

func TestDLQConsumer_FetchErrorBacksOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &flakyReader{failures: 2, cancel: cancel}

	var slept int
	c := NewDLQConsumer(reader)
	c.sleep = func(time.Duration) { slept++ }
	c.Run(ctx)

	assert.Equal(t, 2, slept)
}

func TestOrderConsumer_DLQWriteFailureSkipsCommit(t *testing.T) {
	reader := &MockReader{Messages: []kafka.Message{orderMessage(t)}}
	dlq := &MockDLQ{Err: errors.New("broker down")}
	proc := &MockProcessor{FailTimes: maxAttempts}

	runConsumer(t, reader, dlq, proc)

	assert.Empty(t, reader.Committed)
}

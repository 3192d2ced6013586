package consumers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/starkbank-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves a fixed list of messages, then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:          "localhost:9092",
		TransactionTopic: "test-topic",
		ConsumerGroup:    "test-group",
		MinBytes:         1024,
		MaxBytes:         10240,
		MaxWait:          time.Second,
	}

	consumer := NewKafkaConsumer(newTestLogger(), cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	assert.Equal(t, "test-topic", consumer.topic)
	assert.Equal(t, "test-group", consumer.groupID)
	assert.NoError(t, consumer.Close())
}

func TestKafkaConsumer_CommitsInOrder(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{{Offset: 1}, {Offset: 2}, {Offset: 3}}}
	consumer := &KafkaConsumer{reader: reader, logger: newTestLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	var handled atomic.Int32
	require.NoError(t, consumer.Subscribe(ctx, func(context.Context, []byte, []byte) error {
		handled.Add(1)
		return nil
	}))

	assert.Eventually(t, func() bool { return len(reader.committedOffsets()) == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, consumer.Close())

	assert.Equal(t, []int64{1, 2, 3}, reader.committedOffsets())
	assert.Equal(t, int32(3), handled.Load())
	assert.True(t, reader.closed)
}

func TestKafkaConsumer_RetriesTransientFailures(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{{Offset: 7}}}
	consumer := &KafkaConsumer{reader: reader, logger: newTestLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	var attempts atomic.Int32
	require.NoError(t, consumer.Subscribe(ctx, func(context.Context, []byte, []byte) error {
		if attempts.Add(1) < 2 {
			return errors.New("storage unavailable")
		}
		return nil
	}))

	assert.Eventually(t, func() bool { return len(reader.committedOffsets()) == 1 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, consumer.Close())

	assert.Equal(t, int32(2), attempts.Load())
}

func TestKafkaConsumer_StopsWhileRetrying(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{{Offset: 1}}}
	consumer := &KafkaConsumer{reader: reader, logger: newTestLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, consumer.Subscribe(ctx, func(context.Context, []byte, []byte) error {
		return errors.New("always failing")
	}))

	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, consumer.Close())

	assert.Empty(t, reader.committedOffsets())
}

func TestKafkaConsumer_CloseWithNilReader(t *testing.T) {
	consumer := &KafkaConsumer{logger: newTestLogger()}
	assert.NoError(t, consumer.Close())
}

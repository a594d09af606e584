package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/chat"
	"github.com/light-bringer/chatsync-service/internal/config"
	"github.com/light-bringer/chatsync-service/internal/pkg/metrics"
)

// fakeReader serves queued messages, then io.EOF.
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
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
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func message(offset int64, value string) kafka.Message {
	return kafka.Message{Topic: "chat.messages", Offset: offset, Value: []byte(value), Time: time.Now()}
}

const validMessage = `{"chat_id":"chat-1","message_id":"m1","timestamp":"2024-05-01T12:00:00Z","type":"text","body":"hola"}`

func TestSubscribe(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		message(1, validMessage),
		message(2, `not json`),
		message(3, `{"chat_id":"chat-1","type":"text"}`),
		message(4, `{"chat_id":"chat-2","message_id":"m9","timestamp":"2024-05-01T12:00:00Z","type":"image"}`),
	}}
	reg := prometheus.NewRegistry()
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewConsumerWithReader(reader, "chat.messages", "chatsync", time.Second, metrics.New(reg), zap.New(core))

	var handled []chat.InboundMessage
	err := c.Subscribe(context.Background(), func(_ context.Context, msg chat.InboundMessage) error {
		handled = append(handled, msg)
		if msg.ChatID == "chat-2" {
			return domain.ErrChatNotWatched
		}
		return nil
	})

	require.NoError(t, err)
	require.Len(t, handled, 2)
	assert.Equal(t, "m1", handled[0].MessageID)
	assert.Equal(t, chat.TypeText, handled[0].Type)
	assert.Equal(t, "hola", handled[0].Body)

	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committed, "every message is committed")
	assert.True(t, reader.closed)

	invalid := logs.FilterField(zap.Stringer("code", codes.InvalidArgument))
	assert.Equal(t, 2, invalid.Len())
	assert.Equal(t, 2, invalid.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("chat is not watched").Len())

	n, err := testutil.GatherAndCount(reg, "chatsync_kafka_messages_consumed_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "OK, InvalidArgument and NotFound series")
}

func TestSubscribeRecoversPanic(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{message(1, validMessage), message(2, validMessage)}}
	core, logs := observer.New(zapcore.ErrorLevel)
	c := NewConsumerWithReader(reader, "chat.messages", "chatsync", 0, nil, zap.New(core))

	calls := 0
	err := c.Subscribe(context.Background(), func(context.Context, chat.InboundMessage) error {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, logs.FilterMessageSnippet("panic recovered: boom").Len())
}

func TestSubscribeRetriesUnstoredMessage(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{message(1, validMessage), message(2, validMessage)}}
	core, logs := observer.New(zapcore.ErrorLevel)
	c := NewConsumerWithReader(reader, "chat.messages", "chatsync", 0, nil, zap.New(core))
	c.storeBackoff = time.Millisecond

	calls := 0
	err := c.Subscribe(context.Background(), func(_ context.Context, msg chat.InboundMessage) error {
		calls++
		if calls <= 2 {
			return &domain.TranscriptWriteError{ChatID: msg.ChatID, MessageID: msg.MessageID, Err: errors.New("spanner unavailable")}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls, "first message handled three times")
	assert.Equal(t, []int64{1, 2}, reader.committed)
	assert.Equal(t, 2, logs.FilterField(zap.Stringer("code", codes.Unavailable)).Len())
}

func TestSubscribeLeavesUnstoredMessageUncommitted(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{message(1, validMessage), message(2, validMessage)}}
	c := NewConsumerWithReader(reader, "chat.messages", "chatsync", 0, nil, zap.NewNop())
	c.storeBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := c.Subscribe(ctx, func(_ context.Context, msg chat.InboundMessage) error {
		calls++
		cancel()
		return &domain.TranscriptWriteError{ChatID: msg.ChatID, MessageID: msg.MessageID, Err: errors.New("spanner unavailable")}
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, reader.committed)
	assert.True(t, reader.closed)
}

func TestSubscribeCommitsAfterProcessingFailure(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{message(1, validMessage)}}
	c := NewConsumerWithReader(reader, "chat.messages", "chatsync", 0, nil, zap.NewNop())

	calls := 0
	err := c.Subscribe(context.Background(), func(context.Context, chat.InboundMessage) error {
		calls++
		return domain.ErrCursorConflict
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []int64{1}, reader.committed)
}

func TestSubscribeStopsOnCancel(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{message(1, validMessage)}}
	c := NewConsumerWithReader(reader, "chat.messages", "chatsync", 0, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Subscribe(ctx, func(context.Context, chat.InboundMessage) error {
		t.Fatal("handler must not be called")
		return nil
	})

	require.NoError(t, err)
	assert.True(t, reader.closed)
}

func TestNewConsumerDisabled(t *testing.T) {
	sub := NewConsumer(config.KafkaConfig{Enabled: false}, 0, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sub.Subscribe(ctx, nil) }()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Error(t, ctx.Err(), "returns only after shutdown")
	case <-time.After(time.Second):
		t.Fatal("disabled subscriber did not return")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"status", status.Error(codes.InvalidArgument, "bad"), codes.InvalidArgument},
		{"deadline", fmt.Errorf("scan: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"not watched", fmt.Errorf("process: %w", domain.ErrChatNotWatched), codes.NotFound},
		{"cursor conflict", domain.ErrCursorConflict, codes.Aborted},
		{"cursor not found", domain.ErrCursorNotFound, codes.FailedPrecondition},
		{"missing images", &domain.MissingImagesError{SKU: "A"}, codes.InvalidArgument},
		{"not stored", &domain.TranscriptWriteError{ChatID: "c", MessageID: "m", Err: status.Error(codes.Internal, "spanner")}, codes.Unavailable},
		{"unknown", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getCode(tt.err))
		})
	}
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, getLogLevel(codes.OK))
	assert.Equal(t, zapcore.WarnLevel, getLogLevel(codes.NotFound))
	assert.Equal(t, zapcore.WarnLevel, getLogLevel(codes.Aborted))
	assert.Equal(t, zapcore.ErrorLevel, getLogLevel(codes.Internal))
	assert.Equal(t, zapcore.ErrorLevel, getLogLevel(codes.DeadlineExceeded))
}

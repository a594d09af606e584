// Package kafka delivers live chat messages from a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/light-bringer/chatsync-service/internal/chat"
	"github.com/light-bringer/chatsync-service/internal/config"
	"github.com/light-bringer/chatsync-service/internal/pkg/metrics"
)

const (
	fetchRetryDelay = time.Second
	maxStoreBackoff = 30 * time.Second
)

// Reader is the part of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer implements chat.Subscriber on a consumer group. Messages are
// handled one at a time. A message that could not be stored in the
// transcript is retried with backoff and its offset stays uncommitted.
// Once stored, the offset is committed whatever the outcome of processing:
// the chat can be processed again on demand from its persisted cursor.
type Consumer struct {
	reader       Reader
	storeBackoff time.Duration
	topic    string
	group    string
	timeout  time.Duration
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

var _ chat.Subscriber = (*Consumer)(nil)

// NewConsumer creates a consumer for cfg. It returns a subscriber that only
// waits for shutdown when Kafka is disabled.
func NewConsumer(cfg config.KafkaConfig, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) chat.Subscriber {
	if !cfg.Enabled {
		return &noopSubscriber{logger: logger.Named("kafka")}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: []string{cfg.Topic},
		StartOffset: kafka.LastOffset,
	})
	return NewConsumerWithReader(reader, cfg.Topic, cfg.GroupID, timeout, m, logger)
}

// NewConsumerWithReader creates a consumer on an existing reader.
func NewConsumerWithReader(reader Reader, topic, group string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:       reader,
		storeBackoff: fetchRetryDelay,
		topic:    topic,
		group:    group,
		timeout:  timeout,
		validate: validator.New(),
		metrics:  m,
		logger:   logger.Named("kafka").With(zap.String("topic", topic), zap.String("group", group)),
	}
}

// Subscribe consumes until ctx is done, then closes the reader.
func (c *Consumer) Subscribe(ctx context.Context, handler chat.Handler) error {
	c.logger.Info("kafka consumer started")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("failed to close kafka reader", zap.Error(err))
		}
		c.logger.Info("kafka consumer stopped")
	}()

	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("failed to fetch message", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if !c.deliver(ctx, msg, handler) {
			// not stored; the group redelivers it after a restart
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
	return nil
}

// deliver handles msg until it has been stored. It reports false when ctx
// ended first.
func (c *Consumer) deliver(ctx context.Context, msg kafka.Message, handler chat.Handler) bool {
	backoff := c.storeBackoff
	for {
		if err := c.process(ctx, msg, handler); !isRetryable(err) {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxStoreBackoff)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, handler chat.Handler) error {
	start := time.Now()
	err := c.handle(ctx, msg, handler)
	duration := time.Since(start)

	code := getCode(err)
	content := "message handled"
	if err != nil {
		content = err.Error()
	}

	if ce := c.logger.Check(getLogLevel(code), content); ce != nil {
		ce.Write(
			zap.Stringer("code", code),
			zap.Int64("duration_ms", duration.Milliseconds()),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Int64("lag_ms", start.Sub(msg.Time).Milliseconds()),
			zap.ByteString("key", msg.Key),
		)
	}

	c.metrics.MessageConsumed(code.String(), c.topic, c.group, duration)
	return err
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler chat.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			err = fmt.Errorf("panic recovered: %v / %s", r, stack[:n])
		}
	}()

	var in chat.InboundMessage
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		return status.Errorf(codes.InvalidArgument, "failed to unmarshal message: %v", err)
	}
	if err := c.validate.Struct(in); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid message: %v", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return handler(ctx, in)
}

type noopSubscriber struct {
	logger *zap.Logger
}

func (n *noopSubscriber) Subscribe(ctx context.Context, _ chat.Handler) error {
	n.logger.Warn("kafka consumer is disabled in configuration")
	<-ctx.Done()
	return nil
}

package kafka

import (
	"context"
	"errors"
	"time"

	"go-storefront/internal/logging"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	MinBytes int
	MaxBytes int
	// 处理失败的重试次数（不含首次），用尽后提交 offset 跳过该消息
	MaxRetries   int
	RetryBackoff time.Duration
}

type MessageHandler func(ctx context.Context, msg kafkaGo.Message) error

type Consumer struct {
	reader  *kafkaGo.Reader
	logger  *logging.Logger
	retries int
	backoff time.Duration
}

func NewConsumer(cfg ConsumerConfig, l *logging.Logger) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if l == nil {
		l = logging.NewNop()
	}
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
	})
	return &Consumer{reader: reader, logger: l, retries: cfg.MaxRetries, backoff: cfg.RetryBackoff}
}

// Start 阻塞消费直到 ctx 取消。每条消息处理完（成功或重试用尽）才提交 offset
func (c *Consumer) Start(ctx context.Context, handler MessageHandler) error {
	if c.reader == nil {
		return errors.New("nil reader")
	}
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.handle(ctx, m, handler); err != nil {
			// 仅 ctx 取消时返回，offset 不提交，重启后重新投递
			return nil
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafkaGo.Message, handler MessageHandler) error {
	carrier := propagation.MapCarrier{}
	for _, h := range m.Headers {
		carrier[h.Key] = string(h.Value)
	}
	msgCtx := otel.GetTextMapPropagator().Extract(ctx, carrier)
	if v := carrier["trace_id"]; v != "" {
		msgCtx = context.WithValue(msgCtx, logging.TraceIDKey, v)
	}
	msgCtx, span := otel.Tracer("kafka-consumer").Start(msgCtx, "kafka.consume", trace.WithSpanKind(trace.SpanKindConsumer), trace.WithAttributes(
		semconv.MessagingSystem("kafka"),
		semconv.MessagingDestinationName(m.Topic),
		attribute.Int("messaging.kafka.partition", m.Partition),
		attribute.Int64("messaging.kafka.offset", m.Offset),
		attribute.Int("messaging.message.size", len(m.Value)),
	))
	defer span.End()

	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		if err = handler(msgCtx, m); err == nil {
			return nil
		}
		c.logger.WithContext(msgCtx).Warn("kafka_handler_error",
			zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	c.logger.WithContext(msgCtx).Error("kafka_message_dropped",
		zap.String("topic", m.Topic), zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.Error(err))
	return nil
}

func (c *Consumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}

package kafka

import (
	"context"
	"errors"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Brokers []string
	Topic   string
}

// Producer kafka-go Writer + 发送 span
type Producer struct {
	*kafkaGo.Writer
	Brokers []string
}

func NewProducer(cfg Config) *Producer {
	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkaGo.Hash{},
		RequiredAcks:           kafkaGo.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: w, Brokers: cfg.Brokers}
}

// Ping 依次拨测 broker，任一可连即可
func (p *Producer) Ping(ctx context.Context) error {
	var lastErr error
	for _, b := range p.Brokers {
		conn, err := kafkaGo.DialContext(ctx, "tcp", b)
		if err == nil {
			return conn.Close()
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no kafka brokers configured")
	}
	return lastErr
}

func (p *Producer) startSpan(ctx context.Context) (context.Context, trace.Span) {
	tr := otel.GetTracerProvider().Tracer("kafka-producer")
	return tr.Start(ctx, "kafka.produce", trace.WithSpanKind(trace.SpanKindProducer), trace.WithAttributes(
		semconv.MessagingSystem("kafka"),
		semconv.MessagingDestinationName(p.Topic),
		attribute.String("messaging.destination_kind", "topic"),
	))
}

// buildHeaders 业务 header + W3C traceparent，业务 header 同名优先
func (p *Producer) buildHeaders(ctx context.Context, headers map[string]string) []kafkaGo.Header {
	hs := make([]kafkaGo.Header, 0, len(headers)+2)
	for k, v := range headers {
		hs = append(hs, kafkaGo.Header{Key: k, Value: []byte(v)})
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		if _, ok := headers[k]; ok {
			continue
		}
		hs = append(hs, kafkaGo.Header{Key: k, Value: []byte(v)})
	}
	return hs
}

func (p *Producer) Send(ctx context.Context, key, value []byte, headers map[string]string) error {
	ctx, span := p.startSpan(ctx)
	defer span.End()
	msg := kafkaGo.Message{Key: key, Value: value, Time: time.Now(), Headers: p.buildHeaders(ctx, headers)}
	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return err
	}
	return nil
}

func (p *Producer) Close() error { return p.Writer.Close() }

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func headerMap(p *Producer, ctx context.Context, in map[string]string) map[string]string {
	out := map[string]string{}
	for _, h := range p.buildHeaders(ctx, in) {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestBuildHeaders_InjectsTraceparent(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	p := NewProducer(Config{Brokers: []string{"127.0.0.1:9092"}, Topic: "audit"})
	defer p.Close()

	hs := headerMap(p, ctx, map[string]string{"event_type": "ACTION"})
	assert.Equal(t, "ACTION", hs["event_type"])
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", hs["traceparent"])

	// 同名业务 header 优先
	hs = headerMap(p, ctx, map[string]string{"traceparent": "custom"})
	assert.Equal(t, "custom", hs["traceparent"])
}

func TestPing_NoBrokers(t *testing.T) {
	p := NewProducer(Config{Topic: "audit"})
	defer p.Close()
	assert.Error(t, p.Ping(context.Background()))
}

func TestAsyncSender_EnqueueDropsWhenFull(t *testing.T) {
	s := NewAsyncSender(nil, nil, AsyncOptions{QueueSize: 2})
	assert.True(t, s.Enqueue(AsyncMessage{Value: []byte("a")}))
	assert.True(t, s.Enqueue(AsyncMessage{Value: []byte("b")}))
	assert.False(t, s.Enqueue(AsyncMessage{Value: []byte("c")}))
	assert.Len(t, s.queue, 2)
}

func TestAsyncSender_Defaults(t *testing.T) {
	s := NewAsyncSender(nil, nil, AsyncOptions{})
	assert.Equal(t, 10000, cap(s.queue))
	assert.Equal(t, 1, s.opts.Workers)
	assert.Equal(t, 50, s.opts.MaxBatch)
	assert.Equal(t, 20*time.Millisecond, s.opts.MaxWait)
}

func TestAsyncSender_EnqueueAfterClose(t *testing.T) {
	s := NewAsyncSender(nil, nil, AsyncOptions{QueueSize: 4})
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))
	assert.False(t, s.Enqueue(AsyncMessage{Value: []byte("late")}))
	// 重复 Close 不 panic
	require.NoError(t, s.Close(ctx))
}

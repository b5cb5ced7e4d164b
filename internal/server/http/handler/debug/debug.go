package debug

import (
	"context"
	"net/http"
	"time"

	"go-storefront/internal/config"
	"go-storefront/internal/consumer/auditlog"
	"go-storefront/internal/logging"
	"go-storefront/internal/util/retcode"

	"github.com/gin-gonic/gin"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	peekGroupID   = "storefront-audit-peek"
	defaultWaitMS = 1000
	maxPeekWaitMS = 10000
	minPeekWaitMS = 50
)

type Dependencies struct {
	Config *config.Config
	Logger *logging.Logger
}

type Handler struct{ d Dependencies }

func New(d Dependencies) *Handler { return &Handler{d: d} }

func clampWait(ms int) time.Duration {
	switch {
	case ms <= 0:
		ms = defaultWaitMS
	case ms < minPeekWaitMS:
		ms = minPeekWaitMS
	case ms > maxPeekWaitMS:
		ms = maxPeekWaitMS
	}
	return time.Duration(ms) * time.Millisecond
}

// PeekAudit GET /admin/Debug/peekAudit?wait_ms= 读取审计主题一条消息用于链路排查
// 使用独立 group，不影响正式消费者的 offset
func (h *Handler) PeekAudit(c *gin.Context) {
	cfg := h.d.Config
	if cfg == nil || !cfg.KafkaEnabled() {
		c.Set("resp", gin.H{"code": retcode.INVALID, "msg": "kafka 未配置"})
		c.Status(http.StatusOK)
		return
	}
	var q struct {
		WaitMS int `form:"wait_ms"`
	}
	_ = c.ShouldBindQuery(&q)
	ctx, cancel := context.WithTimeout(c.Request.Context(), clampWait(q.WaitMS))
	defer cancel()
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.AuditTopic,
		GroupID:  peekGroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
		MaxWait:  200 * time.Millisecond,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	if err != nil {
		logging.FromContext(c.Request.Context(), h.d.Logger).Info("audit_peek_timeout", zap.Error(err))
		c.Set("resp", gin.H{"code": retcode.DB_READ_ERROR, "msg": "读取超时或错误", "data": gin.H{"error": err.Error()}})
		c.Status(http.StatusOK)
		return
	}
	headers := make(map[string]string, len(msg.Headers))
	carrier := propagation.MapCarrier{}
	for _, hkv := range msg.Headers {
		headers[hkv.Key] = string(hkv.Value)
		carrier[hkv.Key] = string(hkv.Value)
	}
	sc := trace.SpanContextFromContext(otel.GetTextMapPropagator().Extract(ctx, carrier))
	var otelTrace, otelSpan string
	if sc.IsValid() {
		otelTrace, otelSpan = sc.TraceID().String(), sc.SpanID().String()
	}
	data := gin.H{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
		"key":       string(msg.Key),
		"headers":   headers,
		"otel": gin.H{
			"trace_id": otelTrace,
			"span_id":  otelSpan,
		},
		"raw_body": string(msg.Value),
	}
	if m, err := auditlog.Decode(msg.Value); err == nil {
		data["event"] = m
	}
	c.Set("resp", gin.H{"data": data})
	c.Status(http.StatusOK)
}

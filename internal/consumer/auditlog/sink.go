package auditlog

import (
	"context"
	"strconv"
	"time"

	"go-storefront/internal/logging"
	"go-storefront/internal/mq/kafka"
	"go-storefront/internal/service"

	"go.uber.org/zap"
)

type enqueuer interface {
	Enqueue(m kafka.AsyncMessage) bool
}

// KafkaSink 写入异步发送队列；队列满或已关闭时退回 Fallback 同步写
type KafkaSink struct {
	sender   enqueuer
	Fallback service.AuditSink
	Logger   *logging.Logger
	now      func() time.Time
}

func NewKafkaSink(sender *kafka.AsyncSender, fallback service.AuditSink, lg *logging.Logger) *KafkaSink {
	return newKafkaSink(sender, fallback, lg)
}

func newKafkaSink(sender enqueuer, fallback service.AuditSink, lg *logging.Logger) *KafkaSink {
	if lg == nil {
		lg = logging.NewNop()
	}
	return &KafkaSink{sender: sender, Fallback: fallback, Logger: lg, now: time.Now}
}

func (k *KafkaSink) Emit(ctx context.Context, e service.AuditEntry) error {
	traceID, _ := ctx.Value(logging.TraceIDKey).(string)
	b, err := FromEntry(e, traceID, k.now()).Encode()
	if err != nil {
		return err
	}
	var key []byte
	if e.AdminID != nil {
		key = []byte(strconv.FormatInt(*e.AdminID, 10))
	}
	headers := map[string]string{"log_type": string(e.LogType)}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	if k.sender.Enqueue(kafka.AsyncMessage{Ctx: ctx, Key: key, Value: b, Headers: headers}) {
		return nil
	}
	logging.FromContext(ctx, k.Logger).Warn("audit_enqueue_dropped", zap.String("category", e.Category))
	if k.Fallback != nil {
		return k.Fallback.Emit(ctx, e)
	}
	return nil
}

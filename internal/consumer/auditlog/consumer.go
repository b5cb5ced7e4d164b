package auditlog

import (
	"context"
	"errors"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/metrics"
	"go-storefront/internal/mq/kafka"
	"go-storefront/internal/service"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type auditWriter interface {
	LogAuditEvent(ctx context.Context, e service.AuditEntry) (*model.AuditEvent, error)
}

// Handler 把主题消息写入审计存储；解码失败或校验失败的消息记录后跳过
type Handler struct {
	Audit  auditWriter
	Logger *logging.Logger
}

func NewHandler(a *service.AuditService, lg *logging.Logger) *Handler {
	if lg == nil {
		lg = logging.NewNop()
	}
	return &Handler{Audit: a, Logger: lg}
}

func (h *Handler) Handle(ctx context.Context, msg kafkaGo.Message) error {
	lg := h.Logger.WithContext(ctx)
	m, err := Decode(msg.Value)
	if err != nil {
		metrics.AuditConsumed.WithLabelValues("skipped").Inc()
		lg.Warn("audit_message_undecodable", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}
	if m.TraceID != "" && ctx.Value(logging.TraceIDKey) == nil {
		ctx = context.WithValue(ctx, logging.TraceIDKey, m.TraceID)
	}
	if _, err := h.Audit.LogAuditEvent(ctx, m.Entry()); err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			metrics.AuditConsumed.WithLabelValues("skipped").Inc()
			lg.Warn("audit_message_invalid", zap.Int64("offset", msg.Offset), zap.String("field", ve.Field))
			return nil
		}
		metrics.AuditConsumed.WithLabelValues("error").Inc()
		return err
	}
	metrics.AuditConsumed.WithLabelValues("ok").Inc()
	return nil
}

// Run 阻塞消费直到 ctx 取消
func Run(ctx context.Context, c *kafka.Consumer, h *Handler) error {
	return c.Start(ctx, h.Handle)
}

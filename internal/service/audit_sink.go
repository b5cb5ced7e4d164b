package service

import "context"

// AuditSink 操作日志出口：Kafka 异步或直接落库
type AuditSink interface {
	Emit(ctx context.Context, e AuditEntry) error
}

// DirectSink 同步写入审计存储
type DirectSink struct {
	Audit *AuditService
}

func NewDirectSink(a *AuditService) *DirectSink { return &DirectSink{Audit: a} }

func (d *DirectSink) Emit(ctx context.Context, e AuditEntry) error {
	_, err := d.Audit.LogAuditEvent(ctx, e)
	return err
}

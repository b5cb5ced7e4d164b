package logging

import (
	"context"

	"go.uber.org/zap"
)

type Logger struct {
	*zap.Logger
}

func New(level, format string) (*Logger, error) {
	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if level != "" {
		if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}
	lg, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{lg}, nil
}

// NewNop 测试与可选组件使用
func NewNop() *Logger { return &Logger{zap.NewNop()} }

// Named 派生子 logger（例如 security_audit）
func (l *Logger) Named(name string) *Logger { return &Logger{l.Logger.Named(name)} }

type ctxKey string

const (
	TraceIDKey ctxKey = "trace_id"
	AdminIDKey ctxKey = "admin_id"
)

type loggerKey struct{}

// WithContext 附加 trace_id / admin_id 字段
func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return l.Logger
	}
	fields := make([]zap.Field, 0, 2)
	if v := ctx.Value(TraceIDKey); v != nil {
		if s, ok := v.(string); ok && s != "" {
			fields = append(fields, zap.String("trace_id", s))
		}
	}
	if v := ctx.Value(AdminIDKey); v != nil {
		if id, ok := v.(int64); ok && id > 0 {
			fields = append(fields, zap.Int64("admin_id", id))
		}
	}
	if len(fields) == 0 {
		return l.Logger
	}
	return l.Logger.With(fields...)
}

// IntoContext 将请求级 logger 放入 context
func IntoContext(ctx context.Context, lg *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, lg)
}

// FromContext 取请求级 logger，没有则退回 fallback
func FromContext(ctx context.Context, fallback *Logger) *zap.Logger {
	if ctx != nil {
		if lg, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && lg != nil {
			return lg
		}
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback.WithContext(ctx)
}

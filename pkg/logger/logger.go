// Package logger is the engine's structured logger: zap underneath, with
// request, tenant and operator fields pulled from the context.
package logger

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/tenant"
)

// Logger wraps zap.SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

type loggerKey struct{}

// Config holds logger configuration.
type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder with colors
	// Service is stamped on every line when set.
	Service string
}

// New builds a Logger from cfg. An unknown level falls back to info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Service != "" {
		zc.InitialFields = map[string]any{"service": cfg.Service}
	}

	zl, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{zl.Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

var fallback atomic.Pointer[Logger]

// SetDefault makes l the logger used for contexts that carry none.
func SetDefault(l *Logger) {
	fallback.Store(l)
}

// Default returns the logger registered with SetDefault, or a no-op one.
func Default() *Logger {
	if l := fallback.Load(); l != nil {
		return l
	}
	return Nop()
}

// contextFields collects the correlation fields present on ctx.
func contextFields(ctx context.Context) []any {
	var kv []any
	if r := appctx.RequestFrom(ctx); r != nil {
		kv = append(kv, "request_id", r.ID)
		if r.IdempotencyKey != "" {
			kv = append(kv, "idempotency_key", r.IdempotencyKey)
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		kv = append(kv, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	} else if r := appctx.RequestFrom(ctx); r != nil && r.TraceID != "" {
		kv = append(kv, "trace_id", r.TraceID)
	}
	if orgID, ok := tenant.OrgID(ctx); ok {
		kv = append(kv, "org_id", orgID.String())
	}
	if u := appctx.GetUser(ctx); u != nil {
		kv = append(kv, "user_id", u.UserID)
		if u.Privileged {
			kv = append(kv, "privileged", true)
		}
	}
	return kv
}

// WithContext adds the correlation fields of ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	kv := contextFields(ctx)
	if len(kv) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(kv...)}
}

// With adds key-value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{l.SugaredLogger.With(keysAndValues...)}
}

// WithComponent names the subsystem writing the line.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// WithLogger stores l on ctx.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger on ctx, enriched with its fields.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(loggerKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Debugw(msg, keysAndValues...)
}

func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}

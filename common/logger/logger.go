package logger

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

type requestIDCtxKey struct{}

// Initialize builds the process logger. Production gets JSON with ISO8601
// timestamps; anything else gets the colored development console. When
// shipWriter is non-nil every entry is also written to it as JSON.
func Initialize(env string, shipWriter io.Writer) (*zap.Logger, error) {
	if shipWriter == nil {
		return newConfig(env).Build()
	}
	return build(env, zapcore.Lock(os.Stdout), shipWriter), nil
}

func newConfig(env string) zap.Config {
	if env == "production" {
		config := zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return config
	}
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return config
}

// build tees stdout and shipWriter. stdout keeps the encoding Build would
// have chosen for env.
func build(env string, stdout zapcore.WriteSyncer, shipWriter io.Writer) *zap.Logger {
	config := newConfig(env)
	level := zap.NewAtomicLevelAt(config.Level.Level())

	var stdoutEncoder zapcore.Encoder
	if config.Encoding == "json" {
		stdoutEncoder = zapcore.NewJSONEncoder(config.EncoderConfig)
	} else {
		stdoutEncoder = zapcore.NewConsoleEncoder(config.EncoderConfig)
	}
	stdoutCore := zapcore.NewCore(stdoutEncoder, stdout, level)

	jsonConfig := config.EncoderConfig
	jsonConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	shipCore := zapcore.NewCore(zapcore.NewJSONEncoder(jsonConfig), zapcore.AddSync(shipWriter), level)

	return zap.New(zapcore.NewTee(stdoutCore, shipCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// WithRequestID stores the request id on ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, requestID)
}

// RequestID returns the request id stored on ctx, or "unknown".
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDCtxKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// FromContext returns base annotated with the request id carried by ctx.
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	return base.With(zap.String(RequestIDKey, RequestID(ctx)))
}

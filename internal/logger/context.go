package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	gatewayKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithGateway tags the payment gateway a request is talking to, so adapter
// and handler logs for one payment share the field.
func WithGateway(ctx context.Context, gateway string) context.Context {
	return context.WithValue(ctx, gatewayKey, gateway)
}

func GatewayFrom(ctx context.Context) string {
	gw, _ := ctx.Value(gatewayKey).(string)
	return gw
}

// FromCtx returns the global logger carrying request_id and gateway when ctx
// has them.
func FromCtx(ctx context.Context) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if id := RequestIDFrom(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if gw := GatewayFrom(ctx); gw != "" {
		fields = append(fields, zap.String("gateway", gw))
	}

	if len(fields) == 0 {
		return L()
	}
	return L().With(fields...)
}

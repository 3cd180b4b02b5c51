package http

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	requestIDContextKey contextKey = "guideco/request-id"
	clientIPContextKey  contextKey = "guideco/client-ip"
)

// RequestIDFromContext returns the identifier assigned to the current request, if any.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDContextKey)
}

// ClientIPFromContext returns the address the rate limiter keys the current request by.
func ClientIPFromContext(ctx context.Context) string {
	return stringValue(ctx, clientIPContextKey)
}

func withRequestMetadata(ctx context.Context, requestID, clientIP string) context.Context {
	ctx = context.WithValue(ctx, requestIDContextKey, requestID)
	return context.WithValue(ctx, clientIPContextKey, clientIP)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}

// requestFields are attached to every log entry written while serving a request.
func requestFields(ctx context.Context) logrus.Fields {
	fields := logrus.Fields{}
	if id := RequestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	if ip := ClientIPFromContext(ctx); ip != "" {
		fields["client_ip"] = ip
	}
	return fields
}

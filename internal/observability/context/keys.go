// Package context carries request-scoped identifiers used by logging and
// auditing.
package context

import "context"

type contextKey string

const (
	requestIDKey contextKey = "observability_request_id"
	actionKey    contextKey = "observability_action"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithAction records the dispatched action name for downstream log lines.
func WithAction(ctx context.Context, action string) context.Context {
	if ctx == nil || action == "" {
		return ctx
	}
	return context.WithValue(ctx, actionKey, action)
}

func ActionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(actionKey).(string)
	return value
}

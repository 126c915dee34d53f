package middleware

import "context"

type contextKey string

const ctxSessionToken contextKey = "session_token"

// SessionTokenFromContext returns the validated session token, or "" outside a session route.
func SessionTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionToken).(string); ok {
		return v
	}
	return ""
}

// WithSessionToken injects the session token into the context for downstream handlers.
func WithSessionToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionToken, token)
}

package reqctx

import (
	"context"
	"time"
)

type ctxKey int

const (
	keyRequestMeta ctxKey = iota
	keyPrincipal
	keyClinicScope
)

// RequestMeta is set for every HTTP request before routing.
type RequestMeta struct {
	RequestID   string
	ClientIP    string
	UserAgent   string
	RequestedAt time.Time
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, keyRequestMeta, meta)
}

func RequestMetaFromContext(ctx context.Context) (*RequestMeta, bool) {
	meta, ok := ctx.Value(keyRequestMeta).(*RequestMeta)
	return meta, ok && meta != nil
}

// RequestIDFromContext returns "" outside an HTTP request.
func RequestIDFromContext(ctx context.Context) string {
	if meta, ok := RequestMetaFromContext(ctx); ok {
		return meta.RequestID
	}
	return ""
}

// LogAttrs returns the request id, user and clinic known for ctx as
// alternating key/value pairs, ready for a slog record.
func LogAttrs(ctx context.Context) []any {
	var attrs []any
	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if s, ok := ClinicScopeFromContext(ctx); ok {
		return append(attrs, "user_id", s.UserID.String(), "clinic_id", s.ClinicID.String())
	}
	if p, ok := PrincipalFromContext(ctx); ok {
		attrs = append(attrs, "user_id", p.UserID.String())
	}
	return attrs
}

package core

import "context"

// RequestMeta identifies who made a request. The HTTP layer attaches it and
// the audit trail copies it onto every entry recorded under that request.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type requestMetaKey struct{}

// WithRequestMeta returns ctx carrying meta. Empty fields in meta keep the
// values already present in ctx.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	prev := RequestMetaFrom(ctx)
	if meta.IPAddress == "" {
		meta.IPAddress = prev.IPAddress
	}
	if meta.UserAgent == "" {
		meta.UserAgent = prev.UserAgent
	}
	if meta.RequestID == "" {
		meta.RequestID = prev.RequestID
	}
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the metadata attached by WithRequestMeta, or the
// zero value for background work such as session eviction.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	if ctx == nil {
		return RequestMeta{}
	}
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// fill copies request metadata onto an audit entry without overwriting
// fields the caller set.
func (m RequestMeta) fill(entry *AuditEntry) {
	if entry.IPAddress == "" {
		entry.IPAddress = m.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = m.UserAgent
	}
	if entry.RequestID == "" {
		entry.RequestID = m.RequestID
	}
}

package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// DetachTraceContext creates a new context.Background() that carries the
// span context from the original request. Background generation goroutines
// use this to create child spans linked to the HTTP request trace without
// inheriting its cancellation.
func DetachTraceContext(ctx context.Context) context.Context {
	return DetachTraceContextFrom(ctx, context.Background())
}

// DetachTraceContextFrom is DetachTraceContext with an explicit base
// context, so long-running work can still be cancelled at shutdown.
func DetachTraceContextFrom(ctx, base context.Context) context.Context {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return base
	}
	return trace.ContextWithRemoteSpanContext(base, sc)
}

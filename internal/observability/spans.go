package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/deskernel/kernel"
)

// EngineSpans implements kernel.SpanHooks on top of an OpenTelemetry
// Tracer, so Engine.Run and each dispatched event get their own span
// without the kernel package importing OpenTelemetry directly.
type EngineSpans struct {
	tracer trace.Tracer
	ctx    context.Context
}

// NewEngineSpans builds an EngineSpans backed by tracer. Spans are rooted
// in ctx; pass context.Background() if the embedder has no broader request
// context to attach Run to.
func NewEngineSpans(ctx context.Context, tracer trace.Tracer) *EngineSpans {
	if ctx == nil {
		ctx = context.Background()
	}
	return &EngineSpans{tracer: tracer, ctx: ctx}
}

// StartRun implements kernel.SpanHooks.
func (s *EngineSpans) StartRun() func() {
	_, span := s.tracer.Start(s.ctx, "engine.Run")
	return func() { span.End() }
}

// StartDispatch implements kernel.SpanHooks.
func (s *EngineSpans) StartDispatch(key kernel.EventKey) func() {
	_, span := s.tracer.Start(s.ctx, "engine.dispatch",
		trace.WithAttributes(
			attribute.Int64("deskernel.event.ns", int64(key.Ns)),
			attribute.String("deskernel.event.uid", fmt.Sprintf("%d", key.Uid)),
		),
	)
	return func() { span.End() }
}

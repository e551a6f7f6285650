// Package telemetry records spans and counters for classification, lookup and sync runs.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the engine's spans.
const TracerName = "notionstatus"

var _ ports.Tracer = (*Tracer)(nil)

// Tracer opens OpenTelemetry spans for engine operations.
type Tracer struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// NewTracer returns a Tracer on tp. A nil tp uses the global provider, so spans started
// before Setup installs one are delegated once it does.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// Shutdown flushes the provider installed by Setup. Other tracers have nothing to flush.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

// Start opens a span named name.
func (t *Tracer) Start(ctx context.Context, name string) (context.Context, ports.Span) {
	ctx, s := t.tracer.Start(ctx, name)
	return ctx, &span{span: s}
}

type span struct {
	span   trace.Span
	failed bool
}

// End marks spans without a recorded error as Ok.
func (s *span) End() {
	if !s.failed {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.failed = true
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *span) SetAttribute(key string, value any) {
	s.span.SetAttributes(toAttribute(key, value))
}

// toAttribute converts value to the closest attribute type. Durations are recorded in
// milliseconds; anything unknown falls back to its string form.
func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case time.Duration:
		return attribute.Int64(key, v.Milliseconds())
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}

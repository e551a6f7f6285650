package telemetry

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
)

// NoOpTracer starts spans that record nothing.
type NoOpTracer struct{}

// NewNoOpTracer returns a tracer that records nothing.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

// Start returns ctx unchanged and a span that records nothing.
func (t *NoOpTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, noOpSpan{}
}

type noOpSpan struct{}

func (noOpSpan) End()                     {}
func (noOpSpan) RecordError(error)        {}
func (noOpSpan) SetAttribute(string, any) {}

// NoOpMetrics discards every observation.
type NoOpMetrics struct{}

// ObserveClassification does nothing.
func (NoOpMetrics) ObserveClassification(string, string) {}

// ObserveLookup does nothing.
func (NoOpMetrics) ObserveLookup(string, error) {}

// ObserveSync does nothing.
func (NoOpMetrics) ObserveSync(string, bool, int) {}

// ObserveCache does nothing.
func (NoOpMetrics) ObserveCache(string, bool) {}

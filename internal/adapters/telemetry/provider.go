package telemetry

import (
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Setup installs a global TracerProvider that forwards finished spans to logger, plus any
// extra processors, and returns a tracer whose Shutdown flushes the provider.
func Setup(logger ports.Logger, extra ...sdktrace.SpanProcessor) *Tracer {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(NewBridge(logger)),
	}
	for _, p := range extra {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return &Tracer{
		tracer:   tp.Tracer(TracerName),
		shutdown: tp.Shutdown,
	}
}

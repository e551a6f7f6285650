package ports

import "context"

// Tracer starts spans around classification, lookup and sync operations.
//
//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks
type Tracer interface {
	// Start opens a span named name and returns a context carrying it.
	Start(ctx context.Context, name string) (context.Context, Span)
}

// Span is an in-progress unit of work.
type Span interface {
	// End completes the span.
	End()

	// RecordError marks the span as failed.
	RecordError(err error)

	// SetAttribute attaches a key/value pair to the span.
	SetAttribute(key string, value any)
}

// Metrics records counters for the engine's operations.
type Metrics interface {
	// ObserveClassification counts a finished classification by mode and resulting state.
	ObserveClassification(mode, state string)

	// ObserveLookup counts a remote query of the given kind and whether it failed.
	ObserveLookup(kind string, err error)

	// ObserveSync counts a sync run and the number of URLs it updated.
	ObserveSync(kind string, success bool, urls int)

	// ObserveCache counts a cache access and whether it hit.
	ObserveCache(op string, hit bool)
}

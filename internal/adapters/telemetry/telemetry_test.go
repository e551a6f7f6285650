package telemetry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/telemetry"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
)

type stateName string

func (s stateName) String() string { return "state:" + string(s) }

func setupRecorder(t *testing.T) (*tracetest.SpanRecorder, *telemetry.Tracer) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, telemetry.NewTracer(tp)
}

func TestTracer_Start(t *testing.T) {
	sr, tracer := setupRecorder(t)

	ctx, span := tracer.Start(context.Background(), "classify")
	require.NotNil(t, ctx)
	span.SetAttribute("url", "https://example.com")
	span.SetAttribute("variants", 4)
	span.SetAttribute("urls", int64(7))
	span.SetAttribute("ratio", 0.5)
	span.SetAttribute("aggressive", true)
	span.SetAttribute("probe", []string{"a", "b"})
	span.SetAttribute("state", stateName("GREEN"))
	span.SetAttribute("other", struct{ N int }{3})
	span.SetAttribute("elapsed", 1500*time.Millisecond)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "classify", spans[0].Name())

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "https://example.com", attrs["url"].AsString())
	assert.Equal(t, int64(4), attrs["variants"].AsInt64())
	assert.Equal(t, int64(7), attrs["urls"].AsInt64())
	assert.InDelta(t, 0.5, attrs["ratio"].AsFloat64(), 0)
	assert.True(t, attrs["aggressive"].AsBool())
	assert.Equal(t, []string{"a", "b"}, attrs["probe"].AsStringSlice())
	assert.Equal(t, "state:GREEN", attrs["state"].AsString())
	assert.Equal(t, "{3}", attrs["other"].AsString())
	assert.Equal(t, int64(1500), attrs["elapsed"].AsInt64())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestSpan_RecordError(t *testing.T) {
	sr, tracer := setupRecorder(t)

	_, span := tracer.Start(context.Background(), "lookup")
	span.RecordError(nil)
	span.RecordError(errors.New("notion query failed"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "notion query failed", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestTracer_ShutdownWithoutProvider(t *testing.T) {
	tracer := telemetry.NewTracer(nil)
	require.NoError(t, tracer.Shutdown(context.Background()))
}

func TestBridge_OnEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	var got []any
	log.EXPECT().Debug("span finished", gomock.Any()).Do(func(_ string, args ...any) {
		got = args
	}).Times(1)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(log)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "sync.delta")
	span.SetAttributes(attribute.Int("pages", 2))
	span.SetStatus(codes.Error, "")
	span.End()

	require.NotEmpty(t, got)
	assert.Equal(t, "span", got[0])
	assert.Equal(t, "sync.delta", got[1])
	assert.Contains(t, got, "pages")
	assert.Contains(t, got, int64(2))
	assert.Equal(t, "error", got[len(got)-2])
	assert.Equal(t, "span failed", got[len(got)-1])
}

func TestBridge_NilLogger(_ *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(nil)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	span.End()
}

func TestSetup(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug("span finished", gomock.Any()).Times(1)

	sr := tracetest.NewSpanRecorder()
	tracer := telemetry.Setup(log, sr)

	_, span := tracer.Start(context.Background(), "reconcile")
	span.End()

	require.Len(t, sr.Ended(), 1)
	require.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	got, span := tracer.Start(ctx, "noop")
	assert.Equal(t, ctx, got)
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()

	var m telemetry.NoOpMetrics
	m.ObserveClassification("cache_only", "GREEN")
	m.ObserveLookup("exists", nil)
	m.ObserveSync("full", true, 1)
	m.ObserveCache("get", true)
}

func TestPrometheus_Observe(t *testing.T) {
	m := telemetry.NewPrometheus()

	m.ObserveClassification("reconcile", "GREEN")
	m.ObserveClassification("reconcile", "GREEN")
	m.ObserveLookup("exists", nil)
	m.ObserveLookup("exists", errors.New("boom"))
	m.ObserveSync("delta", true, 5)
	m.ObserveSync("full", false, 0)
	m.ObserveCache("get", true)
	m.ObserveCache("get", false)
	m.ObserveCache("get", false)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Classifications.WithLabelValues("reconcile", "GREEN")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Lookups.WithLabelValues("exists", telemetry.ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Lookups.WithLabelValues("exists", telemetry.ResultFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Syncs.WithLabelValues("delta", telemetry.ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Syncs.WithLabelValues("full", telemetry.ResultFailure)), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.SyncURLs), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("get", telemetry.ResultHit)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheLookups.WithLabelValues("get", telemetry.ResultMiss)), 0)
}

func TestPrometheus_Handler(t *testing.T) {
	m := telemetry.NewPrometheus()
	m.ObserveClassification("cache_only", "RED")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `notionstatus_classifications_total{mode="cache_only",state="RED"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

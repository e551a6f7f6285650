package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

// Prometheus implements ports.Metrics on its own registry.
type Prometheus struct {
	registry        *prometheus.Registry
	Classifications *prometheus.CounterVec
	Lookups         *prometheus.CounterVec
	Syncs           *prometheus.CounterVec
	SyncURLs        prometheus.Counter
	CacheLookups    *prometheus.CounterVec
}

// NewPrometheus registers the notionstatus counters and the Go runtime collectors on a fresh registry.
func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Prometheus{
		registry: registry,
		Classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notionstatus_classifications_total",
				Help: "Total number of finished URL classifications.",
			},
			[]string{"mode", "state"},
		),
		Lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notionstatus_lookups_total",
				Help: "Total number of Notion database queries.",
			},
			[]string{"kind", "result"},
		),
		Syncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notionstatus_syncs_total",
				Help: "Total number of full and delta syncs.",
			},
			[]string{"kind", "result"},
		),
		SyncURLs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "notionstatus_sync_urls_updated_total",
				Help: "Total number of cache entries written by syncs.",
			},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notionstatus_cache_lookups_total",
				Help: "Total number of classification cache reads by outcome.",
			},
			[]string{"op", "result"},
		),
	}
}

// Registry returns the registry the counters are registered on.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// ObserveClassification counts a finished classification.
func (p *Prometheus) ObserveClassification(mode, state string) {
	p.Classifications.WithLabelValues(mode, state).Inc()
}

// ObserveLookup counts a Notion query.
func (p *Prometheus) ObserveLookup(kind string, err error) {
	p.Lookups.WithLabelValues(kind, result(err == nil)).Inc()
}

// ObserveSync counts a sync run and the URLs it wrote.
func (p *Prometheus) ObserveSync(kind string, success bool, urls int) {
	p.Syncs.WithLabelValues(kind, result(success)).Inc()
	if urls > 0 {
		p.SyncURLs.Add(float64(urls))
	}
}

// ObserveCache counts a cache read.
func (p *Prometheus) ObserveCache(op string, hit bool) {
	outcome := ResultMiss
	if hit {
		outcome = ResultHit
	}
	p.CacheLookups.WithLabelValues(op, outcome).Inc()
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

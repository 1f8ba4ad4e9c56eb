// Package monitoring exports package lifecycle counters to Prometheus.
package monitoring

import (
	"net/http"

	"github.com/l1jgo/uiasset/internal/core/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the lifecycle collectors. Counters are fed from bus
// events, so they trail the registry by at most one dispatch.
type Metrics struct {
	registry *prometheus.Registry

	PackageRequests    prometheus.Counter
	PackageLoads       *prometheus.CounterVec
	PackageUnloads     *prometheus.CounterVec
	PackagesLive       prometheus.Gauge
	StaleCompletions   *prometheus.CounterVec
	ContractViolations prometheus.Counter
	OrphanRequests     prometheus.Counter
	AssetsBound        prometheus.Gauge
	PumpDrained        prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,

		PackageRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "uiasset_package_requests_total",
			Help: "Package entries created",
		}),
		PackageLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uiasset_package_loads_total",
			Help: "Package loads resolved, by result",
		}, []string{"result"}),
		PackageUnloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uiasset_package_unloads_total",
			Help: "Package entries torn down, by mode",
		}, []string{"mode"}),
		PackagesLive: f.NewGauge(prometheus.GaugeOpts{
			Name: "uiasset_packages_live",
			Help: "Package entries currently tracked",
		}),
		StaleCompletions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uiasset_stale_completions_total",
			Help: "Load completions discarded because their entry was replaced",
		}, []string{"kind"}),
		ContractViolations: f.NewCounter(prometheus.CounterOpts{
			Name: "uiasset_contract_violations_total",
			Help: "Caller contract violations detected",
		}),
		OrphanRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "uiasset_orphan_asset_requests_total",
			Help: "Asset requests against unregistered packages",
		}),
		AssetsBound: f.NewGauge(prometheus.GaugeOpts{
			Name: "uiasset_assets_bound",
			Help: "Asset handles bound to a package",
		}),
		PumpDrained: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "uiasset_pump_drained",
			Help:    "Completions applied per loop pump",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
	}
}

// Subscribe feeds the collectors from b.
func (m *Metrics) Subscribe(b *event.Bus) {
	event.Subscribe(b, func(event.PackageRequested) {
		m.PackageRequests.Inc()
		m.PackagesLive.Inc()
	})
	event.Subscribe(b, func(event.PackageLoaded) {
		m.PackageLoads.WithLabelValues("loaded").Inc()
	})
	event.Subscribe(b, func(event.PackageLoadFailed) {
		m.PackageLoads.WithLabelValues("failed").Inc()
	})
	event.Subscribe(b, func(e event.PackageUnloaded) {
		mode := "normal"
		if e.Forced {
			mode = "forced"
		}
		m.PackageUnloads.WithLabelValues(mode).Inc()
		m.PackagesLive.Dec()
	})
	event.Subscribe(b, func(e event.StaleCompletion) {
		m.StaleCompletions.WithLabelValues(e.Kind).Inc()
	})
	event.Subscribe(b, func(event.ContractViolation) {
		m.ContractViolations.Inc()
	})
	event.Subscribe(b, func(event.OrphanAssetRequest) {
		m.OrphanRequests.Inc()
	})
	event.Subscribe(b, func(event.AssetBound) {
		m.AssetsBound.Inc()
	})
	event.Subscribe(b, func(event.AssetDisposed) {
		m.AssetsBound.Dec()
	})
}

// ObservePump records one drain of the completion queue.
func (m *Metrics) ObservePump(n int) {
	m.PumpDrained.Observe(float64(n))
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

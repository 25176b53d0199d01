// Package metrics exposes Prometheus metrics for the shop server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prefix is prepended to every metric name.
const Prefix = "brickshop"

// Metrics holds the collectors registered on one registry. It implements
// core.Observer so the service can report loads and cart saves.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	catalogLoads        *prometheus.CounterVec
	catalogProducts     prometheus.Gauge
	cartSaves           *prometheus.CounterVec
	cartRestored        prometheus.Gauge
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: Prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    Prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		catalogLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: Prefix + "_catalog_loads_total",
				Help: "Catalog loads by outcome",
			},
			[]string{"outcome"},
		),
		catalogProducts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: Prefix + "_catalog_products",
				Help: "Products in the most recently loaded catalog",
			},
		),
		cartSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: Prefix + "_cart_saves_total",
				Help: "Cart persistence attempts by outcome",
			},
			[]string{"outcome"},
		),
		cartRestored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: Prefix + "_cart_restored_entries",
				Help: "Entries restored from persisted cart state at startup",
			},
		),
	}
}

// RegisterGauge adds a gauge whose value is read at scrape time.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{Name: Prefix + "_" + name, Help: help},
		fn,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

func (m *Metrics) CatalogLoaded(_ string, products int, err error) {
	if err != nil {
		m.catalogLoads.WithLabelValues("error").Inc()
		return
	}
	m.catalogLoads.WithLabelValues("ok").Inc()
	m.catalogProducts.Set(float64(products))
}

func (m *Metrics) CartSaved(err error) {
	m.cartSaves.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) CartRestored(entries int, _ error) {
	m.cartRestored.Set(float64(entries))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Package kprom provides prometheus plug-in metrics for a kmark.Manager.
//
// This package tracks the following metrics under the following names:
//
//	#{ns}_broker_adds_total{node_id="#{node}"}
//	#{ns}_broker_updates_total{node_id="#{node}"}
//	#{ns}_markers_enqueued_total{node_id="#{node}"}
//	#{ns}_drains_total{node_id="#{node}"}
//	#{ns}_drained_requests_total{node_id="#{node}"}
//	#{ns}_drained_markers_total{node_id="#{node}"}
//	#{ns}_markers_complete_total{node_id="#{node}"}
//	#{ns}_markers_failed_total{node_id="#{node}"}
//	#{ns}_partition_releases_total
//	#{ns}_released_batches_total
//	#{ns}_released_pending_total
//
// This can be used in a manager like so:
//
//	metrics := kprom.NewMetrics("kmark")
//	m, err := kmark.NewManager[txnState](meta,
//	        kmark.WithHooks(metrics),
//	        // ...other opts
//	)
//
// By default, metrics are installed under a new prometheus registry, but
// this can be overridden with the Registry option.
package kprom

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twmb/kmark/pkg/kmark"
)

var ( // interface checks to ensure we implement the hooks properly
	_ kmark.HookBrokerAdd        = new(Metrics)
	_ kmark.HookBrokerUpdate     = new(Metrics)
	_ kmark.HookMarkersEnqueued  = new(Metrics)
	_ kmark.HookDrain            = new(Metrics)
	_ kmark.HookMarkersComplete  = new(Metrics)
	_ kmark.HookMarkersFailed    = new(Metrics)
	_ kmark.HookPartitionRelease = new(Metrics)
)

// Metrics provides prometheus metrics to a given registry.
type Metrics struct {
	cfg cfg

	brokerAdds    *prometheus.CounterVec
	brokerUpdates *prometheus.CounterVec

	markersEnqueued *prometheus.CounterVec

	drains          *prometheus.CounterVec
	drainedRequests *prometheus.CounterVec
	drainedMarkers  *prometheus.CounterVec

	markersComplete *prometheus.CounterVec
	markersFailed   *prometheus.CounterVec

	partitionReleases prometheus.Counter
	releasedBatches   prometheus.Counter
	releasedPending   prometheus.Counter
}

// Registry returns the prometheus registry that metrics were added to.
//
// This is useful if you want the Metrics type to create its own registry for
// you to add additional metrics to.
func (m *Metrics) Registry() prometheus.Registerer {
	return m.cfg.reg
}

// Handler returns an http.Handler providing prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.cfg.gatherer, m.cfg.handlerOpts)
}

type cfg struct {
	namespace string

	reg      prometheus.Registerer
	gatherer prometheus.Gatherer

	handlerOpts promhttp.HandlerOpts
}

// RegistererGatherer combines the prometheus Registerer and Gatherer
// interfaces.
type RegistererGatherer interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// Opt applies options to further tune how prometheus metrics are gathered.
type Opt interface {
	apply(*cfg)
}

type opt struct{ fn func(*cfg) }

func (o opt) apply(c *cfg) { o.fn(c) }

// Registry sets the registerer and gatherer to add metrics to, rather than a
// new registry.
func Registry(rg RegistererGatherer) Opt {
	return opt{func(c *cfg) {
		c.reg = rg
		c.gatherer = rg
	}}
}

// HandlerOpts sets handler options to use if you wish to use the
// Metrics.Handler function.
//
// This is only useful if you both (a) do not want to provide your own
// registry and (b) want to override the default handler options.
func HandlerOpts(opts promhttp.HandlerOpts) Opt {
	return opt{func(c *cfg) { c.handlerOpts = opts }}
}

// NewMetrics returns a new Metrics that adds prometheus metrics to the
// registry under the given namespace.
func NewMetrics(namespace string, opts ...Opt) *Metrics {
	var regGatherer RegistererGatherer = prometheus.NewRegistry()
	cfg := cfg{
		namespace: namespace,
		reg:       regGatherer,
		gatherer:  regGatherer,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	factory := promauto.With(cfg.reg)

	return &Metrics{
		cfg: cfg,

		brokerAdds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_adds_total",
			Help:      "Total number of destination brokers registered, by broker",
		}, []string{"node_id"}),

		brokerUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_updates_total",
			Help:      "Total number of destination endpoint replacements, by broker",
		}, []string{"node_id"}),

		markersEnqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_enqueued_total",
			Help:      "Total number of markers enqueued for dispatch, by broker",
		}, []string{"node_id"}),

		drains: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drains_total",
			Help:      "Total number of queue drains, by broker",
		}, []string{"node_id"}),

		drainedRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drained_requests_total",
			Help:      "Total number of outbound marker requests assembled, by broker",
		}, []string{"node_id"}),

		drainedMarkers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drained_markers_total",
			Help:      "Total number of markers drained into outbound requests, by broker",
		}, []string{"node_id"}),

		markersComplete: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_complete_total",
			Help:      "Total number of producers whose markers were fully applied, by broker",
		}, []string{"node_id"}),

		markersFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_failed_total",
			Help:      "Total number of markers that failed or were rejected, by broker",
		}, []string{"node_id"}),

		partitionReleases: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_releases_total",
			Help:      "Total number of coordinator partition releases",
		}),

		releasedBatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "released_batches_total",
			Help:      "Total number of queued batches discarded by partition releases",
		}),

		releasedPending: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "released_pending_total",
			Help:      "Total number of pending ledger entries discarded by partition releases",
		}),
	}
}

func nodeLabel(node int32) string { return strconv.Itoa(int(node)) }

// OnBrokerAdd implements kmark.HookBrokerAdd.
func (m *Metrics) OnBrokerAdd(node int32, _ kmark.BrokerEndpoint) {
	m.brokerAdds.WithLabelValues(nodeLabel(node)).Inc()
}

// OnBrokerUpdate implements kmark.HookBrokerUpdate.
func (m *Metrics) OnBrokerUpdate(node int32, _ kmark.BrokerEndpoint) {
	m.brokerUpdates.WithLabelValues(nodeLabel(node)).Inc()
}

// OnMarkersEnqueued implements kmark.HookMarkersEnqueued.
func (m *Metrics) OnMarkersEnqueued(node int32, _ int32, markers int) {
	m.markersEnqueued.WithLabelValues(nodeLabel(node)).Add(float64(markers))
}

// OnDrain implements kmark.HookDrain.
func (m *Metrics) OnDrain(node int32, sends, markers int) {
	label := nodeLabel(node)
	m.drains.WithLabelValues(label).Inc()
	m.drainedRequests.WithLabelValues(label).Add(float64(sends))
	m.drainedMarkers.WithLabelValues(label).Add(float64(markers))
}

// OnMarkersComplete implements kmark.HookMarkersComplete.
func (m *Metrics) OnMarkersComplete(node int32, _ int64) {
	m.markersComplete.WithLabelValues(nodeLabel(node)).Inc()
}

// OnMarkersFailed implements kmark.HookMarkersFailed.
func (m *Metrics) OnMarkersFailed(node int32, markers int, _ error) {
	m.markersFailed.WithLabelValues(nodeLabel(node)).Add(float64(markers))
}

// OnPartitionRelease implements kmark.HookPartitionRelease.
func (m *Metrics) OnPartitionRelease(_ int32, droppedBatches, droppedPending int) {
	m.partitionReleases.Inc()
	m.releasedBatches.Add(float64(droppedBatches))
	m.releasedPending.Add(float64(droppedPending))
}

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles the Prometheus metrics of a simulation run. It
// satisfies core.MetricsRecorder so the engine can drive it directly.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks            prometheus.Counter
	TickDurations    prometheus.Histogram
	SimTime          prometheus.Gauge
	Contacts         prometheus.Gauge
	LinkEvaluations  *prometheus.CounterVec
	Nodes            prometheus.Gauge
	CatalogFiles     prometheus.Gauge
	CatalogBytes     prometheus.Gauge
	NodeInitialFiles prometheus.Histogram
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Registering twice on the same registry reuses the existing collectors.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Number of mobility/contact evaluation ticks executed.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}
	tickDurations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall-clock time spent evaluating one tick.",
		Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}), "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}
	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_time_seconds",
		Help: "Current simulated time.",
	}), "sim_time_seconds")
	if err != nil {
		return nil, err
	}
	contacts, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_contacts",
		Help: "Node pairs in contact at the latest tick.",
	}), "sim_contacts")
	if err != nil {
		return nil, err
	}
	evaluations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_link_evaluations_total",
		Help: "Node pair evaluations, labeled by outcome (up, out_of_range, faded).",
	}, []string{"result"}), "sim_link_evaluations_total")
	if err != nil {
		return nil, err
	}
	nodes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_nodes",
		Help: "Number of simulated mobile nodes.",
	}), "sim_nodes")
	if err != nil {
		return nil, err
	}
	catalogFiles, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_catalog_files",
		Help: "Number of files in the content catalog.",
	}), "sim_catalog_files")
	if err != nil {
		return nil, err
	}
	catalogBytes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_catalog_bytes",
		Help: "Total size of the content catalog in bytes.",
	}), "sim_catalog_bytes")
	if err != nil {
		return nil, err
	}
	nodeFiles, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_node_initial_files",
		Help:    "Number of files each node starts with.",
		Buckets: prometheus.LinearBuckets(0, 2, 11),
	}), "sim_node_initial_files")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:         gatherer,
		Ticks:            ticks,
		TickDurations:    tickDurations,
		SimTime:          simTime,
		Contacts:         contacts,
		LinkEvaluations:  evaluations,
		Nodes:            nodes,
		CatalogFiles:     catalogFiles,
		CatalogBytes:     catalogBytes,
		NodeInitialFiles: nodeFiles,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetCatalog records the catalog size once it is built.
func (c *SimCollector) SetCatalog(files int, bytes int64) {
	if c == nil {
		return
	}
	c.CatalogFiles.Set(float64(files))
	c.CatalogBytes.Set(float64(bytes))
}

// SetNodes records the node count.
func (c *SimCollector) SetNodes(n int) {
	if c == nil {
		return
	}
	c.Nodes.Set(float64(n))
}

// ObserveNodeFiles records one node's initial inventory size.
func (c *SimCollector) ObserveNodeFiles(count int) {
	if c == nil {
		return
	}
	c.NodeInitialFiles.Observe(float64(count))
}

// ObserveTick records one evaluated tick.
func (c *SimCollector) ObserveTick(simTime, elapsed time.Duration, up, outOfRange, faded int) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.TickDurations.Observe(elapsed.Seconds())
	c.SimTime.Set(simTime.Seconds())
	c.Contacts.Set(float64(up))
	c.LinkEvaluations.WithLabelValues("up").Add(float64(up))
	c.LinkEvaluations.WithLabelValues("out_of_range").Add(float64(outOfRange))
	c.LinkEvaluations.WithLabelValues("faded").Add(float64(faded))
}

// Package metrics exposes garden activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neomorfeo/lifegarden/internal/app"
	"github.com/neomorfeo/lifegarden/internal/domain"
)

const namespace = "lifegarden"

// Registry owns the process's Prometheus collectors.
type Registry struct {
	reg    *prometheus.Registry
	events *prometheus.CounterVec
}

// New creates a registry with the Go runtime and process collectors and the
// plant event counter.
func New() *Registry {
	reg := prometheus.NewRegistry()
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plant_events_total",
		Help:      "Plant events published, by event and result.",
	}, []string{"event", "result"})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		events,
	)
	return &Registry{reg: reg, events: events}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// StatsSource reports garden-wide counts.
type StatsSource interface {
	Stats(ctx context.Context) (app.GardenStats, error)
}

// WatchGarden registers gauges that read src on every scrape.
func (r *Registry) WatchGarden(src StatsSource) error {
	return r.reg.Register(newGardenCollector(src))
}

// Compile-time check: CountingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*CountingPublisher)(nil)

// CountingPublisher counts events on their way to the next publisher.
type CountingPublisher struct {
	next   domain.EventPublisher
	events *prometheus.CounterVec
}

// CountingPublisher wraps next so that every Publish is counted in r.
func (r *Registry) CountingPublisher(next domain.EventPublisher) *CountingPublisher {
	return &CountingPublisher{next: next, events: r.events}
}

func (p *CountingPublisher) Publish(ctx context.Context, event domain.Event, plant domain.Plant) error {
	err := p.next.Publish(ctx, event, plant)
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.events.WithLabelValues(string(event), result).Inc()
	return err
}

// gardenCollector turns GardenStats into gauges at scrape time.
type gardenCollector struct {
	src    StatsSource
	areals *prometheus.Desc
	plants *prometheus.Desc
	errors *prometheus.Desc
}

// scrapeTimeout bounds the store read made for one scrape.
const scrapeTimeout = 5 * time.Second

func newGardenCollector(src StatsSource) *gardenCollector {
	return &gardenCollector{
		src: src,
		areals: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "garden", "areals"),
			"Number of areals in the garden.", nil, nil,
		),
		plants: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "garden", "plants"),
			"Number of plants in the garden, by health.", []string{"health"}, nil,
		),
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "garden", "scrape_error"),
			"1 if reading garden stats failed during this scrape.", nil, nil,
		),
	}
}

func (c *gardenCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.areals
	ch <- c.plants
	ch <- c.errors
}

func (c *gardenCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	stats, err := c.src.Stats(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.GaugeValue, 1)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.GaugeValue, 0)
	ch <- prometheus.MustNewConstMetric(c.areals, prometheus.GaugeValue, float64(stats.Areals))
	ch <- prometheus.MustNewConstMetric(c.plants, prometheus.GaugeValue, float64(stats.Healthy), string(domain.HealthHealthy))
	ch <- prometheus.MustNewConstMetric(c.plants, prometheus.GaugeValue, float64(stats.Okay), string(domain.HealthOkay))
	ch <- prometheus.MustNewConstMetric(c.plants, prometheus.GaugeValue, float64(stats.Dead), string(domain.HealthDead))
}

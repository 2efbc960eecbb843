// Package metrics exposes Prometheus metrics for the control plane:
// event volume per workflow, live conference sessions and uptime.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LiveConferenceCounter returns the number of live conference sessions.
type LiveConferenceCounter interface {
	CountAllLive(ctx context.Context) (int64, error)
}

// Collector is a prometheus.Collector gathering control plane metrics at
// scrape time. It also implements the dispatch layer's event observer.
type Collector struct {
	conferences LiveConferenceCounter
	startTime   time.Time

	mu     sync.Mutex
	events map[string]uint64

	eventsDesc      *prometheus.Desc
	conferencesDesc *prometheus.Desc
	uptimeDesc      *prometheus.Desc
}

// NewCollector creates a new metrics collector. conferences may be nil if
// unavailable.
func NewCollector(conferences LiveConferenceCounter, startTime time.Time) *Collector {
	return &Collector{
		conferences: conferences,
		startTime:   startTime,
		events:      make(map[string]uint64),

		eventsDesc: prometheus.NewDesc(
			"pbxgate_events_total",
			"Total switch events dispatched, by workflow handler",
			[]string{"handler"}, nil,
		),
		conferencesDesc: prometheus.NewDesc(
			"pbxgate_conference_sessions_live",
			"Number of currently live conference sessions",
			nil, nil,
		),
		uptimeDesc: prometheus.NewDesc(
			"pbxgate_uptime_seconds",
			"Seconds since the pbxgate process started",
			nil, nil,
		),
	}
}

// ObserveEvent counts one dispatched event for the named handler.
func (c *Collector) ObserveEvent(handler string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[handler]++
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.eventsDesc
	ch <- c.conferencesDesc
	ch <- c.uptimeDesc
}

// Collect implements prometheus.Collector. It queries providers at scrape time.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.mu.Lock()
	for handler, count := range c.events {
		ch <- prometheus.MustNewConstMetric(
			c.eventsDesc, prometheus.CounterValue,
			float64(count), handler,
		)
	}
	c.mu.Unlock()

	if c.conferences != nil {
		count, err := c.conferences.CountAllLive(ctx)
		if err != nil {
			slog.Error("metrics: failed to count live conference sessions", "error", err)
		} else {
			ch <- prometheus.MustNewConstMetric(
				c.conferencesDesc, prometheus.GaugeValue,
				float64(count),
			)
		}
	}

	ch <- prometheus.MustNewConstMetric(
		c.uptimeDesc, prometheus.GaugeValue,
		time.Since(c.startTime).Seconds(),
	)
}

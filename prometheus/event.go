package prometheus

import (
	"github.com/ezshield/logrelay/event"

	"github.com/prometheus/client_golang/prometheus"
)

// EventCollector counts the events of the relay.
type EventCollector interface {
	prometheus.Collector
	Observe(e *event.RelayEvent)
}

type eventCollector struct {
	events        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

func NewEventCollector(id string) EventCollector {
	c := &eventCollector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "logrelay_events_total",
			Help:        "Number of events by kind",
			ConstLabels: prometheus.Labels{"id": id},
		}, []string{"kind", "level"}),
	}

	c.cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "logrelay_cycle_duration_seconds",
		Help:        "Duration of the cycles",
		ConstLabels: prometheus.Labels{"id": id},
		Buckets:     []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})

	return c
}

func (c *eventCollector) Observe(e *event.RelayEvent) {
	c.events.WithLabelValues(string(e.Kind), e.Level).Inc()

	if e.Kind != event.KindCycleFinished {
		return
	}

	if d, ok := e.Data["duration_sec"].(float64); ok {
		c.cycleDuration.Observe(d)
	}
}

func (c *eventCollector) Describe(ch chan<- *prometheus.Desc) {
	c.events.Describe(ch)
	c.cycleDuration.Describe(ch)
}

func (c *eventCollector) Collect(ch chan<- prometheus.Metric) {
	c.events.Collect(ch)
	c.cycleDuration.Collect(ch)
}

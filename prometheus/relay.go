package prometheus

import (
	"github.com/ezshield/logrelay/relay/store"
	timesrc "github.com/ezshield/logrelay/time"

	"github.com/prometheus/client_golang/prometheus"
)

// StateReader returns the current state of the relay.
type StateReader func() store.State

type relayCollector struct {
	id             string
	state          StateReader
	pullRetryLimit int
	pushRetryLimit int
	clock          timesrc.Source

	uptimeDesc        *prometheus.Desc
	lastCycleDesc     *prometheus.Desc
	lastCycleFailDesc *prometheus.Desc
	filesDesc         *prometheus.Desc
	pullAttemptsDesc  *prometheus.Desc
	pushAttemptsDesc  *prometheus.Desc
}

// NewRelayCollector returns a collector for the state of the relay. The
// retry limits are needed to tell exhausted files apart.
func NewRelayCollector(id string, state StateReader, pullRetryLimit, pushRetryLimit int, clock timesrc.Source) prometheus.Collector {
	if clock == nil {
		clock = &timesrc.StdSource{}
	}

	return &relayCollector{
		id:             id,
		state:          state,
		pullRetryLimit: pullRetryLimit,
		pushRetryLimit: pushRetryLimit,
		clock:          clock,
		uptimeDesc: prometheus.NewDesc(
			"logrelay_uptime_seconds",
			"Number of seconds the relay is up",
			[]string{"id"}, nil),
		lastCycleDesc: prometheus.NewDesc(
			"logrelay_last_cycle_timestamp_seconds",
			"Unix time of the start of the last cycle",
			[]string{"id"}, nil),
		lastCycleFailDesc: prometheus.NewDesc(
			"logrelay_last_cycle_failed",
			"Whether the last cycle has been aborted",
			[]string{"id"}, nil),
		filesDesc: prometheus.NewDesc(
			"logrelay_files",
			"Number of known log files by status",
			[]string{"id", "status"}, nil),
		pullAttemptsDesc: prometheus.NewDesc(
			"logrelay_pull_attempts",
			"Number of pull attempts of all known log files",
			[]string{"id"}, nil),
		pushAttemptsDesc: prometheus.NewDesc(
			"logrelay_push_attempts",
			"Number of push attempts of all known log files",
			[]string{"id"}, nil),
	}
}

func (c *relayCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.uptimeDesc
	ch <- c.lastCycleDesc
	ch <- c.lastCycleFailDesc
	ch <- c.filesDesc
	ch <- c.pullAttemptsDesc
	ch <- c.pushAttemptsDesc
}

func (c *relayCollector) Collect(ch chan<- prometheus.Metric) {
	state := c.state()

	uptime := 0.0
	if state.StartupTime != nil {
		uptime = c.clock.Now().Sub(*state.StartupTime).Seconds()
	}

	ch <- prometheus.MustNewConstMetric(c.uptimeDesc, prometheus.CounterValue, uptime, c.id)

	lastCycle := 0.0
	if state.LastCycleTime != nil {
		lastCycle = float64(state.LastCycleTime.Unix())
	}

	ch <- prometheus.MustNewConstMetric(c.lastCycleDesc, prometheus.GaugeValue, lastCycle, c.id)

	failed := 0.0
	if len(state.LastCycleError) != 0 {
		failed = 1
	}

	ch <- prometheus.MustNewConstMetric(c.lastCycleFailDesc, prometheus.GaugeValue, failed, c.id)

	files := map[string]float64{
		"pending":        0,
		"pull_failed":    0,
		"pull_exhausted": 0,
		"pulled":         0,
		"pushed":         0,
		"push_failed":    0,
	}

	pulls, pushes := 0, 0

	for _, f := range state.Files {
		files[f.Status(c.pullRetryLimit, c.pushRetryLimit)]++
		pulls += f.Pull.Count
		pushes += f.Push.Count
	}

	for status, n := range files {
		ch <- prometheus.MustNewConstMetric(c.filesDesc, prometheus.GaugeValue, n, c.id, status)
	}

	ch <- prometheus.MustNewConstMetric(c.pullAttemptsDesc, prometheus.CounterValue, float64(pulls), c.id)
	ch <- prometheus.MustNewConstMetric(c.pushAttemptsDesc, prometheus.CounterValue, float64(pushes), c.id)
}

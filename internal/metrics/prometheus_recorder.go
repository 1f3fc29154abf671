package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "onboard"

// Modes reported by the mode gauge. Exactly one is set to 1 at a time.
var knownModes = []string{"booting", "factory_resetting", "provisioning", "connected"}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	boots             prom.Counter
	mode              *prom.GaugeVec
	joins             *prom.CounterVec
	joinDuration      prom.Histogram
	heartbeats        *prom.CounterVec
	heartbeatDuration prom.Histogram
	submissions       *prom.CounterVec
	factoryResets     prom.Counter
	portalRequests    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the agent metrics on reg.
// A nil registry gets a private one, which is only useful in tests.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		boots: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "boots_total",
			Help:      "Boot sequences started in this process",
		}),
		mode: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "mode",
			Help:      "Current agent mode (1 for the active mode)",
		}, []string{"mode"}),
		joins: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "wifi_joins_total",
			Help:      "Wireless join attempts by outcome",
		}, []string{"outcome"}),
		joinDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "wifi_join_duration_seconds",
			Help:      "Duration of wireless join attempts",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30},
		}),
		heartbeats: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_total",
			Help:      "Heartbeat ticks by outcome",
		}, []string{"outcome"}),
		heartbeatDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "heartbeat_duration_seconds",
			Help:      "Duration of heartbeat requests",
			Buckets:   prom.DefBuckets,
		}),
		submissions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "portal_submissions_total",
			Help:      "Credential submissions by outcome",
		}, []string{"outcome"}),
		factoryResets: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "factory_resets_total",
			Help:      "Factory resets performed",
		}),
		portalRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "portal_requests_total",
			Help:      "Captive portal HTTP requests by route and status",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(pr.boots, pr.mode, pr.joins, pr.joinDuration, pr.heartbeats,
		pr.heartbeatDuration, pr.submissions, pr.factoryResets, pr.portalRequests)
	return pr
}

func (p *PrometheusRecorder) IncBoot() {
	if p == nil {
		return
	}
	p.boots.Inc()
}

func (p *PrometheusRecorder) SetMode(mode string) {
	if p == nil {
		return
	}
	for _, m := range knownModes {
		p.mode.WithLabelValues(m).Set(0)
	}
	p.mode.WithLabelValues(mode).Set(1)
}

func (p *PrometheusRecorder) IncJoin(outcome string) {
	if p == nil {
		return
	}
	p.joins.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveJoinDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.joinDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncHeartbeat(outcome string) {
	if p == nil {
		return
	}
	p.heartbeats.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveHeartbeatDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.heartbeatDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSubmission(outcome string) {
	if p == nil {
		return
	}
	p.submissions.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncFactoryReset() {
	if p == nil {
		return
	}
	p.factoryResets.Inc()
}

func (p *PrometheusRecorder) IncPortalRequest(route string, status int) {
	if p == nil {
		return
	}
	p.portalRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

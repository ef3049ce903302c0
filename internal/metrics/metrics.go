package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pulse"

// Metrics groups all instruments of one sync client. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ConnectionState     prometheus.Gauge
	ReconnectsScheduled prometheus.Counter
	ReconnectGiveUps    prometheus.Counter
	Heartbeats          *prometheus.CounterVec
	MessagesRouted      *prometheus.CounterVec
	DecodeErrors        prometheus.Counter
	UpdatesDiscarded    *prometheus.CounterVec
	PullDuration        *prometheus.HistogramVec
	PullFailures        *prometheus.CounterVec
	AlertsReceived      *prometheus.CounterVec
	ErrorsShown         prometheus.Counter
}

// New creates and registers all instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ConnectionState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "push_connection_state",
			Help:      "Push channel state (0=disconnected, 1=connecting, 2=connected, 3=closing).",
		}),
		ReconnectsScheduled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_reconnects_scheduled_total",
			Help:      "Reconnect attempts scheduled after a close or dial failure.",
		}),
		ReconnectGiveUps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_reconnect_give_ups_total",
			Help:      "Times the reconnect budget was exhausted.",
		}),
		Heartbeats: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_heartbeats_total",
			Help:      "Heartbeat frames by status.",
		}, []string{"status"}),
		MessagesRouted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_routed_total",
			Help:      "Updates dispatched by source and tag.",
		}, []string{"source", "tag"}),
		DecodeErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_decode_errors_total",
			Help:      "Inbound push frames dropped as malformed.",
		}),
		UpdatesDiscarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_discarded_total",
			Help:      "Updates discarded before dispatch by reason.",
		}, []string{"reason"}),
		PullDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pull_duration_seconds",
			Help:      "Pull attempt latency by category.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"category"}),
		PullFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pull_failures_total",
			Help:      "Pull attempts that failed by category.",
		}, []string{"category"}),
		AlertsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_received_total",
			Help:      "Alerts inserted into the buffer by severity.",
		}, []string{"severity"}),
		ErrorsShown: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_shown_total",
			Help:      "Transient error banners shown.",
		}),
	}
}

// SetConnectionState records the push channel state as its numeric value.
func (m *Metrics) SetConnectionState(state int) {
	if m == nil {
		return
	}
	m.ConnectionState.Set(float64(state))
}

func (m *Metrics) ReconnectScheduled() {
	if m == nil {
		return
	}
	m.ReconnectsScheduled.Inc()
}

func (m *Metrics) ReconnectGaveUp() {
	if m == nil {
		return
	}
	m.ReconnectGiveUps.Inc()
}

// Heartbeat counts one heartbeat send.
func (m *Metrics) Heartbeat(err error) {
	if m == nil {
		return
	}
	m.Heartbeats.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) MessageRouted(source, tag string) {
	if m == nil {
		return
	}
	m.MessagesRouted.WithLabelValues(source, tag).Inc()
}

func (m *Metrics) DecodeError() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}

// Discarded counts an update dropped before dispatch ("stale" or
// "foreign_symbol").
func (m *Metrics) Discarded(reason string) {
	if m == nil {
		return
	}
	m.UpdatesDiscarded.WithLabelValues(reason).Inc()
}

// ObservePull records one pull attempt.
func (m *Metrics) ObservePull(category string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.PullDuration.WithLabelValues(category).Observe(elapsed.Seconds())
	if err != nil {
		m.PullFailures.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) AlertReceived(severity string) {
	if m == nil {
		return
	}
	m.AlertsReceived.WithLabelValues(severity).Inc()
}

func (m *Metrics) ErrorShown() {
	if m == nil {
		return
	}
	m.ErrorsShown.Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

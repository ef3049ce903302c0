package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersWithoutConflicts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	// A second set on the same registry must collide.
	assert.Panics(t, func() { New(reg) })

	// Separate registries are independent.
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ReconnectScheduled()
	m.ReconnectScheduled()
	m.ReconnectGaveUp()
	m.Heartbeat(nil)
	m.Heartbeat(errors.New("broken pipe"))
	m.Heartbeat(nil)
	m.MessageRouted("push", "market")
	m.MessageRouted("pull", "market")
	m.MessageRouted("push", "market")
	m.DecodeError()
	m.Discarded("stale")
	m.AlertReceived("high")
	m.ErrorShown()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReconnectsScheduled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconnectGiveUps))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Heartbeats.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Heartbeats.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesRouted.WithLabelValues("push", "market")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesRouted.WithLabelValues("pull", "market")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesDiscarded.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsReceived.WithLabelValues("high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsShown))
}

func TestConnectionState(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetConnectionState(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConnectionState))

	m.SetConnectionState(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConnectionState))
}

func TestObservePull(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePull("market", 120*time.Millisecond, nil)
	m.ObservePull("market", 80*time.Millisecond, errors.New("503"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PullFailures.WithLabelValues("market")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PullDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SetConnectionState(1)
		m.ReconnectScheduled()
		m.ReconnectGaveUp()
		m.Heartbeat(nil)
		m.MessageRouted("push", "alert")
		m.DecodeError()
		m.Discarded("stale")
		m.ObservePull("market", time.Second, nil)
		m.AlertReceived("low")
		m.ErrorShown()
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.DecodeError()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "pulse_push_decode_errors_total 1"))
}

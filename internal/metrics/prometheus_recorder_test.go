package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample returns the value of the series name{labels...} from reg.
func sample(t *testing.T, reg *prom.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("series %s%v not found", name, labels)
	return 0
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncBoot()
	pr.IncJoin(OutcomeSuccess)
	pr.IncJoin(OutcomeTimeout)
	pr.IncJoin(OutcomeTimeout)
	pr.ObserveJoinDuration(2 * time.Second)
	pr.IncHeartbeat(OutcomeSuccess)
	pr.ObserveHeartbeatDuration(150 * time.Millisecond)
	pr.IncSubmission(OutcomeRejected)
	pr.IncFactoryReset()
	pr.IncPortalRequest("/save", 400)

	assert.InDelta(t, 1, sample(t, reg, "onboard_boots_total", nil), 0)
	assert.InDelta(t, 2, sample(t, reg, "onboard_wifi_joins_total", map[string]string{"outcome": OutcomeTimeout}), 0)
	assert.InDelta(t, 1, sample(t, reg, "onboard_portal_requests_total", map[string]string{"route": "/save", "status": "400"}), 0)
	assert.InDelta(t, 1, sample(t, reg, "onboard_factory_resets_total", nil), 0)
}

func TestPrometheusRecorder_SetModeIsExclusive(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.SetMode("provisioning")
	pr.SetMode("connected")

	assert.InDelta(t, 0, sample(t, reg, "onboard_mode", map[string]string{"mode": "provisioning"}), 0)
	assert.InDelta(t, 1, sample(t, reg, "onboard_mode", map[string]string{"mode": "connected"}), 0)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncBoot()
		pr.SetMode("connected")
		pr.IncHeartbeat(OutcomeFailure)
	})
}

func TestHandler_ServesMetricsAndHealth(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBoot()
	srv := httptest.NewServer(Handler(reg, "/metrics"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "onboard_boots_total")

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))
}

func TestServer_ListenAndShutdown(t *testing.T) {
	s, err := Listen("127.0.0.1:0", Handler(prom.NewRegistry(), "/metrics"))
	require.NoError(t, err)
	go s.Serve()

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
}

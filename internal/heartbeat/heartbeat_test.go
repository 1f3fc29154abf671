package heartbeat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	hb := Heartbeat{Device: "ESP32", IP: "192.168.1.50", RSSI: -61, UptimeMS: 60000}
	assert.Equal(t, "https://h/hb?device=ESP32&ip=192.168.1.50&rssi=-61&uptime_ms=60000", BuildURL("https://h/hb", hb))
	assert.Equal(t, "https://h/hb?k=v&device=ESP32&ip=192.168.1.50&rssi=-61&uptime_ms=60000", BuildURL("https://h/hb?k=v", hb))
}

func TestBuildURL_EncodesUnreserved(t *testing.T) {
	hb := Heartbeat{Device: "lab unit/7~a_b-c.d&x", IP: "fe80::1"}
	got := BuildURL("http://h", hb)
	assert.Equal(t, "http://h?device=lab+unit%2F7~a_b-c.d%26x&ip=fe80%3A%3A1&rssi=0&uptime_ms=0", got)
}

func TestHTTPSender_SendsGET(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d, err := NewHTTPSender(time.Second, true).Send(context.Background(), srv.URL+"/hb", Heartbeat{Device: "ESP32", IP: "1.2.3.4", RSSI: -50, UptimeMS: 5})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, d.StatusCode)
	assert.Equal(t, "device=ESP32&ip=1.2.3.4&rssi=-50&uptime_ms=5", gotQuery)
}

func TestHTTPSender_TLSVerification(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d, err := NewHTTPSender(time.Second, true).Send(context.Background(), srv.URL, Heartbeat{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, d.StatusCode)

	_, err = NewHTTPSender(time.Second, false).Send(context.Background(), srv.URL, Heartbeat{})
	require.Error(t, err)
}

func TestParseNATSEndpoint(t *testing.T) {
	server, subject, err := ParseNATSEndpoint("nats://broker:4222/devices/heartbeat")
	require.NoError(t, err)
	assert.Equal(t, "nats://broker:4222", server)
	assert.Equal(t, "devices.heartbeat", subject)

	_, _, err = ParseNATSEndpoint("nats://broker:4222")
	require.Error(t, err)
	_, _, err = ParseNATSEndpoint("http://broker/x")
	require.Error(t, err)
}

func TestNATSSender_UnreachableBroker(t *testing.T) {
	s := &NATSSender{Timeout: 200 * time.Millisecond}
	_, err := s.Send(context.Background(), "nats://127.0.0.1:1/hb", Heartbeat{})
	require.Error(t, err)
}

type stubSender struct {
	name  string
	calls *[]string
}

func (s stubSender) Send(context.Context, string, Heartbeat) (Delivery, error) {
	*s.calls = append(*s.calls, s.name)
	return Delivery{StatusCode: 200}, nil
}

func TestRouter(t *testing.T) {
	var calls []string
	r := Router{HTTP: stubSender{"http", &calls}, NATS: stubSender{"nats", &calls}}
	ctx := context.Background()

	_, err := r.Send(ctx, "https://h", Heartbeat{})
	require.NoError(t, err)
	_, err = r.Send(ctx, "http://h", Heartbeat{})
	require.NoError(t, err)
	_, err = r.Send(ctx, "nats://h:4222/s", Heartbeat{})
	require.NoError(t, err)
	_, err = r.Send(ctx, "ftp://h", Heartbeat{})
	require.Error(t, err)

	assert.Equal(t, []string{"http", "http", "nats"}, calls)
}

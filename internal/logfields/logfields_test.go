package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies helper key stability; drift would break log ingestion.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name string
		key  string
		attr slog.Attr
	}{
		{"BootID", KeyBootID, BootID("b1")},
		{"Mode", KeyMode, Mode("connected")},
		{"SSID", KeySSID, SSID("Home")},
		{"Endpoint", KeyEndpoint, Endpoint("https://h/hb")},
		{"IP", KeyIP, IP("10.0.0.2")},
		{"RSSI", KeyRSSI, RSSI(-60)},
		{"StatusCode", KeyStatusCode, StatusCode(200)},
		{"Method", KeyMethod, Method("POST")},
		{"Path", KeyPath, Path("/save")},
		{"RemoteAddr", KeyRemoteAddr, RemoteAddr("192.168.4.2:5000")},
		{"Namespace", KeyNamespace, Namespace("net")},
		{"Duration", KeyDurationMS, Duration(time.Second)},
		{"HoldMS", KeyHoldMS, HoldMS(30 * time.Second)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.key, tc.attr.Key, tc.name)
	}
}

func TestNumericValues(t *testing.T) {
	assert.Equal(t, int64(1500), Duration(1500*time.Millisecond).Value.Int64())
	assert.Equal(t, int64(-72), RSSI(-72).Value.Int64())
}

func TestErrorAttr(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}

package wifi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	helpers "git.home.luguber.info/inful/onboard/internal/testutil/testutils"
)

func newTestConnector(clk *helpers.StepClock, radio Radio) *Connector {
	return &Connector{
		Radio:    radio,
		Clock:    clk,
		Hostname: "esp32-device",
		Poll:     250 * time.Millisecond,
		Settle:   DefaultDisconnectSettle,
	}
}

func TestConnect_SucceedsAfterJoinDelay(t *testing.T) {
	clk := helpers.NewStepClock(time.Unix(0, 0))
	radio := NewSimRadio(clk, 2*time.Second, "192.168.1.50",
		SimNetwork{SSID: "Home", Password: "secret", RSSI: -48})
	c := newTestConnector(clk, radio)

	st, err := c.Connect(context.Background(), "Home", "secret", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, st.Connected)
	assert.Equal(t, "192.168.1.50", st.IP)
	assert.Equal(t, -48, st.RSSI)
	assert.Equal(t, "esp32-device", radio.Hostname())
	assert.Equal(t, []string{"Home"}, radio.Joins)

	// settle + 8 polls of 250ms
	assert.Equal(t, time.Unix(0, 0).Add(200*time.Millisecond+2*time.Second), clk.Now())
}

func TestConnect_WrongPasswordTimesOut(t *testing.T) {
	clk := helpers.NewStepClock(time.Unix(0, 0))
	radio := NewSimRadio(clk, 0, "10.0.0.2", SimNetwork{SSID: "Home", Password: "secret"})
	c := newTestConnector(clk, radio)

	_, err := c.Connect(context.Background(), "Home", "wrong", 20*time.Second)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNetwork, errors.GetCategory(err))
	assert.Equal(t, time.Unix(0, 0).Add(200*time.Millisecond+20*time.Second), clk.Now())
}

func TestConnect_UnknownNetworkTimesOut(t *testing.T) {
	clk := helpers.NewStepClock(time.Unix(0, 0))
	c := newTestConnector(clk, NewSimRadio(clk, 0, "10.0.0.2"))

	_, err := c.Connect(context.Background(), "Nowhere", "", time.Second)
	require.Error(t, err)
}

func TestConnect_CancelledContextStopsPolling(t *testing.T) {
	clk := helpers.NewStepClock(time.Unix(0, 0))
	radio := NewSimRadio(clk, time.Hour, "10.0.0.2", SimNetwork{SSID: "Home"})
	c := newTestConnector(clk, radio)

	ctx, cancel := context.WithCancel(context.Background())
	clk.OnSleep = func(now time.Time) {
		if now.Sub(time.Unix(0, 0)) >= time.Second {
			cancel()
		}
	}
	_, err := c.Connect(ctx, "Home", "", 30*time.Second)
	require.Error(t, err)
	assert.Less(t, clk.Now().Sub(time.Unix(0, 0)), 2*time.Second)
}

func TestSimRadio_ScanSortedByStrength(t *testing.T) {
	clk := helpers.NewStepClock(time.Unix(0, 0))
	radio := NewSimRadio(clk, 0, "10.0.0.2",
		SimNetwork{SSID: "weak", RSSI: -90},
		SimNetwork{SSID: "strong", RSSI: -40},
	)
	nets, err := radio.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, nets, 2)
	assert.Equal(t, "strong", nets[0].SSID)
	assert.Equal(t, "strong (-40 dBm)", nets[0].String())
}

func TestSimRadio_JoinLeavesAPMode(t *testing.T) {
	ctx := context.Background()
	clk := helpers.NewStepClock(time.Unix(0, 0))
	radio := NewSimRadio(clk, 0, "10.0.0.2")
	require.NoError(t, radio.StartAP(ctx, AccessPoint{SSID: "ESP32_Setup", Address: "192.168.4.1"}))
	_, up := radio.AP()
	assert.True(t, up)

	require.NoError(t, radio.Join(ctx, "x", ""))
	_, up = radio.AP()
	assert.False(t, up)
}

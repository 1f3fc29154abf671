package heartbeat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/onboard/internal/wifi"
)

type fakeLink struct {
	status wifi.LinkStatus
}

func (l *fakeLink) Status(context.Context) (wifi.LinkStatus, error) { return l.status, nil }

type recordingSender struct {
	sent []Heartbeat
	err  error
}

func (s *recordingSender) Send(_ context.Context, _ string, hb Heartbeat) (Delivery, error) {
	s.sent = append(s.sent, hb)
	if s.err != nil {
		return Delivery{}, s.err
	}
	return Delivery{StatusCode: 200}, nil
}

func newTestReporter(clk clockwork.Clock, link Link, sender Sender) *Reporter {
	return NewReporter(clk, Options{
		Interval: 60 * time.Second,
		Device:   "ESP32",
		Endpoint: "https://h/hb",
		BootAt:   clk.Now(),
	}, link, sender, nil, nil)
}

func TestTick_FirstFiresOneIntervalAfterBoot(t *testing.T) {
	clk := clockwork.NewFakeClock()
	link := &fakeLink{status: wifi.LinkStatus{Connected: true, IP: "192.168.1.50", RSSI: -55}}
	sender := &recordingSender{}
	r := newTestReporter(clk, link, sender)
	ctx := context.Background()

	clk.Advance(59999 * time.Millisecond)
	assert.False(t, r.Tick(ctx))
	assert.Empty(t, sender.sent)

	clk.Advance(time.Millisecond)
	assert.True(t, r.Tick(ctx))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, Heartbeat{Device: "ESP32", IP: "192.168.1.50", RSSI: -55, UptimeMS: 60000}, sender.sent[0])

	// Nothing until another full interval has passed.
	clk.Advance(30 * time.Second)
	assert.False(t, r.Tick(ctx))
	clk.Advance(30 * time.Second)
	assert.True(t, r.Tick(ctx))
	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(120000), sender.sent[1].UptimeMS)
}

func TestTick_TimerAdvancesWhenLinkDown(t *testing.T) {
	clk := clockwork.NewFakeClock()
	link := &fakeLink{}
	sender := &recordingSender{}
	r := newTestReporter(clk, link, sender)

	clk.Advance(60 * time.Second)
	assert.True(t, r.Tick(context.Background()))
	assert.Empty(t, sender.sent)
	assert.Equal(t, clk.Now(), r.LastFired())

	link.status = wifi.LinkStatus{Connected: true}
	clk.Advance(time.Second)
	assert.False(t, r.Tick(context.Background()))
}

func TestTick_FailureDoesNotRetryEarly(t *testing.T) {
	clk := clockwork.NewFakeClock()
	sender := &recordingSender{err: errors.New("connection refused")}
	r := newTestReporter(clk, &fakeLink{status: wifi.LinkStatus{Connected: true}}, sender)

	clk.Advance(60 * time.Second)
	assert.True(t, r.Tick(context.Background()))
	clk.Advance(10 * time.Second)
	assert.False(t, r.Tick(context.Background()))
	assert.Len(t, sender.sent, 1)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "nats://broker:4222/s", redact("nats://user:pw@broker:4222/s"))
	assert.Equal(t, "https://h/hb?x=a@b", redact("https://h/hb?x=a@b"))
	assert.Equal(t, "plain", redact("plain"))
}

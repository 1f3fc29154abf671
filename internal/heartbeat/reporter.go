package heartbeat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	"git.home.luguber.info/inful/onboard/internal/logfields"
	"git.home.luguber.info/inful/onboard/internal/metrics"
	"git.home.luguber.info/inful/onboard/internal/retry"
	"git.home.luguber.info/inful/onboard/internal/wifi"
)

// Link reports the client link state.
type Link interface {
	Status(ctx context.Context) (wifi.LinkStatus, error)
}

// Reporter fires a heartbeat every Interval, measured from the previous
// firing. The first interval is measured from the boot instant.
type Reporter struct {
	clock    retry.Clock
	interval time.Duration
	device   string
	endpoint string
	link     Link
	sender   Sender
	metrics  metrics.Recorder
	logger   *slog.Logger

	bootAt    time.Time
	lastFired time.Time
}

// Options configures a Reporter.
type Options struct {
	Interval time.Duration
	Device   string
	Endpoint string
	BootAt   time.Time
}

// NewReporter builds a reporter whose timer starts at opts.BootAt.
func NewReporter(clock retry.Clock, opts Options, link Link, sender Sender, rec metrics.Recorder, logger *slog.Logger) *Reporter {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		clock:     clock,
		interval:  opts.Interval,
		device:    opts.Device,
		endpoint:  opts.Endpoint,
		link:      link,
		sender:    sender,
		metrics:   rec,
		logger:    logger.With(logfields.Endpoint(redact(opts.Endpoint))),
		bootAt:    opts.BootAt,
		lastFired: opts.BootAt,
	}
}

// Tick fires a heartbeat if the interval has elapsed and reports whether it
// fired. The timer advances whether or not the send succeeds, and no retry
// happens before the next interval.
func (r *Reporter) Tick(ctx context.Context) bool {
	now := r.clock.Now()
	if now.Sub(r.lastFired) < r.interval {
		return false
	}
	r.lastFired = now

	if r.endpoint == "" {
		r.metrics.IncHeartbeat(metrics.OutcomeSkipped)
		return true
	}
	st, err := r.link.Status(ctx)
	if err != nil || !st.Connected {
		r.metrics.IncHeartbeat(metrics.OutcomeSkipped)
		r.logger.Debug("Heartbeat skipped, link down")
		return true
	}

	hb := Heartbeat{
		Device:   r.device,
		IP:       st.IP,
		RSSI:     st.RSSI,
		UptimeMS: now.Sub(r.bootAt).Milliseconds(),
	}
	started := time.Now()
	d, err := r.sender.Send(ctx, r.endpoint, hb)
	r.metrics.ObserveHeartbeatDuration(time.Since(started))
	if err != nil {
		r.metrics.IncHeartbeat(metrics.OutcomeFailure)
		cerr := errors.WrapError(err, errors.CategoryTransport, "heartbeat failed").
			Warning().
			NextTick().
			Build()
		r.logger.Warn("Heartbeat failed", logfields.Error(cerr))
		return true
	}
	if d.StatusCode != 0 && d.StatusCode < 100 {
		r.metrics.IncHeartbeat(metrics.OutcomeFailure)
		r.logger.Warn("Heartbeat got invalid status", logfields.StatusCode(d.StatusCode))
		return true
	}
	r.metrics.IncHeartbeat(metrics.OutcomeSuccess)
	r.logger.Info("Heartbeat sent",
		logfields.StatusCode(d.StatusCode),
		slog.Int64("uptime_ms", hb.UptimeMS))
	return true
}

// LastFired returns the instant the timer last advanced.
func (r *Reporter) LastFired() time.Time { return r.lastFired }

// redact drops userinfo from an endpoint before it is logged.
func redact(endpoint string) string {
	scheme, rest, ok := strings.Cut(endpoint, "://")
	if !ok {
		return endpoint
	}
	if at := strings.Index(rest, "@"); at >= 0 && at < strings.IndexAny(rest+"/", "/?") {
		rest = rest[at+1:]
	}
	return scheme + "://" + rest
}

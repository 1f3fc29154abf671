package wifi

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	"git.home.luguber.info/inful/onboard/internal/logfields"
	"git.home.luguber.info/inful/onboard/internal/metrics"
	"git.home.luguber.info/inful/onboard/internal/retry"
)

// DefaultDisconnectSettle is the pause between dropping the old link and
// starting a new join.
const DefaultDisconnectSettle = 200 * time.Millisecond

// Connector performs bounded client joins on a Radio.
type Connector struct {
	Radio    Radio
	Clock    retry.Clock
	Hostname string
	Poll     time.Duration
	Settle   time.Duration
	Metrics  metrics.Recorder
	Logger   *slog.Logger
}

// Connect drops any current association, applies the hostname, begins a join
// and polls the link until it is up or budget is spent.
//
// Failure to disconnect or set the hostname is logged and does not abort the
// attempt. A join that does not come up in time yields a network error.
func (c *Connector) Connect(ctx context.Context, ssid, password string, budget time.Duration) (LinkStatus, error) {
	log := c.logger().With(logfields.SSID(ssid))
	rec := c.recorder()
	started := c.Clock.Now()

	if err := c.Radio.Disconnect(ctx); err != nil {
		log.Debug("Disconnect before join failed", logfields.Error(err))
	}
	if c.Settle > 0 {
		c.Clock.Sleep(c.Settle)
	}
	if c.Hostname != "" {
		if err := c.Radio.SetHostname(ctx, c.Hostname); err != nil {
			log.Warn("Failed to set hostname", slog.String("hostname", c.Hostname), logfields.Error(err))
		}
	}
	if err := c.Radio.Join(ctx, ssid, password); err != nil {
		rec.IncJoin(metrics.OutcomeFailure)
		return LinkStatus{}, errors.WrapError(err, errors.CategoryNetwork, "failed to begin join").
			WithContext("ssid", ssid).
			UserAction().
			Build()
	}

	var status LinkStatus
	poller := retry.NewPoller(c.Clock, c.Poll, budget)
	res, waited := poller.Until(func() bool {
		if ctx.Err() != nil {
			return true
		}
		st, err := c.Radio.Status(ctx)
		if err != nil {
			log.Debug("Link status unavailable", logfields.Error(err))
			return false
		}
		status = st
		return st.Connected
	})
	rec.ObserveJoinDuration(c.Clock.Now().Sub(started))

	if err := ctx.Err(); err != nil {
		rec.IncJoin(metrics.OutcomeFailure)
		return LinkStatus{}, errors.WrapError(err, errors.CategoryNetwork, "join cancelled").
			WithContext("ssid", ssid).
			Build()
	}
	if res == retry.TimedOut {
		rec.IncJoin(metrics.OutcomeTimeout)
		log.Warn("Join timed out", logfields.Duration(waited))
		return LinkStatus{}, errors.NetworkError("join timed out").
			WithContext("ssid", ssid).
			WithContext("budget", budget.String()).
			Build()
	}

	rec.IncJoin(metrics.OutcomeSuccess)
	log.Info("Joined network", logfields.IP(status.IP), logfields.RSSI(status.RSSI), logfields.Duration(waited))
	return status, nil
}

func (c *Connector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Connector) recorder() metrics.Recorder {
	if c.Metrics != nil {
		return c.Metrics
	}
	return metrics.NoopRecorder{}
}

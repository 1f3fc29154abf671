package button

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/onboard/internal/logfields"
	"git.home.luguber.info/inful/onboard/internal/retry"
)

// Detector decides whether a factory reset was requested by holding the
// button for at least Threshold.
type Detector struct {
	Button    Button
	Clock     retry.Clock
	Threshold time.Duration
	Poll      time.Duration
	Logger    *slog.Logger
}

// Requested samples the button once; if it is pressed, it blocks until the
// button is released or Threshold elapses with it still held. Read errors
// count as not pressed.
func (d *Detector) Requested() bool {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	if !d.pressed(log) {
		return false
	}

	log.Info("Reset button held, measuring", slog.Duration("threshold", d.Threshold))
	poller := retry.NewPoller(d.Clock, d.Poll, d.Threshold)
	res, held := poller.Until(func() bool { return !d.pressed(log) })
	if res == retry.TimedOut {
		log.Warn("Factory reset requested", logfields.HoldMS(held))
		return true
	}
	log.Info("Reset button released early", logfields.HoldMS(held))
	return false
}

func (d *Detector) pressed(log *slog.Logger) bool {
	p, err := d.Button.Pressed()
	if err != nil {
		log.Debug("Reset button read failed", logfields.Error(err))
		return false
	}
	return p
}

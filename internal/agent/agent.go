// Package agent implements the boot orchestrator and the single-threaded
// process loop that services the active mode.
package agent

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/onboard/internal/credstore"
	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	"git.home.luguber.info/inful/onboard/internal/logfields"
	"git.home.luguber.info/inful/onboard/internal/metrics"
	"git.home.luguber.info/inful/onboard/internal/provision"
	"git.home.luguber.info/inful/onboard/internal/retry"
)

// ErrRestart is returned by Run when the agent must be rebuilt from scratch.
var ErrRestart = stderrors.New("restart requested")

// ResetDetector reports whether a factory reset was requested at boot.
type ResetDetector interface {
	Requested() bool
}

// Portal is the provisioning server as seen by the loop.
type Portal interface {
	Start(ctx context.Context) error
	Step(ctx context.Context) bool
	Close() error
}

// Ticker is the heartbeat reporter as seen by the loop.
type Ticker interface {
	Tick(ctx context.Context) bool
}

// Deps are the collaborators of an Agent.
type Deps struct {
	Clock     retry.Clock
	Store     credstore.Store
	Reset     ResetDetector
	Connector provision.Joiner
	// NewPortal builds the provisioning server; restart requests from a
	// committed submission go to r.
	NewPortal func(r provision.Restarter) (Portal, error)
	// NewReporter builds the heartbeat reporter for verified credentials.
	NewReporter func(creds credstore.Credentials, bootAt time.Time) Ticker
	Metrics     metrics.Recorder
	Logger      *slog.Logger
}

// Options tunes timing.
type Options struct {
	BootBudget  time.Duration // join budget for stored credentials
	ResetSettle time.Duration // pause between clearing the store and restarting
	Idle        time.Duration // pause after a step with no work
}

// Agent runs one boot cycle. A restart means building a new Agent, which
// resets the heartbeat timer, the uptime origin and the boot ID.
type Agent struct {
	deps   Deps
	opts   Options
	bootID string
	logger *slog.Logger

	mode      Mode
	bootAt    time.Time
	portal    Portal
	reporter  Ticker
	restartAt time.Time
	restart   bool
}

// New builds an agent in the Booting mode.
func New(deps Deps, opts Options) *Agent {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NoopRecorder{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Agent{
		deps:   deps,
		opts:   opts,
		bootID: id,
		logger: logger.With(logfields.BootID(id)),
		mode:   Booting,
	}
}

// Mode returns the current mode.
func (a *Agent) Mode() Mode { return a.mode }

// BootID identifies this boot cycle in logs.
func (a *Agent) BootID() string { return a.bootID }

// BootAt returns the uptime origin.
func (a *Agent) BootAt() time.Time { return a.bootAt }

func (a *Agent) setMode(m Mode) {
	a.mode = m
	a.deps.Metrics.SetMode(m.String())
	a.logger.Info("Mode changed", logfields.Mode(m.String()))
}

// Boot decides the operating mode. It returns ErrRestart after a factory
// reset, and an error only when the chosen mode cannot be entered.
func (a *Agent) Boot(ctx context.Context) error {
	a.bootAt = a.deps.Clock.Now()
	a.deps.Metrics.IncBoot()
	a.deps.Metrics.SetMode(Booting.String())

	if a.deps.Reset != nil && a.deps.Reset.Requested() {
		a.setMode(FactoryResetting)
		a.deps.Metrics.IncFactoryReset()
		if err := a.deps.Store.Clear(ctx); err != nil {
			a.logger.Error("Factory reset could not clear the store", logfields.Error(err))
		} else {
			a.logger.Warn("Factory reset: stored credentials cleared")
		}
		a.deps.Clock.Sleep(a.opts.ResetSettle)
		return ErrRestart
	}

	creds, err := a.deps.Store.Load(ctx)
	if err != nil {
		a.logger.Warn("Failed to load credentials, treating as unconfigured", logfields.Error(err))
		creds = credstore.Credentials{}
	}
	if !creds.IsConfigured() {
		a.logger.Info("No stored credentials")
		return a.enterProvisioning(ctx)
	}

	if _, err := a.deps.Connector.Connect(ctx, creds.SSID, creds.Password, a.opts.BootBudget); err != nil {
		a.logger.Warn("Stored credentials did not connect, falling back to provisioning",
			logfields.SSID(creds.SSID), logfields.Error(err))
		return a.enterProvisioning(ctx)
	}
	a.reporter = a.deps.NewReporter(creds, a.bootAt)
	a.setMode(Connected)
	return nil
}

func (a *Agent) enterProvisioning(ctx context.Context) error {
	p, err := a.deps.NewPortal(a)
	if err != nil {
		return err
	}
	if err := p.Start(ctx); err != nil {
		_ = p.Close()
		return err
	}
	a.portal = p
	a.setMode(Provisioning)
	return nil
}

// RequestRestart schedules ErrRestart once after has elapsed, giving the
// portal time to deliver its response.
func (a *Agent) RequestRestart(after time.Duration) {
	a.restart = true
	a.restartAt = a.deps.Clock.Now().Add(after)
	a.logger.Info("Restart scheduled", slog.Duration("after", after))
}

// Step performs one unit of work for the active mode and reports whether
// anything was done. It returns ErrRestart when a scheduled restart is due.
func (a *Agent) Step(ctx context.Context) (bool, error) {
	if a.restart && !a.deps.Clock.Now().Before(a.restartAt) {
		return false, ErrRestart
	}
	switch a.mode {
	case Provisioning:
		return a.portal.Step(ctx), nil
	case Connected:
		return a.reporter.Tick(ctx), nil
	default:
		return false, errors.InternalError("step called before boot").
			WithContext("mode", a.mode.String()).
			Build()
	}
}

// Run boots and then steps until ctx is cancelled (nil), a restart is due
// (ErrRestart) or a step fails.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.Boot(ctx); err != nil {
		return err
	}
	defer a.shutdown()

	for {
		if ctx.Err() != nil {
			return nil
		}
		did, err := a.Step(ctx)
		if err != nil {
			return err
		}
		if !did {
			a.deps.Clock.Sleep(a.opts.Idle)
		}
	}
}

func (a *Agent) shutdown() {
	if a.portal == nil {
		return
	}
	if err := a.portal.Close(); err != nil {
		a.logger.Warn("Portal shutdown failed", logfields.Error(err))
	}
	a.portal = nil
}

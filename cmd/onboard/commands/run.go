package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/onboard/internal/config"
	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	"git.home.luguber.info/inful/onboard/internal/lockfile"
	"git.home.luguber.info/inful/onboard/internal/metrics"
	"git.home.luguber.info/inful/onboard/internal/version"
)

// RunCmd implements the 'run' command.
type RunCmd struct{}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunAgent(ctx, cfg, clockwork.NewRealClock())
}

// RunAgent holds the state directory lock and runs boot cycles until ctx ends.
func RunAgent(ctx context.Context, cfg *config.Config, clock clockwork.Clock) error {
	slog.Info("Starting onboard agent", "version", version.Version, "state_dir", cfg.StateDir)

	lock, err := lockfile.Acquire(cfg.StateDir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to lock state directory").Build()
	}
	defer func() { _ = lock.Release() }()

	rt, err := NewRuntime(cfg, clock, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if cfg.Metrics.Enabled {
		srv, err := metrics.Listen(cfg.Metrics.Listen, metrics.Handler(rt.registry, cfg.Metrics.Path))
		if err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "failed to bind metrics listener").
				WithContext("listen", cfg.Metrics.Listen).
				Build()
		}
		go srv.Serve()
		slog.Info("Metrics listener started", "addr", srv.Addr(), "path", cfg.Metrics.Path)
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(stopCtx)
		}()
	}

	err = rt.Loop(ctx)
	slog.Info("Onboard agent stopped")
	return err
}

package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	"git.home.luguber.info/inful/onboard/internal/lockfile"
)

// ResetCmd implements the 'reset' command.
type ResetCmd struct{}

func (r *ResetCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	lock, err := lockfile.Acquire(cfg.StateDir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "agent is running; stop it before resetting").Build()
	}
	defer func() { _ = lock.Release() }()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Clear(context.Background()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), "Stored credentials cleared.")
	return nil
}

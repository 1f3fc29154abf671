package commands

import (
	"context"
	"fmt"
)

// ShowCmd implements the 'show' command.
type ShowCmd struct{}

func (s *ShowCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	creds, err := store.Load(context.Background())
	if err != nil {
		return err
	}
	if !creds.IsConfigured() {
		_, _ = fmt.Fprintln(g.out(), "Not configured.")
		return nil
	}
	m := creds.Masked()
	_, _ = fmt.Fprintf(g.out(), "ssid: %s\npass: %s\napi:  %s\n", m.SSID, m.Password, m.Endpoint)
	return nil
}

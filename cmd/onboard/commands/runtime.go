package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/onboard/internal/agent"
	"git.home.luguber.info/inful/onboard/internal/button"
	"git.home.luguber.info/inful/onboard/internal/config"
	"git.home.luguber.info/inful/onboard/internal/credstore"
	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	"git.home.luguber.info/inful/onboard/internal/heartbeat"
	"git.home.luguber.info/inful/onboard/internal/logfields"
	"git.home.luguber.info/inful/onboard/internal/metrics"
	"git.home.luguber.info/inful/onboard/internal/portal"
	"git.home.luguber.info/inful/onboard/internal/provision"
	"git.home.luguber.info/inful/onboard/internal/wifi"
)

// Runtime holds the process-lifetime resources shared by every boot cycle.
type Runtime struct {
	cfg      *config.Config
	clock    clockwork.Clock
	store    credstore.Store
	radio    wifi.Radio
	button   button.Button
	recorder metrics.Recorder
	registry *prom.Registry
	sender   heartbeat.Sender
	logger   *slog.Logger
}

// openStore opens the configured credential store.
func openStore(cfg *config.Config) (credstore.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return credstore.NewMemoryStore(credstore.Credentials{}), nil
	default:
		if cfg.Store.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o750); err != nil {
				return nil, errors.WrapError(err, errors.CategoryStorage, "failed to create store directory").
					WithContext("path", cfg.Store.Path).
					Build()
			}
		}
		return credstore.NewSQLiteStore(cfg.Store.Path, cfg.Store.Namespace)
	}
}

// NewRuntime builds the long-lived collaborators from configuration.
func NewRuntime(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		cfg:      cfg,
		clock:    clock,
		store:    store,
		radio:    newRadio(cfg, clock),
		button:   newButton(cfg),
		recorder: metrics.NoopRecorder{},
		sender: heartbeat.Router{
			HTTP: heartbeat.NewHTTPSender(cfg.Heartbeat.Timeout, cfg.Heartbeat.InsecureTLS()),
			NATS: &heartbeat.NATSSender{Timeout: cfg.Heartbeat.Timeout},
		},
		logger: logger,
	}
	if cfg.Metrics.Enabled {
		rt.registry = prom.NewRegistry()
		rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rt.recorder = metrics.NewPrometheusRecorder(rt.registry)
	}
	return rt, nil
}

func newRadio(cfg *config.Config, clock clockwork.Clock) wifi.Radio {
	if cfg.Network.Backend == config.RadioSim {
		nets := make([]wifi.SimNetwork, 0, len(cfg.Network.Sim.Networks))
		for _, n := range cfg.Network.Sim.Networks {
			nets = append(nets, wifi.SimNetwork{SSID: n.SSID, Password: n.Password, RSSI: n.RSSI})
		}
		return wifi.NewSimRadio(clock, cfg.Network.Sim.JoinDelay, cfg.Network.Sim.IP, nets...)
	}
	return wifi.NewNMCLIRadio(cfg.Network.NMCLIPath, cfg.Network.Interface)
}

func newButton(cfg *config.Config) button.Button {
	if cfg.Reset.Backend == config.ButtonSysfs {
		return button.NewSysfs(cfg.Reset.Path, cfg.Reset.IsActiveLow())
	}
	return button.None{}
}

// Close releases the store.
func (rt *Runtime) Close() error { return rt.store.Close() }

// NewAgent builds a fresh agent for one boot cycle.
func (rt *Runtime) NewAgent() *agent.Agent {
	cfg := rt.cfg
	connector := &wifi.Connector{
		Radio:    rt.radio,
		Clock:    rt.clock,
		Hostname: cfg.Device.Hostname,
		Poll:     cfg.Network.Poll,
		Settle:   wifi.DefaultDisconnectSettle,
		Metrics:  rt.recorder,
		Logger:   rt.logger,
	}
	return agent.New(agent.Deps{
		Clock: rt.clock,
		Store: rt.store,
		Reset: &button.Detector{
			Button:    rt.button,
			Clock:     rt.clock,
			Threshold: cfg.Reset.Hold,
			Poll:      cfg.Reset.Poll,
			Logger:    rt.logger,
		},
		Connector: connector,
		NewPortal: func(r provision.Restarter) (agent.Portal, error) {
			flow := &provision.Flow{
				Joiner:       connector,
				Store:        rt.store,
				Restarter:    r,
				Timeout:      cfg.Network.ValidateTimeout,
				RestartDelay: cfg.Portal.RestartDelay,
				Metrics:      rt.recorder,
				Logger:       rt.logger,
			}
			opts := portal.Options{
				AccessPoint: wifi.AccessPoint{
					SSID:     cfg.Portal.APSSID,
					Password: cfg.Portal.APPassword,
					Address:  cfg.Portal.APAddress,
				},
				HTTPListen: cfg.Portal.HTTPListen,
			}
			if !cfg.Portal.DisableDNS {
				opts.DNSListen = cfg.Portal.DNSListen
			}
			return portal.New(opts, rt.radio, flow, portal.DefaultForm, rt.recorder, rt.logger)
		},
		NewReporter: func(c credstore.Credentials, bootAt time.Time) agent.Ticker {
			return heartbeat.NewReporter(rt.clock, heartbeat.Options{
				Interval: cfg.Heartbeat.Interval,
				Device:   cfg.Device.Name,
				Endpoint: c.Endpoint,
				BootAt:   bootAt,
			}, rt.radio, rt.sender, rt.recorder, rt.logger)
		},
		Metrics: rt.recorder,
		Logger:  rt.logger,
	}, agent.Options{
		BootBudget:  cfg.Network.BootBudget,
		ResetSettle: cfg.Reset.Settle,
		Idle:        cfg.Loop.Idle,
	})
}

// Loop runs boot cycles until ctx is cancelled or a cycle fails.
// ErrRestart starts the next cycle in-process with fresh agent state.
func (rt *Runtime) Loop(ctx context.Context) error {
	for ctx.Err() == nil {
		a := rt.NewAgent()
		rt.logger.Info("Booting", logfields.BootID(a.BootID()))
		err := a.Run(ctx)
		switch {
		case err == nil:
			return nil
		case stderrors.Is(err, agent.ErrRestart):
			rt.logger.Info("Restarting")
			continue
		default:
			return err
		}
	}
	return nil
}

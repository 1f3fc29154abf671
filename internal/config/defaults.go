package config

import (
	"path/filepath"
	"time"
)

// Default values mirror the reference firmware timings.
const (
	DefaultStateDir        = "/var/lib/onboard"
	DefaultDBFileName      = "onboard.db"
	DefaultDeviceName      = "ESP32"
	DefaultHostname        = "esp32-device"
	DefaultResetHold       = 30 * time.Second
	DefaultResetPoll       = 10 * time.Millisecond
	DefaultResetSettle     = 100 * time.Millisecond
	DefaultBootBudget      = 30 * time.Second
	DefaultValidateTimeout = 20 * time.Second
	DefaultLinkPoll        = 250 * time.Millisecond
	DefaultAPSSID          = "ESP32_Setup"
	DefaultAPAddress       = "192.168.4.1"
	DefaultRestartDelay    = 800 * time.Millisecond
	DefaultHeartbeat       = 60 * time.Second
	DefaultHeartbeatTimout = 10 * time.Second
	DefaultNamespace       = "net"
	DefaultLoopIdle        = 10 * time.Millisecond
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

// NewDefaultApplier returns the composite applier used by Load.
func NewDefaultApplier() DefaultApplier {
	return compositeApplier{
		&deviceDefaultApplier{},
		&resetDefaultApplier{},
		&networkDefaultApplier{},
		&portalDefaultApplier{},
		&heartbeatDefaultApplier{},
		&storeDefaultApplier{},
		&runtimeDefaultApplier{},
	}
}

type compositeApplier []DefaultApplier

func (c compositeApplier) Domain() string { return "all" }

func (c compositeApplier) ApplyDefaults(cfg *Config) {
	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir
	}
	for _, a := range c {
		a.ApplyDefaults(cfg)
	}
}

type deviceDefaultApplier struct{}

func (d *deviceDefaultApplier) Domain() string { return "device" }

func (d *deviceDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Device.Name == "" {
		cfg.Device.Name = DefaultDeviceName
	}
	if cfg.Device.Hostname == "" {
		cfg.Device.Hostname = DefaultHostname
	}
}

type resetDefaultApplier struct{}

func (r *resetDefaultApplier) Domain() string { return "reset" }

func (r *resetDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Reset.Backend == "" {
		if cfg.Reset.Path != "" {
			cfg.Reset.Backend = ButtonSysfs
		} else {
			cfg.Reset.Backend = ButtonNone
		}
	}
	if cfg.Reset.Hold <= 0 {
		cfg.Reset.Hold = DefaultResetHold
	}
	if cfg.Reset.Poll <= 0 {
		cfg.Reset.Poll = DefaultResetPoll
	}
	if cfg.Reset.Settle <= 0 {
		cfg.Reset.Settle = DefaultResetSettle
	}
}

type networkDefaultApplier struct{}

func (n *networkDefaultApplier) Domain() string { return "network" }

func (n *networkDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Network.Backend == "" {
		cfg.Network.Backend = RadioNMCLI
	}
	if cfg.Network.Interface == "" {
		cfg.Network.Interface = "wlan0"
	}
	if cfg.Network.NMCLIPath == "" {
		cfg.Network.NMCLIPath = "nmcli"
	}
	if cfg.Network.BootBudget <= 0 {
		cfg.Network.BootBudget = DefaultBootBudget
	}
	if cfg.Network.ValidateTimeout <= 0 {
		cfg.Network.ValidateTimeout = DefaultValidateTimeout
	}
	if cfg.Network.Poll <= 0 {
		cfg.Network.Poll = DefaultLinkPoll
	}
	if cfg.Network.Sim.IP == "" {
		cfg.Network.Sim.IP = "192.168.1.50"
	}
}

type portalDefaultApplier struct{}

func (p *portalDefaultApplier) Domain() string { return "portal" }

func (p *portalDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Portal.APSSID == "" {
		cfg.Portal.APSSID = DefaultAPSSID
	}
	if cfg.Portal.APAddress == "" {
		cfg.Portal.APAddress = DefaultAPAddress
	}
	if cfg.Portal.HTTPListen == "" {
		cfg.Portal.HTTPListen = ":80"
	}
	if cfg.Portal.DNSListen == "" {
		cfg.Portal.DNSListen = ":53"
	}
	if cfg.Portal.RestartDelay <= 0 {
		cfg.Portal.RestartDelay = DefaultRestartDelay
	}
}

type heartbeatDefaultApplier struct{}

func (h *heartbeatDefaultApplier) Domain() string { return "heartbeat" }

func (h *heartbeatDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Heartbeat.Interval <= 0 {
		cfg.Heartbeat.Interval = DefaultHeartbeat
	}
	if cfg.Heartbeat.Timeout <= 0 {
		cfg.Heartbeat.Timeout = DefaultHeartbeatTimout
	}
}

type storeDefaultApplier struct{}

func (s *storeDefaultApplier) Domain() string { return "store" }

func (s *storeDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreSQLite
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(cfg.StateDir, DefaultDBFileName)
	}
	if cfg.Store.Namespace == "" {
		cfg.Store.Namespace = DefaultNamespace
	}
}

type runtimeDefaultApplier struct{}

func (r *runtimeDefaultApplier) Domain() string { return "runtime" }

func (r *runtimeDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Loop.Idle <= 0 {
		cfg.Loop.Idle = DefaultLoopIdle
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9100"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	// Unknown values are left in place so validation can report them.
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	} else if lvl := NormalizeLogLevel(string(cfg.Logging.Level)); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	} else if f := NormalizeLogFormat(string(cfg.Logging.Format)); f != "" {
		cfg.Logging.Format = f
	}
}

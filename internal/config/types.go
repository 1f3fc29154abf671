package config

import (
	"time"

	"git.home.luguber.info/inful/onboard/internal/foundation"
)

// Config represents the agent configuration file.
type Config struct {
	StateDir  string          `yaml:"state_dir"`
	Device    DeviceConfig    `yaml:"device"`
	Reset     ResetConfig     `yaml:"reset"`
	Network   NetworkConfig   `yaml:"network"`
	Portal    PortalConfig    `yaml:"portal"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Store     StoreConfig     `yaml:"store"`
	Loop      LoopConfig      `yaml:"loop"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies the device in heartbeats and on the network.
type DeviceConfig struct {
	Name     string `yaml:"name"`     // value of the heartbeat "device" parameter
	Hostname string `yaml:"hostname"` // hostname applied before every join
}

// ButtonBackend selects how the reset button is read.
type ButtonBackend string

const (
	ButtonNone  ButtonBackend = "none"
	ButtonSysfs ButtonBackend = "sysfs"
)

// ResetConfig configures the factory-reset button.
type ResetConfig struct {
	Backend   ButtonBackend `yaml:"backend"`
	Path      string        `yaml:"path"`       // GPIO value file for the sysfs backend
	ActiveLow *bool         `yaml:"active_low"` // default true: pressed reads as 0
	Hold      time.Duration `yaml:"hold"`       // long-press threshold
	Poll      time.Duration `yaml:"poll"`       // sampling interval while held
	Settle    time.Duration `yaml:"settle"`     // delay between clearing and restart
}

// IsActiveLow reports the effective polarity.
func (r ResetConfig) IsActiveLow() bool {
	return r.ActiveLow == nil || *r.ActiveLow
}

// RadioBackend selects the wireless implementation.
type RadioBackend string

const (
	RadioNMCLI RadioBackend = "nmcli"
	RadioSim   RadioBackend = "sim"
)

// NetworkConfig configures the network client connector.
type NetworkConfig struct {
	Backend         RadioBackend  `yaml:"backend"`
	Interface       string        `yaml:"interface"`
	NMCLIPath       string        `yaml:"nmcli_path"`
	BootBudget      time.Duration `yaml:"boot_budget"`      // total join budget at boot
	ValidateTimeout time.Duration `yaml:"validate_timeout"` // join budget for a portal submission
	Poll            time.Duration `yaml:"poll"`             // link status poll interval
	Sim             SimConfig     `yaml:"sim"`
}

// SimConfig describes the simulated radio environment.
type SimConfig struct {
	Networks  []SimNetwork  `yaml:"networks"`
	JoinDelay time.Duration `yaml:"join_delay"`
	IP        string        `yaml:"ip"`
}

// SimNetwork is one simulated access point.
type SimNetwork struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	RSSI     int    `yaml:"rssi"`
}

// PortalConfig configures the provisioning access point and captive portal.
type PortalConfig struct {
	APSSID       string        `yaml:"ap_ssid"`
	APPassword   string        `yaml:"ap_password"` // empty: open access point
	APAddress    string        `yaml:"ap_address"`
	HTTPListen   string        `yaml:"http_listen"`
	DNSListen    string        `yaml:"dns_listen"`
	DisableDNS   bool          `yaml:"disable_dns"`   // skip the wildcard DNS responder
	RestartDelay time.Duration `yaml:"restart_delay"` // delay between commit and restart
}

// HeartbeatConfig configures liveness reporting.
type HeartbeatConfig struct {
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	AllowInsecureTLS *bool         `yaml:"allow_insecure_tls"` // default true
}

// InsecureTLS reports whether https heartbeats skip certificate validation.
func (h HeartbeatConfig) InsecureTLS() bool {
	return h.AllowInsecureTLS == nil || *h.AllowInsecureTLS
}

// StoreDriver selects the credential store implementation.
type StoreDriver string

const (
	StoreSQLite StoreDriver = "sqlite"
	StoreMemory StoreDriver = "memory"
)

// StoreConfig configures the persistent credential store.
type StoreConfig struct {
	Driver    StoreDriver `yaml:"driver"`
	Path      string      `yaml:"path"`
	Namespace string      `yaml:"namespace"`
}

// LoopConfig tunes the process loop.
type LoopConfig struct {
	Idle time.Duration `yaml:"idle"` // pause between steps with no work
}

// MetricsConfig configures the optional metrics listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = foundation.NewNormalizer(map[string]LogLevel{
	string(LogLevelDebug): LogLevelDebug,
	string(LogLevelInfo):  LogLevelInfo,
	string(LogLevelWarn):  LogLevelWarn,
	"warning":             LogLevelWarn,
	string(LogLevelError): LogLevelError,
}, "")

// NormalizeLogLevel returns the canonical level, or "" when raw is unknown.
func NormalizeLogLevel(raw string) LogLevel { return logLevels.Normalize(raw) }

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormats = foundation.NewNormalizer(map[string]LogFormat{
	string(LogFormatJSON): LogFormatJSON,
	string(LogFormatText): LogFormatText,
}, "")

// NormalizeLogFormat returns the canonical format, or "" when raw is unknown.
func NormalizeLogFormat(raw string) LogFormat { return logFormats.Normalize(raw) }

package config

import (
	"fmt"
	"net/netip"
	"slices"

	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
)

// configurationValidator checks a defaulted configuration section by section.
type configurationValidator struct {
	config *Config
}

// Validate returns a config-category error describing the first problem found.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

func (cv *configurationValidator) validate() error {
	checks := []func() error{
		cv.validateDevice,
		cv.validateReset,
		cv.validateNetwork,
		cv.validatePortal,
		cv.validateStore,
		cv.validateMetrics,
		cv.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateDevice() error {
	if cv.config.Device.Name == "" {
		return invalid("device.name", "must not be empty", "")
	}
	return nil
}

func (cv *configurationValidator) validateReset() error {
	r := cv.config.Reset
	switch r.Backend {
	case ButtonNone:
	case ButtonSysfs:
		if r.Path == "" {
			return invalid("reset.path", "required for the sysfs backend", "")
		}
	default:
		return invalid("reset.backend", "unsupported backend", string(r.Backend))
	}
	if r.Poll > r.Hold {
		return invalid("reset.poll", "must not exceed reset.hold", r.Poll.String())
	}
	return nil
}

func (cv *configurationValidator) validateNetwork() error {
	n := cv.config.Network
	switch n.Backend {
	case RadioNMCLI:
	case RadioSim:
		seen := make(map[string]struct{}, len(n.Sim.Networks))
		for _, sn := range n.Sim.Networks {
			if sn.SSID == "" {
				return invalid("network.sim.networks", "ssid must not be empty", "")
			}
			if _, dup := seen[sn.SSID]; dup {
				return invalid("network.sim.networks", "duplicate ssid", sn.SSID)
			}
			seen[sn.SSID] = struct{}{}
		}
		if _, err := netip.ParseAddr(n.Sim.IP); err != nil {
			return invalid("network.sim.ip", "not an IP address", n.Sim.IP)
		}
	default:
		return invalid("network.backend", "unsupported backend", string(n.Backend))
	}
	if n.Poll > n.BootBudget {
		return invalid("network.poll", "must not exceed network.boot_budget", n.Poll.String())
	}
	return nil
}

func (cv *configurationValidator) validatePortal() error {
	p := cv.config.Portal
	if p.APSSID == "" {
		return invalid("portal.ap_ssid", "must not be empty", "")
	}
	addr, err := netip.ParseAddr(p.APAddress)
	if err != nil || !addr.Is4() {
		return invalid("portal.ap_address", "must be an IPv4 address", p.APAddress)
	}
	// WPA2 passphrases are 8 to 63 characters; empty keeps the AP open.
	if n := len(p.APPassword); n != 0 && (n < 8 || n > 63) {
		return invalid("portal.ap_password", "must be empty or 8-63 characters", "")
	}
	return nil
}

func (cv *configurationValidator) validateStore() error {
	s := cv.config.Store
	if !slices.Contains([]StoreDriver{StoreSQLite, StoreMemory}, s.Driver) {
		return invalid("store.driver", "unsupported driver", string(s.Driver))
	}
	if s.Namespace == "" {
		return invalid("store.namespace", "must not be empty", "")
	}
	return nil
}

func (cv *configurationValidator) validateMetrics() error {
	m := cv.config.Metrics
	if m.Enabled && m.Path == "/healthz" {
		return invalid("metrics.path", "conflicts with /healthz", m.Path)
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	if NormalizeLogLevel(string(cv.config.Logging.Level)) == "" {
		return invalid("logging.level", "unsupported level", string(cv.config.Logging.Level))
	}
	if NormalizeLogFormat(string(cv.config.Logging.Format)) == "" {
		return invalid("logging.format", "unsupported format", string(cv.config.Logging.Format))
	}
	return nil
}

func invalid(field, reason, value string) error {
	b := errors.ConfigError(fmt.Sprintf("invalid %s: %s", field, reason)).
		WithContext("field", field)
	if value != "" {
		b = b.WithContext("value", value)
	}
	return b.Build()
}

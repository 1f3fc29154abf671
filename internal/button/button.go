// Package button reads the factory-reset button and decides whether a
// long press was made at boot.
package button

import (
	"bytes"
	"os"
)

// Button reports the logical pressed state of a momentary switch.
type Button interface {
	Pressed() (bool, error)
}

// None is a Button that is never pressed, for devices without one.
type None struct{}

func (None) Pressed() (bool, error) { return false, nil }

// Sysfs reads a GPIO value file such as /sys/class/gpio/gpio17/value.
//
// With ActiveLow set, a reading of "0" means pressed, matching a button wired
// to ground with a pull-up.
type Sysfs struct {
	Path      string
	ActiveLow bool
}

// NewSysfs returns a sysfs button for path.
func NewSysfs(path string, activeLow bool) *Sysfs {
	return &Sysfs{Path: path, ActiveLow: activeLow}
}

func (s *Sysfs) Pressed() (bool, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return false, err
	}
	high := bytes.HasPrefix(bytes.TrimSpace(raw), []byte("1"))
	if s.ActiveLow {
		return !high, nil
	}
	return high, nil
}

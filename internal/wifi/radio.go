// Package wifi drives the wireless interface: joining networks as a client,
// scanning, and hosting the provisioning access point.
package wifi

import (
	"context"
	"fmt"
)

// Network is one scan result.
type Network struct {
	SSID string
	RSSI int // dBm
}

func (n Network) String() string {
	return fmt.Sprintf("%s (%d dBm)", n.SSID, n.RSSI)
}

// LinkStatus describes the client link.
type LinkStatus struct {
	Connected bool
	IP        string
	RSSI      int // dBm; zero when unknown
}

// AccessPoint describes the provisioning access point.
type AccessPoint struct {
	SSID     string
	Password string // empty: open network
	Address  string // IPv4 address of the device on the AP network
}

// Radio is a wireless backend. Join only begins association; callers poll
// Status to learn the outcome.
type Radio interface {
	Disconnect(ctx context.Context) error
	SetHostname(ctx context.Context, hostname string) error
	Join(ctx context.Context, ssid, password string) error
	Status(ctx context.Context) (LinkStatus, error)
	Scan(ctx context.Context) ([]Network, error)
	StartAP(ctx context.Context, ap AccessPoint) error
	StopAP(ctx context.Context) error
}

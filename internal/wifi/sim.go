package wifi

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/onboard/internal/retry"
)

// SimNetwork is one network the simulated radio can see.
type SimNetwork struct {
	SSID     string
	Password string
	RSSI     int
}

// SimRadio is an in-memory Radio. A join succeeds JoinDelay after it begins
// when the SSID is visible and the password matches.
type SimRadio struct {
	Clock     retry.Clock
	JoinDelay time.Duration
	IP        string

	mu       sync.Mutex
	networks map[string]SimNetwork
	joining  *SimNetwork
	joinedAt time.Time
	hostname string
	ap       *AccessPoint

	// ScanErr, when set, is returned from Scan.
	ScanErr error
	// Joins records every SSID passed to Join.
	Joins []string
}

// NewSimRadio builds a simulated radio with the given visible networks.
func NewSimRadio(clock retry.Clock, joinDelay time.Duration, ip string, networks ...SimNetwork) *SimRadio {
	r := &SimRadio{Clock: clock, JoinDelay: joinDelay, IP: ip, networks: map[string]SimNetwork{}}
	for _, n := range networks {
		r.networks[n.SSID] = n
	}
	return r
}

// AddNetwork makes a network visible, replacing any with the same SSID.
func (r *SimRadio) AddNetwork(n SimNetwork) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.networks[n.SSID] = n
}

// RemoveNetwork makes a network disappear; an active link to it drops.
func (r *SimRadio) RemoveNetwork(ssid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.networks, ssid)
}

func (r *SimRadio) Disconnect(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joining = nil
	return nil
}

func (r *SimRadio) SetHostname(_ context.Context, hostname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hostname = hostname
	return nil
}

// Hostname returns the last hostname applied.
func (r *SimRadio) Hostname() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostname
}

func (r *SimRadio) Join(_ context.Context, ssid, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Joins = append(r.Joins, ssid)
	// Joining as a client takes the radio out of AP mode.
	r.ap = nil
	r.joining = &SimNetwork{SSID: ssid, Password: password}
	r.joinedAt = r.Clock.Now()
	return nil
}

func (r *SimRadio) Status(context.Context) (LinkStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.joining == nil {
		return LinkStatus{}, nil
	}
	n, ok := r.networks[r.joining.SSID]
	if !ok || n.Password != r.joining.Password {
		return LinkStatus{}, nil
	}
	if r.Clock.Now().Sub(r.joinedAt) < r.JoinDelay {
		return LinkStatus{}, nil
	}
	return LinkStatus{Connected: true, IP: r.IP, RSSI: n.RSSI}, nil
}

func (r *SimRadio) Scan(context.Context) ([]Network, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ScanErr != nil {
		return nil, r.ScanErr
	}
	out := make([]Network, 0, len(r.networks))
	for _, n := range r.networks {
		out = append(out, Network{SSID: n.SSID, RSSI: n.RSSI})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RSSI != out[j].RSSI {
			return out[i].RSSI > out[j].RSSI
		}
		return out[i].SSID < out[j].SSID
	})
	return out, nil
}

func (r *SimRadio) StartAP(_ context.Context, ap AccessPoint) error {
	if ap.SSID == "" {
		return fmt.Errorf("access point ssid is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joining = nil
	r.ap = &ap
	return nil
}

func (r *SimRadio) StopAP(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ap = nil
	return nil
}

// AP returns the running access point, if any.
func (r *SimRadio) AP() (AccessPoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ap == nil {
		return AccessPoint{}, false
	}
	return *r.ap, true
}

package wifi

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// apConnection is the NetworkManager connection profile used for the AP.
const apConnection = "onboard-ap"

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 -- binary path comes from configuration, arguments are never shell-expanded
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, bytes.TrimSpace(out))
	}
	return out, nil
}

// NMCLIRadio drives a NetworkManager-managed interface through nmcli.
type NMCLIRadio struct {
	Binary    string
	Interface string
	Run       Runner
}

// NewNMCLIRadio returns a radio for iface using the nmcli binary at path.
func NewNMCLIRadio(binary, iface string) *NMCLIRadio {
	return &NMCLIRadio{Binary: binary, Interface: iface, Run: ExecRunner}
}

func (r *NMCLIRadio) nmcli(ctx context.Context, args ...string) ([]byte, error) {
	return r.Run(ctx, r.Binary, args...)
}

func (r *NMCLIRadio) Disconnect(ctx context.Context) error {
	_, err := r.nmcli(ctx, "device", "disconnect", r.Interface)
	return err
}

func (r *NMCLIRadio) SetHostname(ctx context.Context, hostname string) error {
	_, err := r.nmcli(ctx, "general", "hostname", hostname)
	return err
}

// Join starts association without waiting for it to complete.
func (r *NMCLIRadio) Join(ctx context.Context, ssid, password string) error {
	args := []string{"--wait", "0", "device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", r.Interface)
	_, err := r.nmcli(ctx, args...)
	return err
}

func (r *NMCLIRadio) Status(ctx context.Context) (LinkStatus, error) {
	out, err := r.nmcli(ctx, "--terse", "--fields", "GENERAL.STATE,IP4.ADDRESS", "device", "show", r.Interface)
	if err != nil {
		return LinkStatus{}, err
	}
	st := parseDeviceShow(out)
	if !st.Connected {
		return st, nil
	}
	// Signal strength is best effort; a failing list leaves RSSI at zero.
	if list, err := r.nmcli(ctx, "--terse", "--fields", "IN-USE,SIGNAL", "device", "wifi", "list", "ifname", r.Interface, "--rescan", "no"); err == nil {
		for _, fields := range splitTerse(list) {
			if len(fields) == 2 && fields[0] == "*" {
				st.RSSI = signalToDBm(fields[1])
			}
		}
	}
	return st, nil
}

func (r *NMCLIRadio) Scan(ctx context.Context) ([]Network, error) {
	out, err := r.nmcli(ctx, "--terse", "--fields", "SSID,SIGNAL", "device", "wifi", "list", "ifname", r.Interface, "--rescan", "yes")
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var nets []Network
	for _, fields := range splitTerse(out) {
		if len(fields) != 2 || fields[0] == "" || seen[fields[0]] {
			continue
		}
		seen[fields[0]] = true
		nets = append(nets, Network{SSID: fields[0], RSSI: signalToDBm(fields[1])})
	}
	return nets, nil
}

func (r *NMCLIRadio) StartAP(ctx context.Context, ap AccessPoint) error {
	// A stale profile from a previous run would make "add" fail.
	_, _ = r.nmcli(ctx, "connection", "delete", apConnection)

	args := []string{
		"connection", "add", "type", "wifi", "ifname", r.Interface,
		"con-name", apConnection, "autoconnect", "no", "ssid", ap.SSID,
		"802-11-wireless.mode", "ap",
		"ipv4.method", "shared", "ipv4.addresses", ap.Address + "/24",
	}
	if ap.Password != "" {
		args = append(args, "wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", ap.Password)
	}
	if _, err := r.nmcli(ctx, args...); err != nil {
		return err
	}
	_, err := r.nmcli(ctx, "connection", "up", apConnection)
	return err
}

func (r *NMCLIRadio) StopAP(ctx context.Context) error {
	_, err := r.nmcli(ctx, "connection", "down", apConnection)
	return err
}

// parseDeviceShow reads terse "device show" output.
func parseDeviceShow(out []byte) LinkStatus {
	var st LinkStatus
	for _, line := range strings.Split(string(out), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		switch {
		case key == "GENERAL.STATE":
			// "100 (connected)"
			code, _, _ := strings.Cut(value, " ")
			st.Connected = code == "100"
		case strings.HasPrefix(key, "IP4.ADDRESS") && st.IP == "":
			ip, _, _ := strings.Cut(value, "/")
			st.IP = ip
		}
	}
	return st
}

// splitTerse splits nmcli terse output into fields, honouring "\:" escapes.
func splitTerse(out []byte) [][]string {
	var rows [][]string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var (
			fields []string
			cur    strings.Builder
		)
		for i := 0; i < len(line); i++ {
			switch c := line[i]; {
			case c == '\\' && i+1 < len(line):
				i++
				cur.WriteByte(line[i])
			case c == ':':
				fields = append(fields, cur.String())
				cur.Reset()
			default:
				cur.WriteByte(c)
			}
		}
		fields = append(fields, cur.String())
		rows = append(rows, fields)
	}
	return rows
}

// signalToDBm converts NetworkManager's 0-100 quality to an approximate dBm.
func signalToDBm(raw string) int {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return -100
	}
	q = max(0, min(q, 100))
	return q/2 - 100
}

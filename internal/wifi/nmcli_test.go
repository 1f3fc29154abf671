package wifi

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   []string
	outputs map[string]string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, line)
	for prefix, out := range f.outputs {
		if strings.HasPrefix(line, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func newFakeNMCLI(outputs map[string]string) (*NMCLIRadio, *fakeRunner) {
	f := &fakeRunner{outputs: outputs}
	return &NMCLIRadio{Binary: "nmcli", Interface: "wlan0", Run: f.run}, f
}

func TestNMCLI_JoinArguments(t *testing.T) {
	r, f := newFakeNMCLI(nil)
	require.NoError(t, r.Join(context.Background(), "My Net", "pw"))
	require.NoError(t, r.Join(context.Background(), "Open", ""))
	assert.Equal(t, []string{
		"nmcli --wait 0 device wifi connect My Net password pw ifname wlan0",
		"nmcli --wait 0 device wifi connect Open ifname wlan0",
	}, f.calls)
}

func TestNMCLI_StatusConnected(t *testing.T) {
	r, _ := newFakeNMCLI(map[string]string{
		"nmcli --terse --fields GENERAL.STATE": "GENERAL.STATE:100 (connected)\nIP4.ADDRESS[1]:192.168.1.23/24\n",
		"nmcli --terse --fields IN-USE,SIGNAL": " :40\n*:80\n",
	})
	st, err := r.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LinkStatus{Connected: true, IP: "192.168.1.23", RSSI: -60}, st)
}

func TestNMCLI_StatusDisconnected(t *testing.T) {
	r, f := newFakeNMCLI(map[string]string{
		"nmcli --terse --fields GENERAL.STATE": "GENERAL.STATE:30 (disconnected)\n",
	})
	st, err := r.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Connected)
	assert.Len(t, f.calls, 1)
}

func TestNMCLI_ScanHandlesEscapesAndDuplicates(t *testing.T) {
	r, _ := newFakeNMCLI(map[string]string{
		"nmcli --terse --fields SSID,SIGNAL": "Cafe\\:Guest:70\nHome:90\nHome:50\n:30\n",
	})
	nets, err := r.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Network{{SSID: "Cafe:Guest", RSSI: -65}, {SSID: "Home", RSSI: -55}}, nets)
}

func TestNMCLI_StartAPOpenAndSecured(t *testing.T) {
	r, f := newFakeNMCLI(nil)
	require.NoError(t, r.StartAP(context.Background(), AccessPoint{SSID: "ESP32_Setup", Address: "192.168.4.1"}))
	require.Len(t, f.calls, 3)
	assert.NotContains(t, f.calls[1], "wifi-sec.psk")
	assert.Contains(t, f.calls[1], "ipv4.addresses 192.168.4.1/24")
	assert.Equal(t, "nmcli connection up onboard-ap", f.calls[2])

	f.calls = nil
	require.NoError(t, r.StartAP(context.Background(), AccessPoint{SSID: "ESP32_Setup", Password: "password1", Address: "192.168.4.1"}))
	assert.Contains(t, f.calls[1], "wifi-sec.psk password1")
}

func TestSignalToDBm(t *testing.T) {
	assert.Equal(t, -100, signalToDBm("0"))
	assert.Equal(t, -50, signalToDBm("100"))
	assert.Equal(t, -50, signalToDBm("150"))
	assert.Equal(t, -100, signalToDBm("n/a"))
}

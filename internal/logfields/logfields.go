package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBootID     = "boot_id"
	KeyMode       = "mode"
	KeySSID       = "ssid"
	KeyEndpoint   = "endpoint"
	KeyIP         = "ip"
	KeyRSSI       = "rssi"
	KeyStatusCode = "status_code"
	KeyDurationMS = "duration_ms"
	KeyHoldMS     = "hold_ms"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyRemoteAddr = "remote_addr"
	KeyNamespace  = "namespace"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BootID(id string) slog.Attr       { return slog.String(KeyBootID, id) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func SSID(s string) slog.Attr          { return slog.String(KeySSID, s) }
func Endpoint(u string) slog.Attr      { return slog.String(KeyEndpoint, u) }
func IP(ip string) slog.Attr           { return slog.String(KeyIP, ip) }
func RSSI(dbm int) slog.Attr           { return slog.Int(KeyRSSI, dbm) }
func StatusCode(code int) slog.Attr    { return slog.Int(KeyStatusCode, code) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Namespace(ns string) slog.Attr    { return slog.String(KeyNamespace, ns) }
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(KeyDurationMS, d.Milliseconds())
}
func HoldMS(d time.Duration) slog.Attr { return slog.Int64(KeyHoldMS, d.Milliseconds()) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

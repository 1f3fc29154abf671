// Package heartbeat reports device liveness to the configured endpoint.
package heartbeat

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Heartbeat is one liveness report.
type Heartbeat struct {
	Device   string `json:"device"`
	IP       string `json:"ip"`
	RSSI     int    `json:"rssi"`
	UptimeMS int64  `json:"uptime_ms"`
}

// Delivery describes what the endpoint answered.
type Delivery struct {
	StatusCode int // zero for transports without status codes
}

// Sender performs one delivery attempt with no retry.
type Sender interface {
	Send(ctx context.Context, endpoint string, hb Heartbeat) (Delivery, error)
}

// BuildURL appends the heartbeat parameters to endpoint. When endpoint already
// carries a query the parameters are joined with "&".
func BuildURL(endpoint string, hb Heartbeat) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteString(sep)
	b.WriteString("device=")
	b.WriteString(url.QueryEscape(hb.Device))
	b.WriteString("&ip=")
	b.WriteString(url.QueryEscape(hb.IP))
	b.WriteString("&rssi=")
	b.WriteString(strconv.Itoa(hb.RSSI))
	b.WriteString("&uptime_ms=")
	b.WriteString(strconv.FormatInt(hb.UptimeMS, 10))
	return b.String()
}

package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSSender publishes heartbeats to nats://host:port/<subject>.
// Each send opens its own connection; heartbeats are minutes apart.
type NATSSender struct {
	Timeout time.Duration
}

// ParseNATSEndpoint splits a nats:// endpoint into server URL and subject.
func ParseNATSEndpoint(endpoint string) (server, subject string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "nats" || u.Host == "" {
		return "", "", fmt.Errorf("not a nats endpoint: %q", endpoint)
	}
	subject = strings.TrimPrefix(u.Path, "/")
	subject = strings.ReplaceAll(subject, "/", ".")
	if subject == "" {
		return "", "", fmt.Errorf("nats endpoint %q has no subject", endpoint)
	}
	srv := url.URL{Scheme: "nats", Host: u.Host, User: u.User}
	return srv.String(), subject, nil
}

func (s *NATSSender) Send(ctx context.Context, endpoint string, hb Heartbeat) (Delivery, error) {
	server, subject, err := ParseNATSEndpoint(endpoint)
	if err != nil {
		return Delivery{}, err
	}
	data, err := json.Marshal(hb)
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to marshal heartbeat: %w", err)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	conn, err := nats.Connect(server,
		nats.Name("onboard-heartbeat"),
		nats.Timeout(timeout),
		nats.NoReconnect(),
	)
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer conn.Close()

	if err := conn.Publish(subject, data); err != nil {
		return Delivery{}, fmt.Errorf("failed to publish heartbeat: %w", err)
	}
	flushCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := conn.FlushWithContext(flushCtx); err != nil {
		return Delivery{}, fmt.Errorf("failed to flush heartbeat: %w", err)
	}
	return Delivery{}, nil
}

// Router picks a Sender by endpoint scheme.
type Router struct {
	HTTP Sender
	NATS Sender
}

func (r Router) Send(ctx context.Context, endpoint string, hb Heartbeat) (Delivery, error) {
	switch {
	case strings.HasPrefix(endpoint, "https://"), strings.HasPrefix(endpoint, "http://"):
		return r.HTTP.Send(ctx, endpoint, hb)
	case strings.HasPrefix(endpoint, "nats://") && r.NATS != nil:
		return r.NATS.Send(ctx, endpoint, hb)
	default:
		return Delivery{}, fmt.Errorf("unsupported endpoint scheme: %q", endpoint)
	}
}

package heartbeat

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"
)

// HTTPSender issues heartbeat GET requests over http or https.
type HTTPSender struct {
	Client *http.Client
}

// NewHTTPSender builds a sender. With insecureTLS, https endpoints are
// contacted without certificate validation.
func NewHTTPSender(timeout time.Duration, insecureTLS bool) *HTTPSender {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// #nosec G402 -- devices are commonly pointed at self-signed endpoints
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecureTLS}
	return &HTTPSender{Client: &http.Client{Timeout: timeout, Transport: transport}}
}

func (s *HTTPSender) Send(ctx context.Context, endpoint string, hb Heartbeat) (Delivery, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BuildURL(endpoint, hb), nil)
	if err != nil {
		return Delivery{}, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return Delivery{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return Delivery{StatusCode: resp.StatusCode}, nil
}

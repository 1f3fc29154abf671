package credstore

import (
	"context"
	"strings"
)

// Persisted field names inside a namespace.
const (
	FieldSSID     = "ssid"
	FieldPassword = "pass"
	FieldEndpoint = "api"
)

// Credentials are the network and reporting settings acquired during provisioning.
type Credentials struct {
	SSID     string
	Password string
	Endpoint string
}

// IsConfigured reports whether both the SSID and the endpoint are present.
// The password may legitimately be empty for open networks.
func (c Credentials) IsConfigured() bool {
	return c.SSID != "" && c.Endpoint != ""
}

// Masked returns a copy suitable for display with the password hidden.
func (c Credentials) Masked() Credentials {
	if c.Password != "" {
		c.Password = strings.Repeat("*", 8)
	}
	return c
}

// Store persists a single credential set.
//
// Save and Clear are atomic: a reader never observes a partially written or
// partially cleared set. Load returns empty fields for anything never written.
type Store interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, c Credentials) error
	Clear(ctx context.Context) error
	Close() error
}

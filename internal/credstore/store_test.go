package credstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
)

func newSQLite(t *testing.T, path, ns string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(path, ns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_EmptyLoad(t *testing.T) {
	s := newSQLite(t, ":memory:", "net")
	c, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, c)
	assert.False(t, c.IsConfigured())
}

func TestSQLiteStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t, ":memory:", "net")

	want := Credentials{SSID: "Home", Password: "secret", Endpoint: "https://h/hb"}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Loading twice with no intervening write returns identical values.
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, got)
}

func TestSQLiteStore_OverwriteReplacesAllFields(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t, ":memory:", "net")
	require.NoError(t, s.Save(ctx, Credentials{SSID: "A", Password: "p", Endpoint: "http://a"}))
	require.NoError(t, s.Save(ctx, Credentials{SSID: "B", Endpoint: "http://b"}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credentials{SSID: "B", Endpoint: "http://b"}, got)
}

func TestSQLiteStore_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "onboard.db")
	a := newSQLite(t, path, "net")
	require.NoError(t, a.Save(ctx, Credentials{SSID: "Home", Endpoint: "http://h"}))
	require.NoError(t, a.Close())

	b := newSQLite(t, path, "other")
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, got)
	require.NoError(t, b.Clear(ctx))
	require.NoError(t, b.Close())

	reopened := newSQLite(t, path, "net")
	got, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Home", got.SSID)
}

func TestSQLiteStore_CancelledContextIsStorageError(t *testing.T) {
	s := newSQLite(t, ":memory:", "net")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, Credentials{SSID: "x", Endpoint: "y"})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryStorage, errors.GetCategory(err))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, got)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(Credentials{SSID: "s", Endpoint: "e"})
	c, err := m.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsConfigured())

	m.FailSave = assert.AnError
	require.ErrorIs(t, m.Save(ctx, Credentials{SSID: "new"}), assert.AnError)
	c, _ = m.Load(ctx)
	assert.Equal(t, "s", c.SSID)
	assert.Zero(t, m.Saves)

	require.NoError(t, m.Clear(ctx))
	c, _ = m.Load(ctx)
	assert.False(t, c.IsConfigured())
}

func TestCredentials_Masked(t *testing.T) {
	c := Credentials{SSID: "Home", Password: "secret", Endpoint: "e"}
	assert.Equal(t, "********", c.Masked().Password)
	assert.Equal(t, "secret", c.Password)
	assert.Empty(t, Credentials{}.Masked().Password)
}

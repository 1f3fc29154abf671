package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
)

// SQLiteStore implements Store as a namespaced key/value table in SQLite.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
	mu        sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath, namespace string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "open sqlite database").
			WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases stable across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, namespace: namespace}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryStorage, "initialize schema").
			WithContext("path", dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (namespace, key)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Namespace returns the key namespace this store reads and writes.
func (s *SQLiteStore) Namespace() string { return s.namespace }

// Load reads the credential fields. Missing keys read as empty strings.
func (s *SQLiteStore) Load(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM kv WHERE namespace = ?", s.namespace)
	if err != nil {
		return Credentials{}, s.storageErr(err, "query credentials")
	}
	defer rows.Close()

	var c Credentials
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Credentials{}, s.storageErr(err, "scan credential row")
		}
		switch key {
		case FieldSSID:
			c.SSID = value
		case FieldPassword:
			c.Password = value
		case FieldEndpoint:
			c.Endpoint = value
		}
	}
	if err := rows.Err(); err != nil {
		return Credentials{}, s.storageErr(err, "iterate credential rows")
	}
	return c, nil
}

// Save writes all three fields in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, "save credentials", func(tx *sql.Tx) error {
		fields := [][2]string{
			{FieldSSID, c.SSID},
			{FieldPassword, c.Password},
			{FieldEndpoint, c.Endpoint},
		}
		for _, f := range fields {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO kv (namespace, key, value) VALUES (?, ?, ?)
				 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value`,
				s.namespace, f[0], f[1]); err != nil {
				return fmt.Errorf("write %s: %w", f[0], err)
			}
		}
		return nil
	})
}

// Clear removes every key in the namespace.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, "clear credentials", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE namespace = ?", s.namespace)
		return err
	})
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.storageErr(err, op)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return s.storageErr(err, op)
	}
	if err := tx.Commit(); err != nil {
		return s.storageErr(err, op)
	}
	return nil
}

func (s *SQLiteStore) storageErr(err error, msg string) error {
	return errors.WrapError(err, errors.CategoryStorage, msg).
		WithContext("namespace", s.namespace).Build()
}

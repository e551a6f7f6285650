package kv

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"go.trai.ch/zerr"
)

// sqliteMaxVars stays below SQLITE_MAX_VARIABLE_NUMBER on old builds.
const sqliteMaxVars = 500

type sqliteMigration struct {
	version int
	name    string
	stmt    string
}

var sqliteMigrations = []sqliteMigration{
	{
		version: 1,
		name:    "kv_table",
		stmt: `CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
}

// SQLiteStore keeps keys in a single sqlite table.
type SQLiteStore struct {
	db     *sql.DB
	upsert *sql.Stmt
}

// OpenSQLite opens (or creates) the database at path and applies pending migrations.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", path)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", path)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", path)
	}

	upsert, err := db.Prepare(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		_ = db.Close()
		return nil, zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	return &SQLiteStore{db: db, upsert: upsert}, nil
}

func migrateSQLite(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return zerr.Wrap(err, "set WAL mode")
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return zerr.Wrap(err, "create schema_migrations table")
	}

	for _, m := range sqliteMigrations {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.version).
			Scan(&count); err != nil {
			return zerr.With(zerr.Wrap(err, "check migration"), "version", m.version)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return zerr.Wrap(err, "begin migration")
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			_ = tx.Rollback()
			return zerr.With(zerr.Wrap(err, "apply migration"), "name", m.name)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
			_ = tx.Rollback()
			return zerr.With(zerr.Wrap(err, "record migration"), "name", m.name)
		}
		if err := tx.Commit(); err != nil {
			return zerr.Wrap(err, "commit migration")
		}
	}
	return nil
}

// Get selects keys in chunks.
func (s *SQLiteStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for chunk := range slices.Chunk(keys, sqliteMaxVars) {
		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}

		//nolint:gosec // Only placeholders are interpolated
		query := "SELECT key, value FROM kv WHERE key IN (" + placeholders(len(chunk)) + ")"
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
		}
		for rows.Next() {
			var (
				key   string
				value []byte
			)
			if err := rows.Scan(&key, &value); err != nil {
				_ = rows.Close()
				return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
			}
			out[key] = value
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
		}
	}
	return out, nil
}

// Set upserts values in one transaction.
func (s *SQLiteStore) Set(ctx context.Context, values map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	stmt := tx.StmtContext(ctx, s.upsert)
	for k, v := range values {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			_ = tx.Rollback()
			return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", k)
		}
	}
	if err := tx.Commit(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// Remove deletes keys in chunks.
func (s *SQLiteStore) Remove(ctx context.Context, keys []string) error {
	for chunk := range slices.Chunk(keys, sqliteMaxVars) {
		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}
		//nolint:gosec // Only placeholders are interpolated
		query := "DELETE FROM kv WHERE key IN (" + placeholders(len(chunk)) + ")"
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error())
		}
	}
	return nil
}

// Keys returns the sorted keys starting with prefix.
func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key", len(prefix), prefix)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	return keys, nil
}

// Close releases the prepared statement and the database.
func (s *SQLiteStore) Close() error {
	_ = s.upsert.Close()
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

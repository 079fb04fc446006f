package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Connection pragmas applied on every new SQLite connection. WAL keeps the
// metrics writer from blocking API reads; the busy timeout covers the brief
// checkpoint windows.
var pragmas = []string{
	"foreign_keys(ON)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// DB is the panel's SQLite handle.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the SQLite database at path and verifies
// the connection.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn, err := dsnFor(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single panel serves one admin; a small pool is plenty.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// dsnFor builds a file URI carrying the connection pragmas.
func dsnFor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}

	// SQLite file URIs take forward slashes on every platform.
	abs = strings.ReplaceAll(abs, "\\", "/")

	return "file:" + abs + "?_pragma=" + strings.Join(pragmas, "&_pragma="), nil
}

// Migrate brings the schema up to date, applying each pending migration in
// its own transaction.
func (db *DB) Migrate() error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedVersions()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := db.apply(m); err != nil {
			return err
		}
		log.Printf("[database] applied migration %s", m.Version)
	}

	return nil
}

func (db *DB) apply(m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(m.Up); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))",
		m.Version,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
	}

	return tx.Commit()
}

func (db *DB) appliedVersions() (map[string]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// Package index provides the SQLite-backed waymark cache with optional FTS5
// full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	language   TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS waymarks (
	file       TEXT    NOT NULL,
	start_line INTEGER NOT NULL,
	end_line   INTEGER NOT NULL,
	type       TEXT    NOT NULL,
	flagged    INTEGER NOT NULL DEFAULT 0,
	starred    INTEGER NOT NULL DEFAULT 0,
	content    TEXT    NOT NULL DEFAULT '',
	mentions   TEXT    NOT NULL DEFAULT '[]',
	tags       TEXT    NOT NULL DEFAULT '[]',
	record     TEXT    NOT NULL,
	PRIMARY KEY (file, start_line)
);

CREATE INDEX IF NOT EXISTS idx_waymarks_type ON waymarks(type);

CREATE TABLE IF NOT EXISTS relations (
	file       TEXT    NOT NULL,
	start_line INTEGER NOT NULL,
	kind       TEXT    NOT NULL,
	token      TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_relations_file ON relations(file);
CREATE INDEX IF NOT EXISTS idx_relations_token ON relations(token);

CREATE TABLE IF NOT EXISTS canonicals (
	token      TEXT    NOT NULL,
	file       TEXT    NOT NULL,
	start_line INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_canonicals_file ON canonicals(file);
CREATE INDEX IF NOT EXISTS idx_canonicals_token ON canonicals(token);

CREATE TABLE IF NOT EXISTS ids (
	id          TEXT PRIMARY KEY,
	file        TEXT     NOT NULL,
	line        INTEGER  NOT NULL,
	fingerprint TEXT     NOT NULL,
	reserved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps a sql.DB with cache-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

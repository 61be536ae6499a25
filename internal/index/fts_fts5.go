//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/outfitter-dev/waymark/internal/grammar"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS waymarks_fts USING fts5(
			file UNINDEXED,
			start_line UNINDEXED,
			type,
			content,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, file string, r grammar.Record) error {
	_, err := tx.Exec(`INSERT INTO waymarks_fts (file, start_line, type, content, tags) VALUES (?, ?, ?, ?, ?)`,
		file, r.StartLine, r.Type, r.ContentText, strings.Join(r.Tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, file string) error {
	if _, err := tx.Exec(`DELETE FROM waymarks_fts WHERE file = ?`, file); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching waymarks
// with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT file,
		       start_line,
		       type,
		       snippet(waymarks_fts, 3, '<b>', '</b>', '...', 32)
		FROM waymarks_fts
		WHERE waymarks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.File, &r.Line, &r.Type, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/outfitter-dev/waymark/internal/grammar"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over waymarks.content.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ string, _ grammar.Record) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT file, start_line, type, substr(content, 1, 200)
		FROM waymarks
		WHERE content LIKE ? OR type LIKE ? OR tags LIKE ?
		ORDER BY file, start_line
		LIMIT ?
	`, like, like, like, limit)
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

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/models"
)

// FileRow represents a row in the files table.
type FileRow struct {
	Path      string
	Checksum  string
	Language  string
	Category  grammar.Category
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Type    string `json:"type"`
	Snippet string `json:"snippet"`
}

// Filter narrows Query results. Zero fields match everything.
type Filter struct {
	Type    string
	Tag     string
	Mention string
	// File matches a path exactly, or every path under it when it ends in "/".
	File    string
	Flagged bool
	Starred bool
	Limit   int
}

// Stats counts cached rows.
type Stats struct {
	Files    int `json:"files"`
	Waymarks int `json:"waymarks"`
	Edges    int `json:"edges"`
}

// UpsertFile replaces a file row and all of its waymarks, relations and
// canonicals within a transaction.
func (db *DB) UpsertFile(f FileRow, recs []grammar.Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now().UTC()
	}
	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, language, category, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			language   = excluded.language,
			category   = excluded.category,
			updated_at = excluded.updated_at
	`, f.Path, f.Checksum, f.Language, string(f.Category), f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	if err := clearFile(tx, f.Path); err != nil {
		return err
	}
	if err := insertWaymarks(tx, f.Path, recs); err != nil {
		return err
	}
	return tx.Commit()
}

func clearFile(tx *sql.Tx, path string) error {
	for _, q := range []string{
		`DELETE FROM waymarks WHERE file = ?`,
		`DELETE FROM relations WHERE file = ?`,
		`DELETE FROM canonicals WHERE file = ?`,
	} {
		if _, err := tx.Exec(q, path); err != nil {
			return fmt.Errorf("index: clear file: %w", err)
		}
	}
	return ftsDelete(tx, path)
}

func insertWaymarks(tx *sql.Tx, path string, recs []grammar.Record) error {
	if len(recs) == 0 {
		return nil
	}
	wStmt, err := tx.Prepare(`
		INSERT INTO waymarks (file, start_line, end_line, type, flagged, starred, content, mentions, tags, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare waymark insert: %w", err)
	}
	defer wStmt.Close()
	rStmt, err := tx.Prepare(`INSERT INTO relations (file, start_line, kind, token) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare relation insert: %w", err)
	}
	defer rStmt.Close()
	cStmt, err := tx.Prepare(`INSERT INTO canonicals (token, file, start_line) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare canonical insert: %w", err)
	}
	defer cStmt.Close()

	for _, r := range recs {
		r.File = path
		record, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("index: encode record: %w", err)
		}
		mentions, _ := json.Marshal(r.Mentions)
		tags, _ := json.Marshal(r.Tags)
		if _, err := wStmt.Exec(path, r.StartLine, r.EndLine, r.Type, r.Signals.Flagged, r.Signals.Starred,
			r.ContentText, string(mentions), string(tags), string(record)); err != nil {
			return fmt.Errorf("index: insert waymark: %w", err)
		}
		for _, rel := range r.Relations {
			if _, err := rStmt.Exec(path, r.StartLine, rel.Kind, rel.Token); err != nil {
				return fmt.Errorf("index: insert relation: %w", err)
			}
		}
		for _, tok := range r.Canonicals {
			if _, err := cStmt.Exec(tok, path, r.StartLine); err != nil {
				return fmt.Errorf("index: insert canonical: %w", err)
			}
		}
		if err := ftsUpsert(tx, path, r); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFile removes a file and everything derived from it.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := clearFile(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete file: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a file, or "" if it is not
// cached.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every cached file keyed by path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Query returns cached waymarks matching f in file and line order.
func (db *DB) Query(ctx context.Context, f Filter) ([]grammar.Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		typ := strings.ToLower(f.Type)
		if canon, ok := grammar.CanonicalMarker(typ); ok {
			typ = canon
		}
		where = append(where, `w.type IN (SELECT value FROM json_each(?))`)
		args = append(args, typesJSON(typ))
	}
	if f.Tag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(w.tags) WHERE lower(json_each.value) = ?)`)
		args = append(args, "#"+strings.ToLower(strings.TrimPrefix(f.Tag, "#")))
	}
	if f.Mention != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(w.mentions) WHERE lower(json_each.value) = ?)`)
		args = append(args, "@"+strings.ToLower(strings.TrimPrefix(f.Mention, "@")))
	}
	if f.File != "" {
		if strings.HasSuffix(f.File, "/") {
			where = append(where, `substr(w.file, 1, ?) = ?`)
			args = append(args, len(f.File), f.File)
		} else {
			where = append(where, `w.file = ?`)
			args = append(args, f.File)
		}
	}
	if f.Flagged {
		where = append(where, `w.flagged = 1`)
	}
	if f.Starred {
		where = append(where, `w.starred = 1`)
	}

	q := `SELECT w.record FROM waymarks w`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY w.file, w.start_line`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query: %w", err)
	}
	defer rows.Close()

	out := []grammar.Record{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var r grammar.Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("index: decode record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// typesJSON lists a canonical marker and its aliases as a JSON array.
func typesJSON(canon string) string {
	types := []string{canon}
	for _, m := range grammar.Markers() {
		if m.Name == canon {
			types = append(types, m.Aliases...)
		}
	}
	b, _ := json.Marshal(types)
	return string(b)
}

// Graph returns every relation edge and every declared canonical.
func (db *DB) Graph(ctx context.Context) ([]models.Edge, []models.Anchor, error) {
	edges, err := db.edges(ctx, `SELECT file, start_line, kind, token FROM relations ORDER BY file, start_line`)
	if err != nil {
		return nil, nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `SELECT token, file, start_line FROM canonicals ORDER BY token, file, start_line`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph anchors: %w", err)
	}
	defer rows.Close()
	anchors := []models.Anchor{}
	for rows.Next() {
		var a models.Anchor
		if err := rows.Scan(&a.Token, &a.File, &a.Line); err != nil {
			return nil, nil, err
		}
		anchors = append(anchors, a)
	}
	return edges, anchors, rows.Err()
}

// Backlinks returns every relation pointing at token.
func (db *DB) Backlinks(token string) ([]models.Edge, error) {
	tok := grammar.NormalizeToken(token)
	return db.edges(context.Background(),
		`SELECT file, start_line, kind, token FROM relations WHERE token = ? ORDER BY file, start_line`, tok)
}

func (db *DB) edges(ctx context.Context, q string, args ...any) ([]models.Edge, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: edges: %w", err)
	}
	defer rows.Close()

	out := []models.Edge{}
	for rows.Next() {
		var e models.Edge
		if err := rows.Scan(&e.File, &e.Line, &e.Kind, &e.Token); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats counts cached files, waymarks and edges.
func (db *DB) Stats() (Stats, error) {
	var s Stats
	err := db.conn.QueryRow(`
		SELECT (SELECT count(*) FROM files),
		       (SELECT count(*) FROM waymarks),
		       (SELECT count(*) FROM relations)
	`).Scan(&s.Files, &s.Waymarks, &s.Edges)
	if err != nil {
		return Stats{}, fmt.Errorf("index: stats: %w", err)
	}
	return s, nil
}

package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/outfitter-dev/waymark/internal/apperr"
	"github.com/outfitter-dev/waymark/internal/ids"
)

// idTable persists id reservations in the ids table.
type idTable struct {
	conn *sql.DB
}

// IDs returns the cache's id reservation store.
func (db *DB) IDs() ids.Store {
	return idTable{conn: db.conn}
}

func (t idTable) Reserve(ctx context.Context, e ids.Entry) error {
	tx, err := t.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var file, fp string
	err = tx.QueryRowContext(ctx, `SELECT file, fingerprint FROM ids WHERE id = ?`, e.ID).Scan(&file, &fp)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("index: lookup id: %w", err)
	case file != e.File || fp != e.Fingerprint:
		return apperr.ErrAlreadyExists
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ids (id, file, line, fingerprint, reserved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET line = excluded.line
	`, e.ID, e.File, e.Line, e.Fingerprint, e.ReservedAt)
	if err != nil {
		return fmt.Errorf("index: reserve id: %w", err)
	}
	return tx.Commit()
}

func (t idTable) Lookup(ctx context.Context, id string) (ids.Entry, error) {
	e := ids.Entry{ID: id}
	err := t.conn.QueryRowContext(ctx, `SELECT file, line, fingerprint, reserved_at FROM ids WHERE id = ?`, id).
		Scan(&e.File, &e.Line, &e.Fingerprint, &e.ReservedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ids.Entry{}, apperr.ErrNotFound
	}
	if err != nil {
		return ids.Entry{}, fmt.Errorf("index: lookup id: %w", err)
	}
	return e, nil
}

func (t idTable) Release(ctx context.Context, id string) error {
	if _, err := t.conn.ExecContext(ctx, `DELETE FROM ids WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: release id: %w", err)
	}
	return nil
}

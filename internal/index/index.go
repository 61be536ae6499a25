package index

import (
	"context"

	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/ids"
	"github.com/outfitter-dev/waymark/internal/models"
)

// WaymarkIndex defines the cache operations used by the service layers.
// Consumers depend on this interface rather than the concrete *DB.
type WaymarkIndex interface {
	UpsertFile(f FileRow, recs []grammar.Record) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Query(ctx context.Context, f Filter) ([]grammar.Record, error)
	Search(query string, limit int) ([]SearchResult, error)
	Graph(ctx context.Context) ([]models.Edge, []models.Anchor, error)
	Backlinks(token string) ([]models.Edge, error)
	Stats() (Stats, error)
	IDs() ids.Store
	Close() error
}

// Verify *DB satisfies WaymarkIndex at compile time.
var _ WaymarkIndex = (*DB)(nil)

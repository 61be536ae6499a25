// Package markservice coordinates storage, the cache and the editor for the
// HTTP and MCP front ends.
package markservice

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/outfitter-dev/waymark/internal/apperr"
	"github.com/outfitter-dev/waymark/internal/checksum"
	"github.com/outfitter-dev/waymark/internal/edit"
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/index"
	"github.com/outfitter-dev/waymark/internal/lint"
	"github.com/outfitter-dev/waymark/internal/models"
	"github.com/outfitter-dev/waymark/internal/scan"
	"github.com/outfitter-dev/waymark/internal/storage"
)

// FileDetail is the live parse of one file.
type FileDetail struct {
	Path     string           `json:"path"`
	Language string           `json:"language"`
	Category grammar.Category `json:"category"`
	Checksum string           `json:"checksum"`
	Waymarks []grammar.Record `json:"waymarks"`
}

// Graph is every relation edge plus the canonical anchors they point at.
type Graph struct {
	Edges   []models.Edge   `json:"edges"`
	Anchors []models.Anchor `json:"anchors"`
}

// Service coordinates storage and cache operations.
type Service struct {
	store   storage.Provider
	db      index.WaymarkIndex
	scanner *scan.Scanner
	editor  *edit.Editor
	linter  *lint.Linter
}

// NewService creates a new waymark service.
func NewService(store storage.Provider, db index.WaymarkIndex, scanner *scan.Scanner, editor *edit.Editor, linter *lint.Linter) *Service {
	return &Service{store: store, db: db, scanner: scanner, editor: editor, linter: linter}
}

// ScanFile reads path from storage and parses it without touching the cache.
func (s *Service) ScanFile(_ context.Context, path string) (*FileDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	lang, cat := s.scanner.Describe(path)
	return &FileDetail{
		Path:     path,
		Language: lang,
		Category: cat,
		Checksum: checksum.Sum(data),
		Waymarks: nonNilSlice(s.scanner.ScanFile(path, data)),
	}, nil
}

// Find queries cached waymarks.
func (s *Service) Find(ctx context.Context, f index.Filter) ([]grammar.Record, error) {
	return s.db.Query(ctx, f)
}

// Search delegates full-text search to the cache.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph returns the relation graph.
func (s *Service) Graph(ctx context.Context) (*Graph, error) {
	edges, anchors, err := s.db.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return &Graph{Edges: edges, Anchors: anchors}, nil
}

// Backlinks returns every relation pointing at token.
func (s *Service) Backlinks(_ context.Context, token string) ([]models.Edge, error) {
	return s.db.Backlinks(token)
}

// Stats counts cached rows.
func (s *Service) Stats(_ context.Context) (index.Stats, error) {
	return s.db.Stats()
}

// Lint runs the linter over every cached waymark.
func (s *Service) Lint(ctx context.Context) ([]lint.Issue, error) {
	recs, err := s.db.Query(ctx, index.Filter{})
	if err != nil {
		return nil, err
	}
	return nonNilSlice(s.linter.Lint(recs)), nil
}

// Add inserts a waymark and refreshes the file in the cache.
func (s *Service) Add(ctx context.Context, path string, spec edit.InsertSpec) (*edit.Result, error) {
	res, err := s.editor.Insert(ctx, path, spec)
	if err != nil {
		return nil, err
	}
	return res, s.reindex(path, res.After)
}

// Remove deletes a waymark and refreshes the file in the cache.
func (s *Service) Remove(ctx context.Context, path string, target edit.Target) (*edit.Result, error) {
	res, err := s.editor.Remove(ctx, path, target)
	if err != nil {
		return nil, err
	}
	return res, s.reindex(path, res.After)
}

// Update rewrites a waymark and refreshes the file in the cache.
func (s *Service) Update(ctx context.Context, path string, target edit.Target, patch edit.Patch) (*edit.Result, error) {
	res, err := s.editor.Update(ctx, path, target, patch)
	if err != nil {
		return nil, err
	}
	return res, s.reindex(path, res.After)
}

func (s *Service) reindex(path, text string) error {
	if err := index.IndexFile(s.db, s.scanner, path, []byte(text)); err != nil {
		return fmt.Errorf("markservice: reindex %s: %w", path, err)
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

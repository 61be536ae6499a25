// Package scan runs the waymark grammar over workspace files.
package scan

import (
	"bytes"
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/outfitter-dev/waymark/internal/checksum"
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/storage"
)

// binarySniffLen is how much of a file is checked for NUL bytes.
const binarySniffLen = 8000

// Scanner parses files with a fixed language and category configuration.
// It is safe for concurrent use.
type Scanner struct {
	registry       *grammar.Registry
	categories     *grammar.CategoryRegistry
	includeIgnored bool
	unknownFiles   bool
	workers        int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRegistry sets the language registry.
func WithRegistry(r *grammar.Registry) Option {
	return func(s *Scanner) { s.registry = r }
}

// WithCategories sets the category registry.
func WithCategories(c *grammar.CategoryRegistry) Option {
	return func(s *Scanner) { s.categories = c }
}

// WithIncludeIgnored keeps waymarks inside wm:ignore fences.
func WithIncludeIgnored(v bool) Option {
	return func(s *Scanner) { s.includeIgnored = v }
}

// WithUnknownFiles makes workspace scans parse files of no known language
// with the default leader set.
func WithUnknownFiles(v bool) Option {
	return func(s *Scanner) { s.unknownFiles = v }
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Scanner over the built-in registries unless overridden.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		registry:   grammar.DefaultRegistry(),
		categories: grammar.DefaultCategories(),
		workers:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the language registry in use.
func (s *Scanner) Registry() *grammar.Registry { return s.registry }

// Options returns the parse options used for file.
func (s *Scanner) Options(file string) grammar.Options {
	return grammar.Options{
		File:           file,
		Registry:       s.registry,
		Categories:     s.categories,
		IncludeIgnored: s.includeIgnored,
	}
}

// Wants reports whether a workspace scan should parse file.
func (s *Scanner) Wants(file string) bool {
	l, ok := s.registry.Resolve(file)
	if !ok {
		return s.unknownFiles
	}
	return !l.Commentless()
}

// ScanFile parses data as the contents of file. Binary data yields nothing.
func (s *Scanner) ScanFile(file string, data []byte) []grammar.Record {
	if isBinary(data) {
		return nil
	}
	return grammar.Parse(string(data), s.Options(file))
}

func isBinary(data []byte) bool {
	n := min(len(data), binarySniffLen)
	return bytes.IndexByte(data[:n], 0) >= 0
}

// FileResult is the outcome of scanning one file.
type FileResult struct {
	Path     string
	Checksum string
	Records  []grammar.Record
	Err      error
}

// ScanPaths reads and parses paths concurrently. Results keep the order of
// paths; per-file read failures are reported in FileResult.Err.
func (s *Scanner) ScanPaths(ctx context.Context, store storage.Provider, paths []string) ([]FileResult, error) {
	out := make([]FileResult, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res := FileResult{Path: p}
			data, err := store.Read(p)
			if err != nil {
				res.Err = err
				out[i] = res
				return nil
			}
			res.Checksum = checksum.Sum(data)
			res.Records = s.ScanFile(p, data)
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScanWorkspace lists dir and scans every file the scanner wants.
func (s *Scanner) ScanWorkspace(ctx context.Context, store storage.Provider, dir string) ([]FileResult, error) {
	metas, err := store.List(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		if s.Wants(m.Path) {
			paths = append(paths, m.Path)
		}
	}
	return s.ScanPaths(ctx, store, paths)
}

// Describe returns the language id and category recorded for file.
func (s *Scanner) Describe(file string) (string, grammar.Category) {
	lang := grammar.UnknownLanguage
	if l, ok := s.registry.Resolve(file); ok {
		lang = l.ID
	}
	return lang, s.categories.Categorize(file)
}

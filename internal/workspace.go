package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/outfitter-dev/waymark/internal/edit"
	"github.com/outfitter-dev/waymark/internal/format"
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/ids"
	"github.com/outfitter-dev/waymark/internal/index"
	"github.com/outfitter-dev/waymark/internal/lint"
	"github.com/outfitter-dev/waymark/internal/markservice"
	"github.com/outfitter-dev/waymark/internal/scan"
	"github.com/outfitter-dev/waymark/internal/storage"
)

// Workspace bundles the components built from one Config. The cache is
// opened on first use so commands that only parse never create it.
type Workspace struct {
	Config  *Config
	Logger  *slog.Logger
	Store   *storage.FS
	Scanner *scan.Scanner
	Linter  *lint.Linter
	Format  format.Options

	db *index.DB
}

// NewWorkspace builds storage, the scanner and the linter from cfg.
func NewWorkspace(cfg *Config, logger *slog.Logger) (*Workspace, error) {
	matcher, err := storage.NewMatcher(cfg.Scan.Include, cfg.Scan.Exclude)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	store, err := storage.NewFS(cfg.Scan.Root, storage.WithMatcher(matcher))
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	scanner := scan.New(
		scan.WithRegistry(cfg.Languages.Apply(grammar.DefaultRegistry())),
		scan.WithCategories(cfg.CategoryRegistry()),
		scan.WithIncludeIgnored(cfg.Scan.IncludeIgnored),
		scan.WithUnknownFiles(cfg.Scan.UnknownFiles),
		scan.WithWorkers(cfg.Scan.Workers),
	)

	linter, err := lint.New(lint.WithRules(cfg.Lint.Rules), lint.WithAllowedMarkers(cfg.Lint.AllowMarkers...))
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	return &Workspace{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Scanner: scanner,
		Linter:  linter,
		Format:  format.Options{AlignContinuations: cfg.Format.Align},
	}, nil
}

// Cache opens the SQLite cache, creating its directory if needed.
func (w *Workspace) Cache() (*index.DB, error) {
	if w.db != nil {
		return w.db, nil
	}
	path := w.Config.CachePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create cache dir: %w", err)
	}
	db, err := index.Open(path)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	w.db = db
	return db, nil
}

// Editor returns an editor over the workspace. withIDs attaches an id
// reserver backed by the cache.
func (w *Workspace) Editor(withIDs bool) (*edit.Editor, error) {
	opts := []edit.Option{edit.WithFormat(w.Format)}
	if withIDs {
		db, err := w.Cache()
		if err != nil {
			return nil, err
		}
		opts = append(opts, edit.WithReserver(ids.NewReserver(ids.NewGenerator(w.Config.IDs.Length), db.IDs())))
	}
	return edit.New(w.Store, w.Scanner, opts...), nil
}

// Service returns the query and edit service over the cache. withIDs is
// ORed with the configured ids setting.
func (w *Workspace) Service(withIDs bool) (*markservice.Service, error) {
	db, err := w.Cache()
	if err != nil {
		return nil, err
	}
	editor, err := w.Editor(withIDs || w.Config.IDs.Enabled)
	if err != nil {
		return nil, err
	}
	return markservice.NewService(w.Store, db, w.Scanner, editor, w.Linter), nil
}

// Close releases the cache if it was opened.
func (w *Workspace) Close() error {
	if w.db == nil {
		return nil
	}
	err := w.db.Close()
	w.db = nil
	return err
}

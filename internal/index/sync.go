package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/outfitter-dev/waymark/internal/checksum"
	"github.com/outfitter-dev/waymark/internal/scan"
	"github.com/outfitter-dev/waymark/internal/storage"
)

// SyncStats summarizes one Sync pass.
type SyncStats struct {
	Indexed   int `json:"indexed"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Sync walks the workspace and brings the cache up to date:
//   - new/changed files are parsed concurrently and upserted
//   - files gone from disk (or no longer scanned) are deleted
func Sync(ctx context.Context, db WaymarkIndex, store storage.Provider, scanner *scan.Scanner, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	metas, err := store.List("")
	if err != nil {
		return stats, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	disk := make(map[string]struct{}, len(metas))
	var changed []string
	for _, m := range metas {
		if !scanner.Wants(m.Path) {
			continue
		}
		disk[m.Path] = struct{}{}
		if checksums[m.Path] == m.Checksum {
			stats.Unchanged++
			continue
		}
		changed = append(changed, m.Path)
	}

	results, err := scanner.ScanPaths(ctx, store, changed)
	if err != nil {
		return stats, err
	}
	for _, res := range results {
		if res.Err != nil {
			stats.Failed++
			logger.Warn("sync: read failed", slog.String("path", res.Path), slog.String("error", res.Err.Error()))
			continue
		}
		if err := upsertResult(db, scanner, res); err != nil {
			stats.Failed++
			logger.Warn("sync: index failed", slog.String("path", res.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		logger.Debug("sync: indexed", slog.String("path", res.Path), slog.Int("waymarks", len(res.Records)))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteFile(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	return stats, nil
}

// IndexFile parses data and upserts it into the cache.
func IndexFile(db WaymarkIndex, scanner *scan.Scanner, path string, data []byte) error {
	return upsertResult(db, scanner, scan.FileResult{
		Path:     path,
		Checksum: checksum.Sum(data),
		Records:  scanner.ScanFile(path, data),
	})
}

func upsertResult(db WaymarkIndex, scanner *scan.Scanner, res scan.FileResult) error {
	lang, cat := scanner.Describe(res.Path)
	return db.UpsertFile(FileRow{
		Path:      res.Path,
		Checksum:  res.Checksum,
		Language:  lang,
		Category:  cat,
		UpdatedAt: time.Now().UTC(),
	}, res.Records)
}

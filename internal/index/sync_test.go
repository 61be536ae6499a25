package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/outfitter-dev/waymark/internal/scan"
)

func TestSync_IndexesChangedAndRemovesStale(t *testing.T) {
	root, store, scanner, db := watcherTestEnv(t)
	ctx := context.Background()
	logger := quietLogger()

	write := func(rel, body string) {
		t.Helper()
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.go", "// todo ::: a")
	write("pkg/b.py", "# note ::: b")
	write("package.json", `{"x": "// todo ::: nope"}`)
	write("node_modules/dep/index.js", "// todo ::: vendored")

	stats, err := Sync(ctx, db, store, scanner, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats != (SyncStats{Indexed: 2}) {
		t.Errorf("first sync = %+v", stats)
	}

	stats, err = Sync(ctx, db, store, scanner, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats != (SyncStats{Unchanged: 2}) {
		t.Errorf("second sync = %+v", stats)
	}

	write("a.go", "// todo ::: a\n// fix ::: a2")
	_ = os.Remove(filepath.Join(root, "pkg", "b.py"))

	stats, err = Sync(ctx, db, store, scanner, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats != (SyncStats{Indexed: 1, Removed: 1}) {
		t.Errorf("third sync = %+v", stats)
	}

	recs, err := db.Query(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[1].Type != "fix" {
		t.Errorf("records = %+v", recs)
	}
}

func TestSync_UnknownFilesOptIn(t *testing.T) {
	root, store, _, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(root, "notes.zzz"), []byte("// todo ::: odd"), 0o644)

	stats, err := Sync(context.Background(), db, store, scan.New(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Indexed != 0 {
		t.Errorf("unknown file indexed without opt-in: %+v", stats)
	}

	stats, err = Sync(context.Background(), db, store, scan.New(scan.WithUnknownFiles(true)), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Indexed != 1 {
		t.Errorf("unknown file not indexed with opt-in: %+v", stats)
	}
}

func TestIndexFile(t *testing.T) {
	db := testDB(t)
	if err := IndexFile(db, scan.New(), "x_test.go", []byte("// test ::: covers x")); err != nil {
		t.Fatal(err)
	}
	var lang, cat string
	if err := db.conn.QueryRow(`SELECT language, category FROM files WHERE path = ?`, "x_test.go").Scan(&lang, &cat); err != nil {
		t.Fatal(err)
	}
	if lang != "go" || cat != "test" {
		t.Errorf("language/category = %s/%s", lang, cat)
	}
}

package index

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/outfitter-dev/waymark/internal/apperr"
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/ids"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "waymark-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seed parses src as path and upserts the result.
func seed(t *testing.T, db *DB, path, src string) {
	t.Helper()
	recs := grammar.Parse(src, grammar.Options{File: path})
	row := FileRow{Path: path, Checksum: src, Language: "go", Category: grammar.CategoryCode, UpdatedAt: time.Now()}
	if err := db.UpsertFile(row, recs); err != nil {
		t.Fatalf("UpsertFile(%s): %v", path, err)
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"files", "waymarks", "relations", "canonicals", "ids"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	seed(t, db, "a.go", "// todo ::: one")
	cs, err := db.GetChecksum("a.go")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "// todo ::: one" {
		t.Errorf("checksum = %q", cs)
	}
	if cs, _ := db.GetChecksum("missing.go"); cs != "" {
		t.Errorf("missing checksum = %q, want empty", cs)
	}
}

func TestUpsertReplacesWaymarks(t *testing.T) {
	db := testDB(t)
	seed(t, db, "a.go", "// todo ::: one\n// note ::: two ref:#a")
	seed(t, db, "a.go", "// fix ::: three")

	recs, err := db.Query(context.Background(), Filter{File: "a.go"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 1 || recs[0].Type != "fix" {
		t.Fatalf("records = %+v", recs)
	}
	_, anchors, err := db.Graph(context.Background())
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(anchors) != 0 {
		t.Errorf("stale anchors kept: %+v", anchors)
	}
}

func TestQuery_Filters(t *testing.T) {
	db := testDB(t)
	seed(t, db, "src/a.go", "// todo ::: wire @alice #auth\n// *note ::: starred")
	seed(t, db, "src/b.go", "// ~fixme ::: urgent @bob")
	seed(t, db, "docs/c.go", "// todo ::: docs #Auth")
	ctx := context.Background()

	cases := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"type", Filter{Type: "todo"}, 2},
		{"alias folds to canonical", Filter{Type: "fix"}, 1},
		{"alias query folds too", Filter{Type: "FIXME"}, 1},
		{"tag case-insensitive", Filter{Tag: "auth"}, 2},
		{"mention", Filter{Mention: "@alice"}, 1},
		{"file prefix", Filter{File: "src/"}, 3},
		{"file exact", Filter{File: "src/b.go"}, 1},
		{"flagged", Filter{Flagged: true}, 1},
		{"starred", Filter{Starred: true}, 1},
		{"limit", Filter{Limit: 2}, 2},
		{"combined", Filter{Type: "todo", File: "src/"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := db.Query(ctx, tc.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(recs) != tc.want {
				t.Errorf("got %d records, want %d", len(recs), tc.want)
			}
		})
	}
}

func TestQuery_OrderAndDecode(t *testing.T) {
	db := testDB(t)
	seed(t, db, "b.go", "// todo ::: b")
	seed(t, db, "a.go", "\n\n// todo ::: second owner:@amy\n// note ::: third")
	seed(t, db, "a.go", "// todo ::: first\n\n// todo ::: second owner:@amy")

	recs, err := db.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d", len(recs))
	}
	if recs[0].File != "a.go" || recs[0].StartLine != 1 || recs[2].File != "b.go" {
		t.Errorf("order = %s:%d %s:%d %s:%d", recs[0].File, recs[0].StartLine,
			recs[1].File, recs[1].StartLine, recs[2].File, recs[2].StartLine)
	}
	if v, _ := recs[1].Properties.Get("owner"); v != "@amy" {
		t.Errorf("decoded owner = %q", v)
	}
}

func TestBacklinksAndGraph(t *testing.T) {
	db := testDB(t)
	seed(t, db, "auth.go", "// tldr ::: session handling ref:#auth/session")
	seed(t, db, "login.go", "// todo ::: refresh tokens depends:#auth/session")
	seed(t, db, "api.go", "// note ::: uses it see:#Auth/Session,#other")

	bl, err := db.Backlinks("Auth/Session")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 3 {
		t.Fatalf("backlinks = %+v, want 3", bl)
	}

	edges, anchors, err := db.Graph(context.Background())
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(edges) != 4 {
		t.Errorf("edges = %d, want 4", len(edges))
	}
	if len(anchors) != 1 || anchors[0].Token != "#auth/session" || anchors[0].File != "auth.go" {
		t.Errorf("anchors = %+v", anchors)
	}
}

func TestDeleteFile(t *testing.T) {
	db := testDB(t)
	seed(t, db, "del.go", "// todo ::: gone see:#x")

	if err := db.DeleteFile("del.go"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if cs, _ := db.GetChecksum("del.go"); cs != "" {
		t.Error("file row should be deleted")
	}
	bl, _ := db.Backlinks("#x")
	if len(bl) != 0 {
		t.Error("relations should be cleaned up")
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	seed(t, db, "a.go", "1")
	seed(t, db, "b.go", "2")

	m, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(m) != 2 || m["a.go"] != "1" || m["b.go"] != "2" {
		t.Errorf("checksums = %v", m)
	}
}

func TestStats(t *testing.T) {
	db := testDB(t)
	seed(t, db, "a.go", "// todo ::: a see:#x\n// note ::: b")
	seed(t, db, "b.go", "package b")

	s, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s != (Stats{Files: 2, Waymarks: 2, Edges: 1}) {
		t.Errorf("stats = %+v", s)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	seed(t, db, "a.go", "// todo ::: rotate the signing keys")
	seed(t, db, "b.go", "// note ::: unrelated")

	results, err := db.Search("signing", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].File != "a.go" || results[0].Line != 1 || results[0].Type != "todo" {
		t.Errorf("results = %+v", results)
	}
}

func TestIDs_ReserveLookupRelease(t *testing.T) {
	db := testDB(t)
	store := db.IDs()
	ctx := context.Background()

	e := ids.Entry{ID: "abc1234", File: "a.go", Line: 3, Fingerprint: "fp"}
	if err := store.Reserve(ctx, e); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	// Same waymark moving lines keeps its reservation.
	e.Line = 9
	if err := store.Reserve(ctx, e); err != nil {
		t.Fatalf("re-Reserve: %v", err)
	}
	got, err := store.Lookup(ctx, "abc1234")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.File != "a.go" || got.Line != 9 {
		t.Errorf("entry = %+v", got)
	}

	clash := ids.Entry{ID: "abc1234", File: "b.go", Line: 1, Fingerprint: "other"}
	if err := store.Reserve(ctx, clash); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("clash err = %v, want ErrAlreadyExists", err)
	}

	if err := store.Release(ctx, "abc1234"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := store.Lookup(ctx, "abc1234"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("after release err = %v, want ErrNotFound", err)
	}
}

package grammar

import (
	"slices"
	"testing"
)

func TestResolve_Extension(t *testing.T) {
	reg := DefaultRegistry()
	cases := map[string]string{
		"main.go":              "go",
		"src/App.TSX":          "tsx",
		"lib/util.py":          "python",
		"db/schema.SQL":        "sql",
		"docs/README.md":       "markdown",
		"types/index.d.ts":     "typescript",
		"types/index.d.mts":    "typescript",
		"types/index.d.cts":    "typescript",
		"types/comp.d.tsx":     "tsx",
		"build/Dockerfile":     "dockerfile",
		"Makefile":             "make",
		"cmake/CMakeLists.txt": "cmake",
	}
	for path, want := range cases {
		l, ok := reg.Resolve(path)
		if !ok {
			t.Errorf("Resolve(%q) not found", path)
			continue
		}
		if l.ID != want {
			t.Errorf("Resolve(%q) = %q, want %q", path, l.ID, want)
		}
	}
}

func TestResolve_BasenameIsCaseSensitive(t *testing.T) {
	if _, ok := DefaultRegistry().Resolve("DOCKERFILE"); ok {
		t.Error("basename lookup should be case-sensitive")
	}
}

func TestResolve_CommentlessAndUnknown(t *testing.T) {
	reg := DefaultRegistry()
	l, ok := reg.Resolve("package.json")
	if !ok || !l.Commentless() {
		t.Errorf("json should be known and commentless, got %+v ok=%v", l, ok)
	}
	if _, ok := reg.Resolve("archive.xyz"); ok {
		t.Error("unknown extension resolved")
	}
	if _, ok := reg.Resolve("LICENSE"); ok {
		t.Error("extensionless unknown file resolved")
	}
}

func TestRegistry_CoversManyLanguages(t *testing.T) {
	if n := len(DefaultRegistry().Languages()); n < 80 {
		t.Errorf("registry knows %d languages, want at least 80", n)
	}
}

func TestRegistry_OverlayDoesNotTouchBase(t *testing.T) {
	base := DefaultRegistry()
	tables := base.Tables()
	tables.Extensions[".wat"] = Language{ID: "wasm-text", Leaders: []string{";;"}}
	tables.Extensions[".go"] = Language{ID: "go", Leaders: []string{"//"}}
	overlay := NewRegistry(tables)

	if l, ok := overlay.Resolve("mod.wat"); !ok || l.ID != "wasm-text" {
		t.Errorf("overlay missing .wat: %+v", l)
	}
	if _, ok := base.Resolve("mod.wat"); ok {
		t.Error("overlay leaked into base registry")
	}
	l, _ := base.Resolve("main.go")
	if !slices.Equal(l.Leaders, []string{"//", "/*"}) {
		t.Errorf("base .go leaders changed: %v", l.Leaders)
	}
}

func TestRegistry_ByID(t *testing.T) {
	l, ok := DefaultRegistry().ByID("Ruby")
	if !ok || !slices.Equal(l.Leaders, []string{"#"}) {
		t.Errorf("ByID(ruby) = %+v ok=%v", l, ok)
	}
}

func TestLeadersByPriority(t *testing.T) {
	got := leadersByPriority([]string{"#", "//", "<!--", "/*"})
	want := []string{"<!--", "//", "/*", "#"}
	if !slices.Equal(got, want) {
		t.Errorf("leadersByPriority = %v, want %v", got, want)
	}
}

func TestCategorize(t *testing.T) {
	cats := DefaultCategories()
	cases := map[string]Category{
		"cmd/main.go":            CategoryCode,
		"internal/x/x_test.go":   CategoryTest,
		"web/button.spec.tsx":    CategoryTest,
		"tests/helpers.py":       CategoryTest,
		"docs/guide.md":          CategoryDocs,
		"config/app.yaml":        CategoryConfig,
		"fixtures/users.csv":     CategoryData,
		"scripts/test_runner.py": CategoryTest,
	}
	for path, want := range cases {
		if got := cats.Categorize(path); got != want {
			t.Errorf("Categorize(%q) = %q, want %q", path, got, want)
		}
	}
}

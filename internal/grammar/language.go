package grammar

import (
	"path"
	"sort"
	"strings"
)

// Language describes how comments are written in one file type.
// Leaders are listed in preference order; the first one is used when new
// waymarks are rendered into a file of this language.
type Language struct {
	ID      string   `yaml:"id" json:"id"`
	Leaders []string `yaml:"leaders" json:"leaders"`
}

// Commentless reports whether the language is known but has no comment syntax.
func (l Language) Commentless() bool {
	return len(l.Leaders) == 0
}

// UnknownLanguage is the language id reported when a file cannot be resolved.
const UnknownLanguage = "unknown"

// DefaultLeaders are tried when no language could be detected.
var DefaultLeaders = []string{"<!--", "/*", "//", "--", "#", ";"}

// Tables holds the raw lookup tables backing a Registry.
//
// Extensions are keyed by lowercased extension including the leading dot.
// Basenames are matched exactly (case-sensitive). Compound maps a lowercased
// multi-dot suffix such as ".d.ts" to the extension whose entry it folds to.
type Tables struct {
	Extensions map[string]Language
	Basenames  map[string]Language
	Compound   map[string]string
}

// Clone returns a deep copy of t.
func (t Tables) Clone() Tables {
	out := Tables{
		Extensions: make(map[string]Language, len(t.Extensions)),
		Basenames:  make(map[string]Language, len(t.Basenames)),
		Compound:   make(map[string]string, len(t.Compound)),
	}
	for k, v := range t.Extensions {
		out.Extensions[k] = cloneLanguage(v)
	}
	for k, v := range t.Basenames {
		out.Basenames[k] = cloneLanguage(v)
	}
	for k, v := range t.Compound {
		out.Compound[k] = v
	}
	return out
}

func cloneLanguage(l Language) Language {
	return Language{ID: l.ID, Leaders: append([]string(nil), l.Leaders...)}
}

// resolver is one stage of file-name resolution.
type resolver func(r *Registry, name string) (Language, bool)

// Registry maps file names to languages. A Registry is read-only after
// construction and safe for concurrent use.
type Registry struct {
	tables    Tables
	byID      map[string]Language
	resolvers []resolver
}

// NewRegistry builds a registry over a private copy of t.
func NewRegistry(t Tables) *Registry {
	t = t.Clone()
	normalized := make(map[string]Language, len(t.Extensions))
	for ext, lang := range t.Extensions {
		normalized[strings.ToLower(ext)] = lang
	}
	t.Extensions = normalized

	r := &Registry{
		tables:    t,
		byID:      make(map[string]Language),
		resolvers: []resolver{resolveBasename, resolveCompound, resolveExtension},
	}

	// First declaration wins; walk keys in sorted order so the result is stable.
	for _, table := range []map[string]Language{t.Extensions, t.Basenames} {
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lang := table[k]
			if _, ok := r.byID[lang.ID]; !ok {
				r.byID[lang.ID] = lang
			}
		}
	}
	return r
}

var defaultRegistry = NewRegistry(DefaultTables())

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Tables returns a copy of the registry's lookup tables, suitable as the
// base for an overlay.
func (r *Registry) Tables() Tables {
	return r.tables.Clone()
}

// Resolve finds the language for a file path.
func (r *Registry) Resolve(filePath string) (Language, bool) {
	name := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	for _, res := range r.resolvers {
		if lang, ok := res(r, name); ok {
			return lang, true
		}
	}
	return Language{}, false
}

// ByID finds a language by its id.
func (r *Registry) ByID(id string) (Language, bool) {
	lang, ok := r.byID[strings.ToLower(id)]
	return lang, ok
}

// Languages returns all distinct language ids, sorted.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func resolveBasename(r *Registry, name string) (Language, bool) {
	lang, ok := r.tables.Basenames[name]
	return lang, ok
}

func resolveCompound(r *Registry, name string) (Language, bool) {
	lower := strings.ToLower(name)
	// Longest suffix first so ".d.tsx" is not shadowed by a shorter entry.
	suffixes := make([]string, 0, len(r.tables.Compound))
	for s := range r.tables.Compound {
		suffixes = append(suffixes, s)
	}
	sort.Slice(suffixes, func(i, j int) bool {
		if len(suffixes[i]) != len(suffixes[j]) {
			return len(suffixes[i]) > len(suffixes[j])
		}
		return suffixes[i] < suffixes[j]
	})
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			lang, ok := r.tables.Extensions[strings.ToLower(r.tables.Compound[s])]
			return lang, ok
		}
	}
	return Language{}, false
}

func resolveExtension(r *Registry, name string) (Language, bool) {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return Language{}, false
	}
	lang, ok := r.tables.Extensions[ext]
	return lang, ok
}

// leadersByPriority orders leaders for literal prefix matching: longer
// tokens first so "<!--" and "///" are tried before "-" or "//".
func leadersByPriority(leaders []string) []string {
	out := append([]string(nil), leaders...)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	return out
}

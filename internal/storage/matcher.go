package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultSkipDirs are never descended into.
var DefaultSkipDirs = []string{".git", ".hg", ".svn", "node_modules", "vendor", "dist", "build", ".waymark"}

// Matcher decides which workspace files are scanned. Patterns use glob
// syntax with "/" as separator; a pattern without "/" is matched against
// the base name only.
type Matcher struct {
	include  []pattern
	exclude  []pattern
	skipDirs map[string]struct{}
}

type pattern struct {
	g        glob.Glob
	basename bool
}

func (p pattern) match(rel string) bool {
	if p.basename {
		return p.g.Match(path.Base(rel))
	}
	return p.g.Match(rel)
}

// NewMatcher compiles include and exclude patterns. An empty include list
// accepts every file.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	inc, err := compilePatterns(include)
	if err != nil {
		return nil, err
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, err
	}
	skip := make(map[string]struct{}, len(DefaultSkipDirs))
	for _, d := range DefaultSkipDirs {
		skip[d] = struct{}{}
	}
	return &Matcher{include: inc, exclude: exc, skipDirs: skip}, nil
}

// DefaultMatcher accepts every file outside DefaultSkipDirs.
func DefaultMatcher() *Matcher {
	m, _ := NewMatcher(nil, nil)
	return m
}

func compilePatterns(raw []string) ([]pattern, error) {
	out := make([]pattern, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimPrefix(strings.TrimSpace(p), "./")
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("storage: bad pattern %q: %w", p, err)
		}
		out = append(out, pattern{g: g, basename: !strings.Contains(p, "/")})
	}
	return out, nil
}

// Match reports whether the file at rel is accepted.
func (m *Matcher) Match(rel string) bool {
	rel = toSlash(rel)
	for _, dir := range strings.Split(path.Dir(rel), "/") {
		if _, ok := m.skipDirs[dir]; ok {
			return false
		}
	}
	for _, p := range m.exclude {
		if p.match(rel) {
			return false
		}
	}
	if len(m.include) == 0 {
		return true
	}
	for _, p := range m.include {
		if p.match(rel) {
			return true
		}
	}
	return false
}

// SkipDir reports whether a directory should be pruned.
func (m *Matcher) SkipDir(rel string) bool {
	rel = toSlash(rel)
	if rel == "" || rel == "." {
		return false
	}
	if _, ok := m.skipDirs[path.Base(rel)]; ok {
		return true
	}
	for _, p := range m.exclude {
		if p.match(rel) {
			return true
		}
	}
	return false
}

func toSlash(p string) string {
	return strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "./")
}

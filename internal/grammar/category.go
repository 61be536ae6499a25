package grammar

import (
	"path"
	"strings"
)

// Category is the coarse file classification attached to every record.
type Category string

// File categories.
const (
	CategoryCode   Category = "code"
	CategoryDocs   Category = "docs"
	CategoryConfig Category = "config"
	CategoryData   Category = "data"
	CategoryTest   Category = "test"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCode, CategoryDocs, CategoryConfig, CategoryData, CategoryTest:
		return true
	}
	return false
}

// CategoryRegistry classifies files by extension, with test-file
// conventions taking precedence.
type CategoryRegistry struct {
	extensions map[string]Category
}

// NewCategoryRegistry builds a registry from an extension table.
func NewCategoryRegistry(extensions map[string]Category) *CategoryRegistry {
	m := make(map[string]Category, len(extensions))
	for ext, c := range extensions {
		m[strings.ToLower(ext)] = c
	}
	return &CategoryRegistry{extensions: m}
}

var defaultCategories = NewCategoryRegistry(DefaultCategoryTable())

// DefaultCategories returns the built-in category registry.
func DefaultCategories() *CategoryRegistry {
	return defaultCategories
}

// DefaultCategoryTable returns a fresh copy of the built-in extension table.
func DefaultCategoryTable() map[string]Category {
	return map[string]Category{
		".md":         CategoryDocs,
		".mdx":        CategoryDocs,
		".markdown":   CategoryDocs,
		".rst":        CategoryDocs,
		".adoc":       CategoryDocs,
		".txt":        CategoryDocs,
		".tex":        CategoryDocs,
		".yaml":       CategoryConfig,
		".yml":        CategoryConfig,
		".toml":       CategoryConfig,
		".ini":        CategoryConfig,
		".cfg":        CategoryConfig,
		".conf":       CategoryConfig,
		".env":        CategoryConfig,
		".properties": CategoryConfig,
		".jsonc":      CategoryConfig,
		".json5":      CategoryConfig,
		".tf":         CategoryConfig,
		".tfvars":     CategoryConfig,
		".hcl":        CategoryConfig,
		".json":       CategoryData,
		".csv":        CategoryData,
		".tsv":        CategoryData,
		".xml":        CategoryData,
		".sql":        CategoryData,
		".graphql":    CategoryData,
		".gql":        CategoryData,
		".proto":      CategoryData,
		".lock":       CategoryData,
	}
}

// Table returns a copy of the extension table.
func (c *CategoryRegistry) Table() map[string]Category {
	out := make(map[string]Category, len(c.extensions))
	for k, v := range c.extensions {
		out[k] = v
	}
	return out
}

// Categorize returns the category for filePath. Files that do not match any
// rule are code.
func (c *CategoryRegistry) Categorize(filePath string) Category {
	p := strings.ReplaceAll(filePath, "\\", "/")
	if isTestPath(p) {
		return CategoryTest
	}
	if cat, ok := c.extensions[strings.ToLower(path.Ext(p))]; ok {
		return cat
	}
	return CategoryCode
}

var testDirs = map[string]bool{
	"test":      true,
	"tests":     true,
	"__tests__": true,
	"spec":      true,
	"testdata":  true,
}

func isTestPath(p string) bool {
	name := path.Base(p)
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, ".test."), strings.Contains(lower, ".spec."):
		return true
	case strings.HasSuffix(lower, "_test.go"), strings.HasSuffix(lower, "_test.py"),
		strings.HasSuffix(lower, "_spec.rb"), strings.HasSuffix(lower, "_test.rs"):
		return true
	case strings.HasPrefix(lower, "test_") && strings.HasSuffix(lower, ".py"):
		return true
	}
	for _, dir := range strings.Split(path.Dir(p), "/") {
		if testDirs[dir] {
			return true
		}
	}
	return false
}

package grammar

import (
	"sort"
	"strings"
)

// Marker is a blessed waymark type.
type Marker struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Aliases  []string `json:"aliases,omitempty"`
}

var markers = []Marker{
	{Name: "todo", Category: "work"},
	{Name: "fix", Category: "work", Aliases: []string{"fixme"}},
	{Name: "wip", Category: "work"},
	{Name: "done", Category: "work"},
	{Name: "review", Category: "work"},
	{Name: "test", Category: "work"},
	{Name: "check", Category: "work"},
	{Name: "note", Category: "info"},
	{Name: "context", Category: "info", Aliases: []string{"why"}},
	{Name: "tldr", Category: "info"},
	{Name: "about", Category: "info"},
	{Name: "example", Category: "info"},
	{Name: "idea", Category: "info"},
	{Name: "comment", Category: "info"},
	{Name: "warn", Category: "caution"},
	{Name: "alert", Category: "caution"},
	{Name: "deprecated", Category: "caution"},
	{Name: "temp", Category: "caution", Aliases: []string{"tmp"}},
	{Name: "hack", Category: "caution", Aliases: []string{"stub"}},
	{Name: "blocked", Category: "workflow", Aliases: []string{"blocks"}},
	{Name: "needs", Category: "workflow"},
	{Name: "question", Category: "inquiry", Aliases: []string{"ask"}},
}

// markerIndex maps every blessed name and alias to its canonical name.
var markerIndex = func() map[string]string {
	m := make(map[string]string)
	for _, mk := range markers {
		m[mk.Name] = mk.Name
		for _, a := range mk.Aliases {
			m[a] = mk.Name
		}
	}
	return m
}()

// Markers returns the blessed marker table.
func Markers() []Marker {
	out := make([]Marker, len(markers))
	for i, m := range markers {
		out[i] = Marker{Name: m.Name, Category: m.Category, Aliases: append([]string(nil), m.Aliases...)}
	}
	return out
}

// CanonicalMarker folds an alias to its blessed name. ok is false when t is
// neither a blessed name nor an alias.
func CanonicalMarker(t string) (string, bool) {
	name, ok := markerIndex[strings.ToLower(t)]
	return name, ok
}

// IsBlessedMarker reports whether t is a blessed marker name or alias.
func IsBlessedMarker(t string) bool {
	_, ok := markerIndex[strings.ToLower(t)]
	return ok
}

// Property keys that may appear as "key ::: value" continuation lines.
var propertyKeys = map[string]bool{
	"ref":      true,
	"rel":      true,
	"depends":  true,
	"needs":    true,
	"blocks":   true,
	"dupeof":   true,
	"owner":    true,
	"since":    true,
	"fixes":    true,
	"affects":  true,
	"priority": true,
	"status":   true,
	"see":      true,
	"docs":     true,
	"from":     true,
	"replaces": true,
}

// Property keys whose values are relation tokens.
var relationKinds = map[string]bool{
	"ref":      true,
	"rel":      true,
	"depends":  true,
	"needs":    true,
	"blocks":   true,
	"dupeof":   true,
	"see":      true,
	"docs":     true,
	"from":     true,
	"replaces": true,
}

// IsPropertyKey reports whether key may start a property continuation.
func IsPropertyKey(key string) bool {
	return propertyKeys[strings.ToLower(key)]
}

// IsRelationKind reports whether values of key are relation tokens.
func IsRelationKind(key string) bool {
	return relationKinds[strings.ToLower(key)]
}

// PropertyKeys returns the continuation property keys, sorted.
func PropertyKeys() []string {
	return sortedKeys(propertyKeys)
}

// RelationKinds returns the relation-bearing property keys, sorted.
func RelationKinds() []string {
	return sortedKeys(relationKinds)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

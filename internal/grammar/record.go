package grammar

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Signals are the one-character prefixes in front of a marker type.
type Signals struct {
	Flagged bool `json:"flagged"`
	Starred bool `json:"starred"`
}

// Prefix renders the signals as they appear before a type.
func (s Signals) Prefix() string {
	out := ""
	if s.Flagged {
		out += "~"
	}
	if s.Starred {
		out += "*"
	}
	return out
}

// Relation is a typed edge from a waymark to a canonical token.
type Relation struct {
	Kind  string `json:"kind"`
	Token string `json:"token"`
}

// Property is a single key/value pair.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Properties is an insertion-ordered, read-only string map. Re-setting a key
// keeps its first position and replaces its value.
type Properties struct {
	m *orderedmap.OrderedMap[string, string]
}

func newProperties() Properties {
	return Properties{m: orderedmap.New[string, string]()}
}

// PropertiesOf builds Properties from pairs, later pairs overwriting
// earlier ones.
func PropertiesOf(pairs ...Property) Properties {
	p := newProperties()
	for _, kv := range pairs {
		p.set(kv.Key, kv.Value)
	}
	return p
}

func (p Properties) set(key, value string) {
	p.m.Set(key, value)
}

// Get returns the value stored for key.
func (p Properties) Get(key string) (string, bool) {
	if p.m == nil {
		return "", false
	}
	return p.m.Get(key)
}

// Len returns the number of keys.
func (p Properties) Len() int {
	if p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Each calls fn for every pair in insertion order.
func (p Properties) Each(fn func(key, value string)) {
	if p.m == nil {
		return
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Keys returns the keys in insertion order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, p.Len())
	p.Each(func(k, _ string) { keys = append(keys, k) })
	return keys
}

// Pairs returns the entries in insertion order.
func (p Properties) Pairs() []Property {
	out := make([]Property, 0, p.Len())
	p.Each(func(k, v string) { out = append(out, Property{Key: k, Value: v}) })
	return out
}

// Map returns an unordered copy.
func (p Properties) Map() map[string]string {
	out := make(map[string]string, p.Len())
	p.Each(func(k, v string) { out[k] = v })
	return out
}

// Equal reports whether p and o hold the same pairs in the same order.
func (p Properties) Equal(o Properties) bool {
	return slices.Equal(p.Pairs(), o.Pairs())
}

// MarshalJSON encodes the properties as a JSON object in insertion order.
func (p Properties) MarshalJSON() ([]byte, error) {
	if p.m == nil {
		return []byte("{}"), nil
	}
	return p.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (p *Properties) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, string]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	p.m = m
	return nil
}

// Record is one parsed waymark. It is a plain value with no identity beyond
// its position in the file it was parsed from.
type Record struct {
	File          string     `json:"file"`
	Language      string     `json:"language"`
	FileCategory  Category   `json:"fileCategory"`
	StartLine     int        `json:"startLine"`
	EndLine       int        `json:"endLine"`
	Indent        int        `json:"indent"`
	CommentLeader string     `json:"commentLeader"`
	Signals       Signals    `json:"signals"`
	Type          string     `json:"type"`
	ContentText   string     `json:"contentText"`
	Properties    Properties `json:"properties"`
	Relations     []Relation `json:"relations"`
	Canonicals    []string   `json:"canonicals"`
	Mentions      []string   `json:"mentions"`
	Tags          []string   `json:"tags"`
	Raw           string     `json:"raw"`
}

// Equivalent reports whether r and o carry the same parsed meaning,
// ignoring position and file metadata.
func (r Record) Equivalent(o Record) bool {
	return r.Type == o.Type &&
		r.Signals == o.Signals &&
		r.ContentText == o.ContentText &&
		r.Properties.Equal(o.Properties) &&
		slices.Equal(r.Relations, o.Relations) &&
		slices.Equal(r.Canonicals, o.Canonicals) &&
		slices.Equal(r.Mentions, o.Mentions) &&
		slices.Equal(r.Tags, o.Tags)
}

package grammar

import (
	"regexp"
	"strings"
)

// All patterns compile to Go's RE2 engine, which matches in time linear in
// the input; none of them can backtrack catastrophically on hostile text.
var patterns = struct {
	property *regexp.Regexp
	mention  *regexp.Regexp
	tag      *regexp.Regexp
}{
	// key:value or key:"quoted value". Group 1 key, 2 quoted body, 3 bare value.
	property: regexp.MustCompile(`(?:^|\s)([A-Za-z][A-Za-z0-9_-]*):(?:"((?:[^"\\]|\\.)*)"|([^\s"/:]\S*))`),
	// Group 1 is the preceding boundary, group 2 the name without "@".
	mention: regexp.MustCompile(`(^|[^A-Za-z0-9_.+\-])@([A-Za-z0-9_][A-Za-z0-9_-]*(?:/[A-Za-z0-9_][A-Za-z0-9_.-]*)?)`),
	// Group 1 is the preceding boundary, group 2 the tag body without "#".
	tag: regexp.MustCompile(`(^|[^A-Za-z0-9_&#/])#([A-Za-z0-9._/:%-]+)`),
}

// codeSpanMask is written over inline code spans before property matching.
// It is neither whitespace nor a key character, so nothing can match
// across it.
const codeSpanMask = '\x00'

// maskCodeSpans blanks out backtick-delimited code spans, keeping offsets.
func maskCodeSpans(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); {
		if b[i] != '`' {
			i++
			continue
		}
		n := backtickRun(b[i:])
		end := findBacktickRun(b, i+n, n)
		if end < 0 {
			i += n
			continue
		}
		for j := i; j < end+n; j++ {
			b[j] = codeSpanMask
		}
		i = end + n
	}
	return string(b)
}

func backtickRun(b []byte) int {
	n := 0
	for n < len(b) && b[n] == '`' {
		n++
	}
	return n
}

// findBacktickRun finds the next run of exactly n backticks at or after from.
func findBacktickRun(b []byte, from, n int) int {
	for i := from; i < len(b); {
		if b[i] != '`' {
			i++
			continue
		}
		run := backtickRun(b[i:])
		if run == n {
			return i
		}
		i += run
	}
	return -1
}

// ScanProperties returns every inline property in text in order of
// appearance, duplicates included. Keys are lowercased.
func ScanProperties(text string) []Property {
	masked := maskCodeSpans(text)
	var out []Property
	for _, m := range patterns.property.FindAllStringSubmatchIndex(masked, -1) {
		key := strings.ToLower(text[m[2]:m[3]])
		var value string
		switch {
		case m[4] >= 0:
			value = unescapeQuoted(text[m[4]:m[5]])
		case m[6] >= 0:
			value = text[m[6]:m[7]]
		default:
			continue
		}
		out = append(out, Property{Key: key, Value: value})
	}
	return out
}

func unescapeQuoted(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ExtractMentions returns "@name" tokens in first-seen order. Email local
// parts and decorator calls such as @Component() are skipped.
func ExtractMentions(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range patterns.mention.FindAllStringSubmatchIndex(text, -1) {
		end := m[5]
		if end < len(text) && text[end] == '(' {
			continue
		}
		name := strings.TrimRight(text[m[4]:m[5]], ".-")
		if name == "" {
			continue
		}
		mention := "@" + name
		if _, dup := seen[mention]; dup {
			continue
		}
		seen[mention] = struct{}{}
		out = append(out, mention)
	}
	return out
}

// ExtractTags returns "#token" sequences in first-seen order.
func ExtractTags(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range patterns.tag.FindAllStringSubmatch(text, -1) {
		body := strings.TrimRight(m[2], ".:/")
		if body == "" {
			continue
		}
		tag := "#" + body
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// NormalizeToken lowercases a relation token and gives it a single "#".
func NormalizeToken(tok string) string {
	t := strings.TrimSpace(tok)
	t = strings.Trim(t, `"'`)
	t = strings.TrimLeft(t, "#")
	if t == "" {
		return ""
	}
	return "#" + strings.ToLower(t)
}

// analysis is everything the content analyzer derives from one block.
type analysis struct {
	properties Properties
	relations  []Relation
	canonicals []string
	mentions   []string
	tags       []string
}

// analyze runs once over a block's merged content text. extras are the
// properties collected from continuation lines; they win over inline
// properties of the same key.
func analyze(content string, extras []Property) analysis {
	props := newProperties()
	for _, p := range ScanProperties(content) {
		props.set(p.Key, p.Value)
	}
	for _, p := range extras {
		props.set(p.Key, p.Value)
	}

	rels, canon := relationsOf(props)
	return analysis{
		properties: props,
		relations:  rels,
		canonicals: canon,
		mentions:   ExtractMentions(content),
		tags:       ExtractTags(content),
	}
}

// relationsOf maps relation-bearing properties to relations, in property
// order. Tokens declared with ref also become canonicals.
func relationsOf(props Properties) ([]Relation, []string) {
	var rels []Relation
	var canon []string
	seen := make(map[string]struct{})
	props.Each(func(key, value string) {
		if !IsRelationKind(key) {
			return
		}
		for _, part := range strings.Split(value, ",") {
			tok := NormalizeToken(part)
			if tok == "" {
				continue
			}
			rels = append(rels, Relation{Kind: key, Token: tok})
			if key != "ref" {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			canon = append(canon, tok)
		}
	})
	return rels, canon
}

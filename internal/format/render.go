// Package format renders parsed waymarks back to source text.
package format

import (
	"strings"
	"unicode"

	"github.com/outfitter-dev/waymark/internal/grammar"
)

// Options control rendering.
type Options struct {
	// AlignContinuations pads marker and property columns so every
	// ":::" in a block lines up under the header's.
	AlignContinuations bool
}

// closers maps comment leaders that need a same-line terminator.
var closers = map[string]string{
	"/*":   " */",
	"<!--": " -->",
}

// Render returns the canonical source lines for r, joined with "\n".
// Properties that the content text does not produce on its own are written
// as "key ::: value" continuation lines so parsing the result yields a
// record equivalent to r.
func Render(r grammar.Record, opts Options) string {
	return strings.Join(renderLines(r, opts), "\n")
}

func renderLines(r grammar.Record, opts Options) []string {
	indent := leadingSpace(r)
	leader := r.CommentLeader
	if leader == "" {
		leader = "//"
	}
	marker := r.Signals.Prefix() + r.Type
	props := continuationProperties(r)

	width := 0
	if opts.AlignContinuations {
		width = len(marker)
		for _, p := range props {
			width = max(width, len(p.Key))
		}
	}

	content := strings.Split(r.ContentText, "\n")
	lines := make([]string, 0, len(content)+len(props))
	for i, text := range content {
		label := ""
		if i == 0 {
			label = marker
		}
		lines = append(lines, line(indent, leader, label, width, text))
	}
	for _, p := range props {
		lines = append(lines, line(indent, leader, p.Key, width, p.Value))
	}

	last := len(lines) - 1
	if grammar.ClosesExplicitly(r) || strings.HasSuffix(lastValue(content, props), grammar.Sigil) {
		lines[last] = appendBeforeCloser(lines[last], leader, " "+grammar.Sigil)
	}
	return lines
}

// line renders one physical line: indent, leader, padded label, sigil, text.
func line(indent, leader, label string, width int, text string) string {
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(leader)
	b.WriteByte(' ')
	if label != "" {
		b.WriteString(label)
		b.WriteByte(' ')
	}
	if pad := width - len(label); pad > 0 {
		if label == "" {
			pad++
		}
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(grammar.Sigil)
	if text != "" {
		b.WriteByte(' ')
		b.WriteString(text)
	}
	b.WriteString(closers[leader])
	return b.String()
}

func appendBeforeCloser(l, leader, suffix string) string {
	c := closers[leader]
	return strings.TrimSuffix(l, c) + suffix + c
}

func lastValue(content []string, props []grammar.Property) string {
	if len(props) > 0 {
		return props[len(props)-1].Value
	}
	return content[len(content)-1]
}

// leadingSpace keeps the record's original indentation when it is known.
func leadingSpace(r grammar.Record) string {
	if r.Raw != "" {
		first, _, _ := strings.Cut(r.Raw, "\n")
		ws := first[:len(first)-len(strings.TrimLeftFunc(first, unicode.IsSpace))]
		if len([]rune(ws)) == r.Indent {
			return ws
		}
	}
	return strings.Repeat(" ", r.Indent)
}

// continuationProperties returns the properties of r, in order, whose value
// is not already produced by the inline properties of its content text.
func continuationProperties(r grammar.Record) []grammar.Property {
	inline := grammar.PropertiesOf(grammar.ScanProperties(r.ContentText)...)
	var out []grammar.Property
	for _, p := range r.Properties.Pairs() {
		if v, ok := inline.Get(p.Key); ok && v == p.Value {
			continue
		}
		if !grammar.IsPropertyKey(p.Key) || grammar.IsBlessedMarker(p.Key) {
			continue
		}
		out = append(out, p)
	}
	return out
}

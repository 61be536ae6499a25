package edit

import (
	"strings"
	"unicode"
)

// document is a file split into lines with its line-ending style kept.
type document struct {
	before   string
	lines    []string
	eol      string
	finalEOL bool
}

func newDocument(text string) *document {
	d := &document{before: text, eol: "\n"}
	if strings.Contains(text, "\r\n") {
		d.eol = "\r\n"
	}
	body := text
	if strings.HasSuffix(body, "\n") {
		d.finalEOL = true
		body = strings.TrimSuffix(strings.TrimSuffix(body, "\n"), "\r")
	}
	if body != "" || !d.finalEOL {
		d.lines = strings.Split(body, "\n")
		for i, l := range d.lines {
			d.lines[i] = strings.TrimSuffix(l, "\r")
		}
	}
	if text == "" {
		d.lines = nil
	}
	return d
}

func (d *document) lineCount() int { return len(d.lines) }

// slice returns lines start..end (1-based, inclusive) joined with "\n".
func (d *document) slice(start, end int) string {
	if start < 1 || end > len(d.lines) || start > end {
		return ""
	}
	return strings.Join(d.lines[start-1:end], "\n")
}

// splice replaces lines start..end (1-based, inclusive) with repl. An end
// of start-1 inserts before start.
func (d *document) splice(start, end int, repl []string) {
	tail := append([]string(nil), d.lines[end:]...)
	d.lines = append(append(d.lines[:start-1], repl...), tail...)
}

// indentNear returns the leading whitespace of the line at, or of the
// closest non-blank line above it.
func (d *document) indentNear(at int) string {
	for i := min(at, len(d.lines)) - 1; i >= 0; i-- {
		l := d.lines[i]
		if strings.TrimSpace(l) == "" {
			continue
		}
		return l[:len(l)-len(strings.TrimLeftFunc(l, unicode.IsSpace))]
	}
	return ""
}

func (d *document) text() string {
	out := strings.Join(d.lines, d.eol)
	if d.finalEOL || (d.before == "" && len(d.lines) > 0) {
		out += d.eol
	}
	return out
}

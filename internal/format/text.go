package format

import (
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/outfitter-dev/waymark/internal/grammar"
)

// FormatText re-renders every waymark in text in place and reports whether
// anything changed. Lines outside waymarks are left untouched, as is the
// file's line-ending style.
func FormatText(text string, popts grammar.Options, opts Options) (string, bool) {
	recs := grammar.Parse(text, popts)
	if len(recs) == 0 {
		return text, false
	}

	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	// Splice from the bottom so earlier line numbers stay valid.
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		rendered := renderLines(r, opts)
		tail := append([]string(nil), lines[r.EndLine:]...)
		lines = append(append(lines[:r.StartLine-1], rendered...), tail...)
	}

	out := strings.Join(lines, eol)
	return out, out != text
}

// Diff returns a unified diff between before and after, or "" when they
// are equal.
func Diff(name, before, after string) string {
	if before == after {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(name), before, after)
	return fmt.Sprint(gotextdiff.ToUnified("a/"+name, "b/"+name, before, edits))
}

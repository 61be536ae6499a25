package grammar

import (
	"strings"
	"unicode"
)

// Segment is one normalized slice of waymark content.
type Segment struct {
	Text string
	// Closes is set when the segment ends with a lone sigil, terminating
	// the block at this line.
	Closes bool
}

// ProcessSegment normalizes the text that follows a sigil.
func ProcessSegment(text, leader string) Segment {
	s := strings.TrimLeft(text, " \t")
	if leader == htmlOpener {
		s = stripHTMLCloser(s)
	}

	if i := strings.LastIndex(s, Sigil); i >= 0 {
		tail := strings.TrimSpace(s[i+len(Sigil):])
		if tail == "" || tail == htmlCloser {
			return Segment{Text: strings.TrimSpace(s[:i]), Closes: true}
		}
	}
	return Segment{Text: strings.TrimRightFunc(s, unicode.IsSpace)}
}

func stripHTMLCloser(s string) string {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	if strings.HasSuffix(trimmed, htmlCloser) {
		return strings.TrimRightFunc(trimmed[:len(trimmed)-len(htmlCloser)], unicode.IsSpace)
	}
	return s
}

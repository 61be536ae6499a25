package grammar

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sigil separates the marker from free-form content.
const Sigil = ":::"

const (
	blockOpener = "/*"
	blockCloser = "*/"
	htmlOpener  = "<!--"
	htmlCloser  = "-->"
)

// Header is one tokenized waymark header line.
type Header struct {
	Indent        int
	CommentLeader string
	Type          string
	Signals       Signals
	Content       string
}

// ParseHeader tokenizes a single physical line. leaders must already be in
// priority order. ok is false when the line is not a waymark header.
func ParseHeader(line string, leaders []string) (h Header, ok bool) {
	rest := strings.TrimLeftFunc(line, unicode.IsSpace)
	indent := utf8.RuneCountInString(line[:len(line)-len(rest)])

	leader, body, ok := cutLeader(rest, leaders)
	if !ok {
		return Header{}, false
	}

	before, after, ok := strings.Cut(body, Sigil)
	if !ok {
		return Header{}, false
	}
	before = strings.TrimSpace(before)
	if before == "" || strings.ContainsFunc(before, unicode.IsSpace) {
		return Header{}, false
	}

	signals, typ, ok := splitSignals(before)
	if !ok {
		return Header{}, false
	}

	return Header{
		Indent:        indent,
		CommentLeader: leader,
		Type:          strings.ToLower(typ),
		Signals:       signals,
		Content:       after,
	}, true
}

// cutLeader matches the first leader that prefixes s and returns the text
// after it. Block comments may close on the same line.
func cutLeader(s string, leaders []string) (leader, body string, ok bool) {
	for _, l := range leaders {
		if strings.HasPrefix(s, l) {
			return l, stripBlockCloser(s[len(l):], l), true
		}
	}
	return "", "", false
}

func stripBlockCloser(body, leader string) string {
	if leader != blockOpener {
		return body
	}
	trimmed := strings.TrimRightFunc(body, unicode.IsSpace)
	if strings.HasSuffix(trimmed, blockCloser) {
		return trimmed[:len(trimmed)-len(blockCloser)]
	}
	return body
}

// splitSignals peels the leading "~" and "*" run off a marker token.
func splitSignals(token string) (Signals, string, bool) {
	var s Signals
	i := 0
loop:
	for i < len(token) {
		switch token[i] {
		case '~':
			s.Flagged = true
		case '*':
			s.Starred = true
		default:
			break loop
		}
		i++
	}
	typ := token[i:]
	if typ == "" || strings.ContainsAny(typ, "~*^") {
		return Signals{}, "", false
	}
	return s, typ, true
}

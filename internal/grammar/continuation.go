package grammar

import (
	"strings"
	"unicode"
)

// ContinuationKind classifies a line that follows a waymark header.
type ContinuationKind int

// Continuation kinds.
const (
	// ContinuationStop leaves the line unconsumed and ends the block.
	ContinuationStop ContinuationKind = iota
	// ContinuationText extends the block's content text.
	ContinuationText
	// ContinuationProperty contributes a "key ::: value" property.
	ContinuationProperty
)

func (k ContinuationKind) String() string {
	switch k {
	case ContinuationText:
		return "text"
	case ContinuationProperty:
		return "property"
	default:
		return "stop"
	}
}

// Continuation is the classification of one candidate continuation line.
type Continuation struct {
	Kind    ContinuationKind
	Key     string
	Segment Segment
}

// continuationRule decides the kind of a line from its trimmed pre-sigil
// token. Rules run in order; the first that matches wins.
type continuationRule struct {
	name  string
	match func(token string) (ContinuationKind, bool)
}

// continuationRules must keep the blessed-marker rule ahead of the
// property-key rule: "needs" and "blocks" are both, and a marker always
// starts a new record.
var continuationRules = []continuationRule{
	{name: "typeless", match: func(tok string) (ContinuationKind, bool) {
		return ContinuationText, tok == ""
	}},
	{name: "multi-token", match: func(tok string) (ContinuationKind, bool) {
		return ContinuationStop, strings.ContainsFunc(tok, unicode.IsSpace)
	}},
	{name: "blessed-marker", match: func(tok string) (ContinuationKind, bool) {
		return ContinuationStop, IsBlessedMarker(tok)
	}},
	{name: "property-key", match: func(tok string) (ContinuationKind, bool) {
		return ContinuationProperty, IsPropertyKey(tok)
	}},
}

func classifyToken(token string) ContinuationKind {
	for _, rule := range continuationRules {
		if kind, ok := rule.match(token); ok {
			return kind
		}
	}
	return ContinuationStop
}

// ClassifyContinuation classifies line as a continuation of a block whose
// header used leader.
func ClassifyContinuation(line, leader string) Continuation {
	rest := strings.TrimLeftFunc(line, unicode.IsSpace)
	if leader == "" || !strings.HasPrefix(rest, leader) {
		return Continuation{}
	}
	body := stripBlockCloser(rest[len(leader):], leader)

	before, after, ok := strings.Cut(body, Sigil)
	if !ok {
		return Continuation{}
	}
	token := strings.TrimSpace(before)

	switch classifyToken(token) {
	case ContinuationText:
		return Continuation{Kind: ContinuationText, Segment: ProcessSegment(after, leader)}
	case ContinuationProperty:
		return Continuation{
			Kind:    ContinuationProperty,
			Key:     strings.ToLower(token),
			Segment: ProcessSegment(after, leader),
		}
	default:
		return Continuation{}
	}
}

// continuation is what the engine collected after a header.
type continuation struct {
	consumed int
	texts    []string
	extras   []Property
}

// continueBlock scans lines[start:] for continuations of a header that used
// leader and reports how many lines it consumed.
func continueBlock(lines []string, start int, leader string) continuation {
	var c continuation
	for i := start; i < len(lines); i++ {
		cl := ClassifyContinuation(lines[i], leader)
		if cl.Kind == ContinuationStop {
			break
		}
		c.consumed++

		switch cl.Kind {
		case ContinuationText:
			if !(cl.Segment.Closes && cl.Segment.Text == "") {
				c.texts = append(c.texts, cl.Segment.Text)
			}
		case ContinuationProperty:
			c.extras = append(c.extras, Property{Key: cl.Key, Value: cl.Segment.Text})
		}

		// A closing sigil ends the block on property lines as well as text
		// lines; Render writes it back the same way.
		if cl.Segment.Closes {
			break
		}
	}
	return c
}

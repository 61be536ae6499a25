// Package lint checks parsed waymarks against workspace conventions.
package lint

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/outfitter-dev/waymark/internal/grammar"
)

// Severity of a rule.
type Severity string

// Severities.
const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
	SeverityOff   Severity = "off"
)

// Rule names.
const (
	RuleUnknownMarker      = "unknown-marker"
	RuleDuplicateProperty  = "duplicate-property"
	RuleDanglingRelation   = "dangling-relation"
	RuleDuplicateCanonical = "duplicate-canonical"
)

// Issue is one lint finding.
type Issue struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%d: %s [%s] %s", i.File, i.Line, i.Severity, i.Rule, i.Message)
}

// Rules maps rule names to severities.
type Rules map[string]Severity

// DefaultRules returns the built-in severities.
func DefaultRules() Rules {
	return Rules{
		RuleUnknownMarker:      SeverityWarn,
		RuleDuplicateProperty:  SeverityWarn,
		RuleDanglingRelation:   SeverityWarn,
		RuleDuplicateCanonical: SeverityError,
	}
}

// RuleNames lists every rule in a stable order.
func RuleNames() []string {
	return []string{RuleUnknownMarker, RuleDuplicateProperty, RuleDanglingRelation, RuleDuplicateCanonical}
}

// ValidSeverity reports whether s names a severity.
func ValidSeverity(s Severity) bool {
	return s == SeverityError || s == SeverityWarn || s == SeverityOff
}

// Linter runs the enabled rules over a record set.
type Linter struct {
	rules   Rules
	allowed map[string]bool
}

// Option configures a Linter.
type Option func(*Linter)

// WithRules overrides severities for the named rules.
func WithRules(r Rules) Option {
	return func(l *Linter) {
		for name, sev := range r {
			l.rules[name] = sev
		}
	}
}

// WithAllowedMarkers accepts extra marker types for unknown-marker.
func WithAllowedMarkers(markers ...string) Option {
	return func(l *Linter) {
		for _, m := range markers {
			l.allowed[strings.ToLower(m)] = true
		}
	}
}

// New returns a Linter. Unknown rule names or severities are an error.
func New(opts ...Option) (*Linter, error) {
	l := &Linter{rules: DefaultRules(), allowed: map[string]bool{}}
	for _, opt := range opts {
		opt(l)
	}
	for name, sev := range l.rules {
		if !slices.Contains(RuleNames(), name) {
			return nil, fmt.Errorf("lint: unknown rule %q", name)
		}
		if !ValidSeverity(sev) {
			return nil, fmt.Errorf("lint: rule %s: unknown severity %q", name, sev)
		}
	}
	return l, nil
}

// Lint checks recs, which may span many files. Relation and canonical
// rules consider the whole set. Issues come back ordered by file and line.
func (l *Linter) Lint(recs []grammar.Record) []Issue {
	var out []Issue
	report := func(r grammar.Record, rule, msg string) {
		sev := l.rules[rule]
		if sev == SeverityOff || sev == "" {
			return
		}
		out = append(out, Issue{File: r.File, Line: r.StartLine, Rule: rule, Severity: sev, Message: msg})
	}

	anchors := make(map[string]grammar.Record)
	for _, r := range recs {
		for _, tok := range r.Canonicals {
			if first, dup := anchors[tok]; dup {
				report(r, RuleDuplicateCanonical,
					fmt.Sprintf("%s already declared at %s:%d", tok, first.File, first.StartLine))
				continue
			}
			anchors[tok] = r
		}
	}

	for _, r := range recs {
		if !l.markerKnown(r.Type) {
			report(r, RuleUnknownMarker, fmt.Sprintf("unknown marker %q", r.Type))
		}
		for _, key := range duplicateKeys(r) {
			report(r, RuleDuplicateProperty, fmt.Sprintf("property %q set more than once", key))
		}
		for _, rel := range r.Relations {
			if rel.Kind == "ref" {
				continue
			}
			if _, ok := anchors[rel.Token]; !ok {
				report(r, RuleDanglingRelation, fmt.Sprintf("%s:%s has no ref anchor", rel.Kind, rel.Token))
			}
		}
	}

	slices.SortStableFunc(out, func(a, b Issue) int {
		return cmp.Or(cmp.Compare(a.File, b.File), cmp.Compare(a.Line, b.Line))
	})
	return out
}

func (l *Linter) markerKnown(t string) bool {
	return grammar.IsBlessedMarker(t) || l.allowed[strings.ToLower(t)]
}

// duplicateKeys returns keys set more than once in r, counting inline
// properties and "key ::: value" continuation lines, in first-seen order.
func duplicateKeys(r grammar.Record) []string {
	counts := make(map[string]int)
	var order []string
	add := func(key string) {
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	for _, p := range grammar.ScanProperties(r.ContentText) {
		add(p.Key)
	}
	lines := strings.Split(r.Raw, "\n")
	for _, line := range lines[1:] {
		if c := grammar.ClassifyContinuation(line, r.CommentLeader); c.Kind == grammar.ContinuationProperty {
			add(c.Key)
		}
	}

	var dups []string
	for _, k := range order {
		if counts[k] > 1 {
			dups = append(dups, k)
		}
	}
	return dups
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	return slices.ContainsFunc(issues, func(i Issue) bool { return i.Severity == SeverityError })
}

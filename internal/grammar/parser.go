// Package grammar recognizes waymarks in source comments and turns them into
// structured records.
//
// A waymark is a comment whose first token is a marker type followed by the
// ":::" sigil:
//
//	// todo ::: implement user authentication owner:@alice
//	//      ::: with OAuth 2.0 and PKCE
//	// see  ::: #auth/session
//
// Parsing is pure and synchronous. The registries are read-only, so Parse
// may be called from any number of goroutines.
package grammar

import (
	"strings"
)

// Options control a Parse or ParseLine call.
type Options struct {
	// File drives language and category inference.
	File string
	// Language overrides inference with a registry language id.
	Language string
	// Registry replaces the built-in language registry.
	Registry *Registry
	// Categories replaces the built-in category registry.
	Categories *CategoryRegistry
	// IncludeIgnored keeps waymarks inside "wm:ignore" fences.
	IncludeIgnored bool
}

// fileContext is the per-file metadata shared by every record of a parse.
type fileContext struct {
	file     string
	language string
	category Category
	leaders  []string
}

func (o Options) context() fileContext {
	reg := o.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	cats := o.Categories
	if cats == nil {
		cats = DefaultCategories()
	}

	ctx := fileContext{
		file:     o.File,
		language: UnknownLanguage,
		category: CategoryCode,
		leaders:  DefaultLeaders,
	}
	if o.File != "" {
		ctx.category = cats.Categorize(o.File)
	}

	switch {
	case o.Language != "":
		ctx.language = strings.ToLower(o.Language)
		if l, ok := reg.ByID(o.Language); ok {
			ctx.leaders = l.Leaders
		}
	case o.File != "":
		if l, ok := reg.Resolve(o.File); ok {
			ctx.language = l.ID
			ctx.leaders = l.Leaders
		}
	}
	ctx.leaders = leadersByPriority(ctx.leaders)
	return ctx
}

// Parse scans text and returns every waymark in source order. Malformed
// waymark-like text is treated as ordinary text.
func Parse(text string, opts Options) []Record {
	ctx := opts.context()
	if len(ctx.leaders) == 0 {
		return nil
	}

	lines := splitLines(text)
	var (
		out   []Record
		fence fenceFilter
	)
	for i := 0; i < len(lines); {
		line := lines[i]
		if fence.observe(line) && !opts.IncludeIgnored {
			i++
			continue
		}
		if !strings.Contains(line, Sigil) {
			i++
			continue
		}
		h, ok := ParseHeader(line, ctx.leaders)
		if !ok {
			i++
			continue
		}

		rec, consumed := buildBlock(ctx, lines, i, h)
		out = append(out, rec)
		i += consumed
	}
	return out
}

// ParseLine parses one line in isolation, without continuation scanning.
// It returns nil when the line is not a waymark.
func ParseLine(line string, lineNumber int, opts Options) *Record {
	ctx := opts.context()
	line = strings.TrimSuffix(line, "\r")
	h, ok := ParseHeader(line, ctx.leaders)
	if !ok {
		return nil
	}
	seg := ProcessSegment(h.Content, h.CommentLeader)
	rec := newRecord(ctx, h, lineNumber, lineNumber, strings.TrimSpace(seg.Text), nil, line)
	return &rec
}

// buildBlock runs the continuation engine after the header at lines[at] and
// assembles the record. It returns the number of lines consumed.
func buildBlock(ctx fileContext, lines []string, at int, h Header) (Record, int) {
	seg := ProcessSegment(h.Content, h.CommentLeader)
	texts := []string{seg.Text}
	consumed := 1

	var extras []Property
	if !seg.Closes {
		c := continueBlock(lines, at+1, h.CommentLeader)
		texts = append(texts, c.texts...)
		extras = c.extras
		consumed += c.consumed
	}

	content := strings.TrimSpace(strings.Join(texts, "\n"))
	raw := strings.Join(lines[at:at+consumed], "\n")
	rec := newRecord(ctx, h, at+1, at+consumed, content, extras, raw)
	return rec, consumed
}

func newRecord(ctx fileContext, h Header, start, end int, content string, extras []Property, raw string) Record {
	a := analyze(content, extras)
	return Record{
		File:          ctx.file,
		Language:      ctx.language,
		FileCategory:  ctx.category,
		StartLine:     start,
		EndLine:       end,
		Indent:        h.Indent,
		CommentLeader: h.CommentLeader,
		Signals:       h.Signals,
		Type:          h.Type,
		ContentText:   content,
		Properties:    a.properties,
		Relations:     nonNil(a.relations),
		Canonicals:    nonNil(a.canonicals),
		Mentions:      nonNil(a.mentions),
		Tags:          nonNil(a.tags),
		Raw:           raw,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// splitLines splits on "\n" and drops a trailing "\r" from every line.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ClosesExplicitly reports whether the last line of r.Raw ends the block
// with a lone sigil.
func ClosesExplicitly(r Record) bool {
	lines := splitLines(r.Raw)
	last := lines[len(lines)-1]
	if len(lines) == 1 {
		h, ok := ParseHeader(last, []string{r.CommentLeader})
		return ok && ProcessSegment(h.Content, h.CommentLeader).Closes
	}
	return ClassifyContinuation(last, r.CommentLeader).Segment.Closes
}

// Package edit inserts, removes and rewrites waymarks in workspace files.
//
// Every edit reads the file, locates the target record with the grammar,
// checks that the source still holds the record's raw text, splices the
// new lines in and writes the file back atomically through storage.
package edit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/outfitter-dev/waymark/internal/apperr"
	"github.com/outfitter-dev/waymark/internal/format"
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/ids"
	"github.com/outfitter-dev/waymark/internal/scan"
	"github.com/outfitter-dev/waymark/internal/storage"
)

// fallbackLeader is used for files whose language is unknown.
const fallbackLeader = "//"

// Editor applies waymark edits to files in one workspace. Edits through the
// same Editor are serialized.
type Editor struct {
	store    storage.Provider
	scanner  *scan.Scanner
	reserver *ids.Reserver
	format   format.Options
	mu       sync.Mutex
}

// Option configures an Editor.
type Option func(*Editor)

// WithReserver enables id assignment and release.
func WithReserver(r *ids.Reserver) Option {
	return func(e *Editor) { e.reserver = r }
}

// WithFormat sets the render options for written waymarks.
func WithFormat(opts format.Options) Option {
	return func(e *Editor) { e.format = opts }
}

// New returns an Editor over store.
func New(store storage.Provider, scanner *scan.Scanner, opts ...Option) *Editor {
	e := &Editor{store: store, scanner: scanner}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InsertSpec describes a new waymark.
type InsertSpec struct {
	// Line is the 1-based line the waymark is inserted before. Zero or a
	// line past the end appends to the file.
	Line    int
	Type    string
	Signals grammar.Signals
	Content string
	// WithID embeds a freshly reserved "[[id]]" in the content.
	WithID bool
}

// Target selects an existing waymark by any line of its block or by its
// embedded id. Raw, when set, must equal the record's current raw text.
type Target struct {
	Line int
	ID   string
	Raw  string
}

// Patch lists the fields Update rewrites. Nil fields are kept.
type Patch struct {
	Type    *string
	Signals *grammar.Signals
	Content *string
}

// Result describes a completed edit.
type Result struct {
	File string `json:"file"`
	// Record is the waymark as written, or as removed.
	Record grammar.Record `json:"record"`
	Before string         `json:"-"`
	After  string         `json:"-"`
}

// Insert renders spec with the file's comment leader and writes it. A
// line inside an existing block moves the insert to just after that block.
// The edited file is parsed again and the insert is rejected unless the new
// waymark reads back at its line and every other waymark is unchanged.
func (e *Editor) Insert(ctx context.Context, path string, spec InsertSpec) (_ *Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.load(path)
	if err != nil {
		return nil, err
	}
	leader, err := e.leaderFor(path)
	if err != nil {
		return nil, err
	}
	existing := e.parse(path, doc.before)

	at := spec.Line
	if at <= 0 || at > doc.lineCount() {
		at = doc.lineCount() + 1
	}
	at = insertionPoint(existing, at)

	content := strings.TrimSpace(spec.Content)
	if spec.WithID {
		if e.reserver == nil {
			return nil, fmt.Errorf("edit: insert: ids are not enabled: %w", apperr.ErrInvalidInput)
		}
		fp := ids.Fingerprint(grammar.Record{Type: spec.Type, ContentText: content})
		id, rerr := e.reserver.Reserve(ctx, path, at, fp, carriedIDs(existing)...)
		if rerr != nil {
			return nil, fmt.Errorf("edit: insert: %w", rerr)
		}
		defer func() {
			if err != nil {
				_ = e.reserver.Release(ctx, id)
			}
		}()
		content = ids.Embed(content, id)
	}

	indent := doc.indentNear(at)
	rec := grammar.Record{
		File:          path,
		Indent:        len([]rune(indent)),
		CommentLeader: leader,
		Signals:       spec.Signals,
		Type:          spec.Type,
		ContentText:   content,
		Properties:    grammar.PropertiesOf(),
		// Raw carries the indentation so Render reuses tabs as written.
		Raw: indent,
	}
	lines, written, err := e.render(path, rec)
	if err != nil {
		return nil, err
	}

	doc.splice(at, at-1, lines)
	written, err = e.checkSplice(path, doc, existing, written, at, at-1, len(lines))
	if err != nil {
		return nil, err
	}
	if err := e.save(path, doc); err != nil {
		return nil, err
	}
	return &Result{File: path, Record: written, Before: doc.before, After: doc.text()}, nil
}

// Remove deletes the target waymark's line range. An embedded id is
// released when ids are enabled.
func (e *Editor) Remove(ctx context.Context, path string, target Target) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.load(path)
	if err != nil {
		return nil, err
	}
	rec, err := e.locate(path, doc, target)
	if err != nil {
		return nil, err
	}

	doc.splice(rec.StartLine, rec.EndLine, nil)
	if err := e.save(path, doc); err != nil {
		return nil, err
	}
	if id, ok := ids.Find(rec.ContentText); ok && e.reserver != nil {
		if err := e.reserver.Release(ctx, id); err != nil {
			return nil, fmt.Errorf("edit: remove: release id: %w", err)
		}
	}
	return &Result{File: path, Record: rec, Before: doc.before, After: doc.text()}, nil
}

// Update re-renders the target waymark with patch applied. Properties that
// came from continuation lines are kept; an embedded id survives a content
// rewrite.
func (e *Editor) Update(_ context.Context, path string, target Target, patch Patch) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.load(path)
	if err != nil {
		return nil, err
	}
	rec, err := e.locate(path, doc, target)
	if err != nil {
		return nil, err
	}

	next := rec
	next.Properties = grammar.PropertiesOf(continuationOnly(rec)...)
	if patch.Type != nil {
		next.Type = *patch.Type
	}
	if patch.Signals != nil {
		next.Signals = *patch.Signals
	}
	if patch.Content != nil {
		next.ContentText = strings.TrimSpace(*patch.Content)
		if id, ok := ids.Find(rec.ContentText); ok {
			next.ContentText = ids.Embed(next.ContentText, id)
		}
	}

	lines, written, err := e.render(path, next)
	if err != nil {
		return nil, err
	}
	existing := e.parse(path, doc.before)
	doc.splice(rec.StartLine, rec.EndLine, lines)
	delta := len(lines) - (rec.EndLine - rec.StartLine + 1)
	written, err = e.checkSplice(path, doc, existing, written, rec.StartLine, rec.EndLine, delta)
	if err != nil {
		return nil, err
	}
	if err := e.save(path, doc); err != nil {
		return nil, err
	}
	return &Result{File: path, Record: written, Before: doc.before, After: doc.text()}, nil
}

func (e *Editor) load(path string) (*document, error) {
	data, err := e.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("edit: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return newDocument(string(data)), nil
}

func (e *Editor) save(path string, doc *document) error {
	if err := e.store.Write(path, []byte(doc.text())); err != nil {
		return fmt.Errorf("edit: write %s: %w", path, err)
	}
	return nil
}

// leaderFor picks the comment leader new waymarks in path are written with.
func (e *Editor) leaderFor(path string) (string, error) {
	l, ok := e.scanner.Registry().Resolve(path)
	if !ok {
		return fallbackLeader, nil
	}
	if l.Commentless() {
		return "", fmt.Errorf("edit: %s has no comment syntax: %w", path, apperr.ErrInvalidInput)
	}
	return l.Leaders[0], nil
}

// render formats rec and parses the result back, rejecting waymarks that
// would not read back with the requested type and content. The returned
// record has line numbers relative to the rendered block.
func (e *Editor) render(path string, rec grammar.Record) ([]string, grammar.Record, error) {
	rendered := format.Render(rec, e.format)
	back := e.parse(path, rendered)
	if len(back) != 1 || back[0].Type != rec.Type || back[0].ContentText != rec.ContentText || back[0].Signals != rec.Signals {
		return nil, grammar.Record{}, fmt.Errorf("edit: %q does not parse back as one waymark: %w", rendered, apperr.ErrInvalidInput)
	}
	return strings.Split(rendered, "\n"), back[0], nil
}

// parse reads every waymark in text, ignored fences included, so edits
// see the same records the file will hold.
func (e *Editor) parse(path, text string) []grammar.Record {
	opts := e.scanner.Options(path)
	opts.IncludeIgnored = true
	return grammar.Parse(text, opts)
}

// insertionPoint moves at past the block it would split. Inserting before
// a header is fine; inserting between a header and its continuations is not.
func insertionPoint(recs []grammar.Record, at int) int {
	for _, r := range recs {
		if r.StartLine < at && at <= r.EndLine {
			return r.EndLine + 1
		}
	}
	return at
}

// carriedIDs returns the ids already embedded in recs.
func carriedIDs(recs []grammar.Record) []string {
	var out []string
	for _, r := range recs {
		if id, ok := ids.Find(r.ContentText); ok {
			out = append(out, id)
		}
	}
	return out
}

// checkSplice parses the edited document and confirms that written (lines
// relative to its block) reads back at start, and that every record of
// before outside start..end is unchanged, shifted by delta when it follows
// the edit. It returns the written record as the file now holds it.
func (e *Editor) checkSplice(path string, doc *document, before []grammar.Record, written grammar.Record, start, end, delta int) (grammar.Record, error) {
	written.StartLine += start - 1
	written.EndLine += start - 1

	want := make([]grammar.Record, 0, len(before)+1)
	at := -1
	for _, r := range before {
		switch {
		case r.EndLine < start:
			want = append(want, r)
		case r.StartLine > end:
			if at < 0 {
				at = len(want)
				want = append(want, written)
			}
			r.StartLine += delta
			r.EndLine += delta
			want = append(want, r)
		}
	}
	if at < 0 {
		at = len(want)
		want = append(want, written)
	}

	got := e.parse(path, doc.text())
	if len(got) != len(want) {
		return grammar.Record{}, fmt.Errorf("edit: %s:%d: edit would merge or split neighbouring waymarks: %w", path, start, apperr.ErrInvalidInput)
	}
	for i, r := range got {
		if r.StartLine != want[i].StartLine || r.EndLine != want[i].EndLine || !r.Equivalent(want[i]) {
			return grammar.Record{}, fmt.Errorf("edit: %s:%d: edit would change the waymark at line %d: %w", path, start, want[i].StartLine, apperr.ErrInvalidInput)
		}
	}
	return got[at], nil
}

// locate finds the record target names and checks it against the source.
func (e *Editor) locate(path string, doc *document, target Target) (grammar.Record, error) {
	want := strings.ToLower(strings.Trim(target.ID, "[]"))
	for _, r := range e.scanner.ScanFile(path, []byte(doc.before)) {
		switch {
		case want != "":
			if id, ok := ids.Find(r.ContentText); !ok || id != want {
				continue
			}
		case target.Line > 0:
			if target.Line < r.StartLine || target.Line > r.EndLine {
				continue
			}
		default:
			return grammar.Record{}, fmt.Errorf("edit: empty target: %w", apperr.ErrInvalidTarget)
		}
		if target.Raw != "" && target.Raw != r.Raw {
			return grammar.Record{}, fmt.Errorf("edit: %s:%d: %w", path, r.StartLine, apperr.ErrStale)
		}
		if doc.slice(r.StartLine, r.EndLine) != r.Raw {
			return grammar.Record{}, fmt.Errorf("edit: %s:%d: %w", path, r.StartLine, apperr.ErrStale)
		}
		return r, nil
	}
	return grammar.Record{}, fmt.Errorf("edit: no waymark at %s (%s): %w", path, target, apperr.ErrInvalidTarget)
}

func (t Target) String() string {
	if t.ID != "" {
		return "id " + t.ID
	}
	return fmt.Sprintf("line %d", t.Line)
}

// continuationOnly returns the properties of r that its content text does
// not produce inline.
func continuationOnly(r grammar.Record) []grammar.Property {
	inline := grammar.PropertiesOf(grammar.ScanProperties(r.ContentText)...)
	var out []grammar.Property
	for _, p := range r.Properties.Pairs() {
		if v, ok := inline.Get(p.Key); ok && v == p.Value {
			continue
		}
		out = append(out, p)
	}
	return out
}

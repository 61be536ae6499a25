package grammar

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
)

func TestParse_EndToEndBlock(t *testing.T) {
	input := strings.Join([]string{
		"// todo  ::: implement user authentication",
		"//       ::: with OAuth 2.0 and PKCE",
		"// fixes ::: #auth/login-bug",
		"//       ::: support social logins",
		"// see   ::: #auth/session",
	}, "\n")

	recs := Parse(input, Options{File: "src/auth.ts"})
	if len(recs) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(recs))
	}
	r := recs[0]
	if r.Type != "todo" {
		t.Errorf("type = %q, want %q", r.Type, "todo")
	}
	want := "implement user authentication\nwith OAuth 2.0 and PKCE\nsupport social logins"
	if r.ContentText != want {
		t.Errorf("contentText = %q, want %q", r.ContentText, want)
	}
	if got := r.Properties.Keys(); !slices.Equal(got, []string{"fixes", "see"}) {
		t.Errorf("property keys = %v, want [fixes see]", got)
	}
	if v, _ := r.Properties.Get("fixes"); v != "#auth/login-bug" {
		t.Errorf("fixes = %q", v)
	}
	if v, _ := r.Properties.Get("see"); v != "#auth/session" {
		t.Errorf("see = %q", v)
	}
	if !slices.Contains(r.Relations, Relation{Kind: "see", Token: "#auth/session"}) {
		t.Errorf("relations = %v, want see:#auth/session", r.Relations)
	}
	if r.StartLine != 1 || r.EndLine != 5 {
		t.Errorf("lines = %d-%d, want 1-5", r.StartLine, r.EndLine)
	}
	if r.Raw != input {
		t.Errorf("raw = %q, want input verbatim", r.Raw)
	}
	if r.Language != "typescript" || r.FileCategory != CategoryCode {
		t.Errorf("metadata = %s/%s", r.Language, r.FileCategory)
	}
}

func TestParse_MarkerPrecedenceOverPropertyKey(t *testing.T) {
	input := "// todo ::: wire the client\n// needs ::: #api/token\n// blocks ::: #release"
	recs := Parse(input, Options{File: "a.go"})
	if len(recs) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(recs))
	}
	if recs[0].Properties.Len() != 0 {
		t.Errorf("first record swallowed a marker line: %v", recs[0].Properties.Map())
	}
	if recs[1].Type != "needs" || recs[1].StartLine != 2 {
		t.Errorf("second record = %s@%d", recs[1].Type, recs[1].StartLine)
	}
	if recs[2].Type != "blocks" || recs[2].StartLine != 3 {
		t.Errorf("third record = %s@%d", recs[2].Type, recs[2].StartLine)
	}
}

func TestParse_PropertyContinuationMakesRelation(t *testing.T) {
	input := "# todo ::: migrate schema\n# depends ::: #db/v2, #db/v3\n# ref ::: #Migrations"
	recs := Parse(input, Options{File: "migrate.py"})
	if len(recs) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(recs))
	}
	r := recs[0]
	wantRels := []Relation{
		{Kind: "depends", Token: "#db/v2"},
		{Kind: "depends", Token: "#db/v3"},
		{Kind: "ref", Token: "#migrations"},
	}
	if !slices.Equal(r.Relations, wantRels) {
		t.Errorf("relations = %v, want %v", r.Relations, wantRels)
	}
	if !slices.Equal(r.Canonicals, []string{"#migrations"}) {
		t.Errorf("canonicals = %v", r.Canonicals)
	}
	if r.ContentText != "migrate schema" {
		t.Errorf("contentText = %q", r.ContentText)
	}
}

func TestParse_ContinuationOverwritesInlineProperty(t *testing.T) {
	input := "// todo ::: ship it owner:@bob priority:low\n// owner ::: @alice"
	r := Parse(input, Options{File: "x.go"})[0]
	if got := r.Properties.Keys(); !slices.Equal(got, []string{"owner", "priority"}) {
		t.Errorf("keys = %v", got)
	}
	if v, _ := r.Properties.Get("owner"); v != "@alice" {
		t.Errorf("owner = %q, want @alice", v)
	}
}

func TestParse_ExplicitClose(t *testing.T) {
	input := "// note ::: first block :::\n// ::: not a continuation\n// todo ::: second"
	recs := Parse(input, Options{File: "x.go"})
	if len(recs) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(recs))
	}
	if recs[0].ContentText != "first block" || recs[0].EndLine != 1 {
		t.Errorf("first = %q (end %d)", recs[0].ContentText, recs[0].EndLine)
	}
	if recs[1].Type != "todo" || recs[1].StartLine != 3 {
		t.Errorf("second = %s@%d", recs[1].Type, recs[1].StartLine)
	}
}

func TestParse_CloseOnContinuationLine(t *testing.T) {
	input := "// note ::: one\n// ::: two :::\n// ::: three"
	recs := Parse(input, Options{File: "x.go"})
	if len(recs) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(recs))
	}
	if recs[0].ContentText != "one\ntwo" || recs[0].EndLine != 2 {
		t.Errorf("record = %q end %d", recs[0].ContentText, recs[0].EndLine)
	}
}

func TestParse_DifferentLeaderEndsBlock(t *testing.T) {
	input := "// todo ::: a\n# ::: b"
	recs := Parse(input, Options{})
	if len(recs) != 1 || recs[0].ContentText != "a" || recs[0].EndLine != 1 {
		t.Fatalf("records = %+v", recs)
	}
}

func TestParse_WhitespaceInMarkerRejected(t *testing.T) {
	if recs := Parse("// to do ::: x", Options{File: "a.go"}); len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
}

func TestParse_FenceIgnore(t *testing.T) {
	input := strings.Join([]string{
		"<!-- todo ::: outside -->",
		"```markdown wm:ignore",
		"<!-- todo ::: inside -->",
		"```",
		"<!-- note ::: after -->",
	}, "\n")

	recs := Parse(input, Options{File: "README.md"})
	if len(recs) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(recs))
	}
	if recs[0].ContentText != "outside" || recs[1].ContentText != "after" {
		t.Errorf("contents = %q, %q", recs[0].ContentText, recs[1].ContentText)
	}

	all := Parse(input, Options{File: "README.md", IncludeIgnored: true})
	if len(all) != 3 {
		t.Fatalf("includeIgnored: len(records) = %d, want 3", len(all))
	}
}

func TestParse_FenceCloseNeedsLongEnoughRun(t *testing.T) {
	input := strings.Join([]string{
		"````wm:ignore",
		"```",
		"<!-- todo ::: still inside -->",
		"```` trailing",
		"<!-- todo ::: also inside -->",
		"````",
		"<!-- todo ::: outside -->",
	}, "\n")
	recs := Parse(input, Options{File: "doc.md"})
	if len(recs) != 1 || recs[0].ContentText != "outside" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestParse_PlainFenceDoesNotIgnore(t *testing.T) {
	input := "```go\n// todo ::: in a normal fence\n```"
	if recs := Parse(input, Options{}); len(recs) != 1 {
		t.Errorf("len(records) = %d, want 1", len(recs))
	}
}

func TestParse_HTMLComment(t *testing.T) {
	input := "<!-- *tldr ::: waymarks in markdown -->\n<!-- ::: second line -->"
	recs := Parse(input, Options{File: "guide.md"})
	if len(recs) != 1 {
		t.Fatalf("len(records) = %d", len(recs))
	}
	r := recs[0]
	if !r.Signals.Starred || r.Type != "tldr" {
		t.Errorf("header = %+v %q", r.Signals, r.Type)
	}
	if r.ContentText != "waymarks in markdown\nsecond line" {
		t.Errorf("contentText = %q", r.ContentText)
	}
	if r.CommentLeader != "<!--" || r.FileCategory != CategoryDocs {
		t.Errorf("leader/category = %q/%q", r.CommentLeader, r.FileCategory)
	}
}

func TestParse_BlockCommentSameLine(t *testing.T) {
	recs := Parse("/* warn ::: unsafe cast */", Options{File: "a.c"})
	if len(recs) != 1 || recs[0].ContentText != "unsafe cast" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestParse_CommentlessLanguage(t *testing.T) {
	if recs := Parse(`{"note": "// todo ::: nope"}`, Options{File: "package.json"}); recs != nil {
		t.Errorf("expected nil for commentless language, got %d records", len(recs))
	}
}

func TestParse_UnknownFileUsesDefaultLeaders(t *testing.T) {
	recs := Parse("-- todo ::: x", Options{File: "weird.zzz"})
	if len(recs) != 1 || recs[0].Language != UnknownLanguage {
		t.Fatalf("records = %+v", recs)
	}
}

func TestParse_LanguageOverride(t *testing.T) {
	recs := Parse("# todo ::: x\n// todo ::: y", Options{File: "notes.txt", Language: "python"})
	if len(recs) != 1 || recs[0].ContentText != "x" || recs[0].Language != "python" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestParse_CRLFStripped(t *testing.T) {
	recs := Parse("// todo ::: a\r\n// ::: b\r\n", Options{File: "a.go"})
	if len(recs) != 1 {
		t.Fatalf("len(records) = %d", len(recs))
	}
	if recs[0].Raw != "// todo ::: a\n// ::: b" {
		t.Errorf("raw = %q", recs[0].Raw)
	}
}

func TestParse_IndentAndLines(t *testing.T) {
	input := "func main() {\n\t\t// ~fix ::: off by one\n}"
	r := Parse(input, Options{File: "main.go"})[0]
	if r.Indent != 2 || r.StartLine != 2 || !r.Signals.Flagged {
		t.Errorf("record = indent %d line %d signals %+v", r.Indent, r.StartLine, r.Signals)
	}
}

func TestParseLine(t *testing.T) {
	r := ParseLine("  // todo ::: one line owner:@amy\r", 42, Options{File: "a.go"})
	if r == nil {
		t.Fatal("expected record")
	}
	if r.StartLine != 42 || r.EndLine != 42 || r.Indent != 2 {
		t.Errorf("position = %d-%d indent %d", r.StartLine, r.EndLine, r.Indent)
	}
	if v, _ := r.Properties.Get("owner"); v != "@amy" {
		t.Errorf("owner = %q", v)
	}
	if ParseLine("// plain comment", 1, Options{}) != nil {
		t.Error("plain comment should not parse")
	}
}

func TestRecord_JSONIsPlainData(t *testing.T) {
	r := Parse("// todo ::: hi @ann #x ref:#Y", Options{File: "a.go"})[0]
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equivalent(r) {
		t.Errorf("json round trip changed record:\n%s", data)
	}
}

func TestClosesExplicitly(t *testing.T) {
	closed := Parse("// note ::: a\n// ::: b :::", Options{})[0]
	if !ClosesExplicitly(closed) {
		t.Error("expected explicit close")
	}
	open := Parse("// note ::: a", Options{})[0]
	if ClosesExplicitly(open) {
		t.Error("unexpected explicit close")
	}
}

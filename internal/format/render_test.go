package format

import (
	"strings"
	"testing"

	"github.com/outfitter-dev/waymark/internal/grammar"
)

func parseOne(t *testing.T, text, file string) grammar.Record {
	t.Helper()
	recs := grammar.Parse(text, grammar.Options{File: file})
	if len(recs) != 1 {
		t.Fatalf("Parse(%q) returned %d records, want 1", text, len(recs))
	}
	return recs[0]
}

func TestRender_Aligned(t *testing.T) {
	input := strings.Join([]string{
		"// todo ::: implement user authentication",
		"// ::: with OAuth 2.0 and PKCE",
		"// fixes ::: #auth/login-bug",
		"// see ::: #auth/session",
	}, "\n")
	got := Render(parseOne(t, input, "auth.ts"), Options{AlignContinuations: true})
	want := strings.Join([]string{
		"// todo  ::: implement user authentication",
		"//       ::: with OAuth 2.0 and PKCE",
		"// fixes ::: #auth/login-bug",
		"// see   ::: #auth/session",
	}, "\n")
	if got != want {
		t.Errorf("Render =\n%s\nwant\n%s", got, want)
	}
}

func TestRender_Compact(t *testing.T) {
	input := "  #  ~*fix   :::   off by one  owner:@amy"
	got := Render(parseOne(t, input, "x.py"), Options{})
	if want := "  # ~*fix ::: off by one  owner:@amy"; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRender_BlockAndHTMLClosers(t *testing.T) {
	c := Render(parseOne(t, "/*   warn ::: unsafe */", "a.c"), Options{})
	if c != "/* warn ::: unsafe */" {
		t.Errorf("block = %q", c)
	}
	h := Render(parseOne(t, "<!-- note ::: a -->\n<!-- ::: b :::-->", "a.md"), Options{})
	if h != "<!-- note ::: a -->\n<!-- ::: b ::: -->" {
		t.Errorf("html = %q", h)
	}
}

func TestRender_RoundTrip(t *testing.T) {
	cases := []struct {
		file, text string
	}{
		{"a.go", "// todo ::: plain"},
		{"a.go", "// *note ::: multi\n// ::: line #tag @bob"},
		{"a.go", "// todo ::: x owner:@bob\n// owner ::: @alice\n// depends ::: #a, #b"},
		{"a.go", "// note ::: closed early :::"},
		{"a.go", "// note ::: a\n// ref ::: #Anchor :::"},
		{"a.go", `// todo ::: quoted note:"two words" ref:#X`},
		{"a.py", "# context ::: why\n#   ::: because"},
		{"a.md", "<!-- tldr ::: summary -->\n<!-- see ::: #docs/intro -->"},
		{"a.sql", "-- todo ::: index #perf"},
		{"a.go", "// todo :::"},
	}
	for _, tc := range cases {
		recs := grammar.Parse(tc.text, grammar.Options{File: tc.file})
		if len(recs) != 1 {
			t.Fatalf("Parse(%q) = %d records", tc.text, len(recs))
		}
		for _, align := range []bool{false, true} {
			out := Render(recs[0], Options{AlignContinuations: align})
			back := grammar.Parse(out, grammar.Options{File: tc.file})
			if len(back) != 1 {
				t.Errorf("re-parse of %q gave %d records", out, len(back))
				continue
			}
			if !back[0].Equivalent(recs[0]) {
				t.Errorf("round trip changed record (align=%v):\n in: %q\nout: %q\n got %+v\nwant %+v",
					align, tc.text, out, back[0], recs[0])
			}
		}
	}
}

func TestRender_KeepsTabIndent(t *testing.T) {
	r := parseOne(t, "\t\t// todo ::: x\n\t\t// ::: y", "a.go")
	if got := Render(r, Options{}); got != "\t\t// todo ::: x\n\t\t// ::: y" {
		t.Errorf("Render = %q", got)
	}
}

func TestFormatText(t *testing.T) {
	input := "package main\r\n\r\n//   todo   :::   tidy me\r\n//  ::: please\r\nfunc main() {}\r\n"
	out, changed := FormatText(input, grammar.Options{File: "main.go"}, Options{})
	if !changed {
		t.Fatal("expected a change")
	}
	want := "package main\r\n\r\n// todo ::: tidy me\r\n// ::: please\r\nfunc main() {}\r\n"
	if out != want {
		t.Errorf("FormatText = %q, want %q", out, want)
	}
	again, changed := FormatText(out, grammar.Options{File: "main.go"}, Options{})
	if changed || again != out {
		t.Errorf("second pass changed output: %q", again)
	}
}

func TestFormatText_NoWaymarks(t *testing.T) {
	in := "just text\n"
	if out, changed := FormatText(in, grammar.Options{File: "a.go"}, Options{}); changed || out != in {
		t.Errorf("FormatText changed plain text: %q", out)
	}
}

func TestDiff(t *testing.T) {
	if d := Diff("a.go", "x\n", "x\n"); d != "" {
		t.Errorf("equal inputs diff = %q", d)
	}
	d := Diff("a.go", "// todo   ::: x\n", "// todo ::: x\n")
	for _, want := range []string{"--- a/a.go", "+++ b/a.go", "-// todo   ::: x", "+// todo ::: x"} {
		if !strings.Contains(d, want) {
			t.Errorf("diff missing %q:\n%s", want, d)
		}
	}
}

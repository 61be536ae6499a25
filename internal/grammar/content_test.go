package grammar

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestScanProperties(t *testing.T) {
	cases := []struct {
		text string
		want []Property
	}{
		{text: "owner:@alice priority:high", want: []Property{{"owner", "@alice"}, {"priority", "high"}}},
		{text: `note:"has spaces" Since:v2`, want: []Property{{"note", "has spaces"}, {"since", "v2"}}},
		{text: `q:"say \"hi\" \\ ok"`, want: []Property{{"q", `say "hi" \ ok`}}},
		{text: "label: spaced value", want: nil},
		{text: "visit https://example.com now", want: nil},
		{text: "run `cmd key:value` first", want: nil},
		{text: "a:1 a:2", want: []Property{{"a", "1"}, {"a", "2"}}},
		{text: "x:y,z tail", want: []Property{{"x", "y,z"}}},
	}
	for _, tc := range cases {
		got := ScanProperties(tc.text)
		if !slices.Equal(got, tc.want) {
			t.Errorf("ScanProperties(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestExtractMentions(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{text: "ping @alice and @bob, then @alice again", want: []string{"@alice", "@bob"}},
		{text: "mail dev@example.com", want: nil},
		{text: "uses @Component() decorator", want: nil},
		{text: "assign @team/platform.", want: []string{"@team/platform"}},
		{text: "(@carol)", want: []string{"@carol"}},
	}
	for _, tc := range cases {
		if got := ExtractMentions(tc.text); !slices.Equal(got, tc.want) {
			t.Errorf("ExtractMentions(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestExtractTags(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{text: "see #perf and #auth/login.", want: []string{"#perf", "#auth/login"}},
		{text: "ref:#Cache #cache", want: []string{"#Cache", "#cache"}},
		{text: "entity &#39; and url/#frag", want: nil},
		{text: "#a #a", want: []string{"#a"}},
	}
	for _, tc := range cases {
		if got := ExtractTags(tc.text); !slices.Equal(got, tc.want) {
			t.Errorf("ExtractTags(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestNormalizeToken(t *testing.T) {
	cases := map[string]string{
		"#Auth/Login": "#auth/login",
		" cache ":     "#cache",
		`"#quoted"`:   "#quoted",
		"##double":    "#double",
		"#":           "",
		"":            "",
	}
	for in, want := range cases {
		if got := NormalizeToken(in); got != want {
			t.Errorf("NormalizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAnalyze_RefCanonicals(t *testing.T) {
	a := analyze("define ref:Alpha,Beta,alpha", nil)
	want := []Relation{
		{Kind: "ref", Token: "#alpha"},
		{Kind: "ref", Token: "#beta"},
		{Kind: "ref", Token: "#alpha"},
	}
	if !slices.Equal(a.relations, want) {
		t.Errorf("relations = %v", a.relations)
	}
	if !slices.Equal(a.canonicals, []string{"#alpha", "#beta"}) {
		t.Errorf("canonicals = %v", a.canonicals)
	}
}

func TestAnalyze_NonRelationPropertyHasNoEdges(t *testing.T) {
	a := analyze("owner:@x status:open", nil)
	if len(a.relations) != 0 || a.properties.Len() != 2 {
		t.Errorf("analysis = %+v", a)
	}
}

func TestMaskCodeSpans(t *testing.T) {
	got := maskCodeSpans("a ``b`c`` d `unterminated")
	want := "a \x00\x00\x00\x00\x00\x00\x00 d `unterminated"
	if got != want {
		t.Errorf("maskCodeSpans = %q", got)
	}
}

func TestParse_HostileInputFinishesQuickly(t *testing.T) {
	const size = 1 << 20
	inputs := map[string]string{
		"key colons":         strings.Repeat("a:", size/2),
		"at signs":           strings.Repeat("@", size),
		"hashes":             strings.Repeat("#", size),
		"backticks":          strings.Repeat("`", size),
		"unterminated quote": `key:"` + strings.Repeat(`\\`, size/2),
		"mixed sigils":       strings.Repeat("a@b#c`d:\"", size/9),
	}
	for name, body := range inputs {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			recs := Parse("// todo ::: "+body+"\n// ::: "+body, Options{File: "a.go"})
			if elapsed := time.Since(start); elapsed > 10*time.Second {
				t.Errorf("Parse took %s", elapsed)
			}
			if len(recs) != 1 || recs[0].Type != "todo" || recs[0].EndLine != 2 {
				t.Fatalf("records = %d", len(recs))
			}
		})
	}
}

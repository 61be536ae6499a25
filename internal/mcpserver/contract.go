package mcpserver

import (
	"fmt"
	"strings"

	"github.com/outfitter-dev/waymark/internal/grammar"
)

// GrammarURI is the resource URI of the grammar reference.
const GrammarURI = "waymark://grammar"

const grammarIntro = `# Waymark Grammar Reference

A waymark is a comment whose first token is a marker type followed by the
` + "`:::`" + ` sigil. Use the comment leader of the file's language.

` + "```" + `go
// todo ::: implement user authentication owner:@alice
//      ::: with OAuth 2.0 and PKCE
// see  ::: #auth/session
` + "```" + `

## Rules

1. **Header.** ` + "`<leader> [signals]<type> ::: <content>`" + `. The type is a single
   token with no whitespace.
2. **Signals.** ` + "`~`" + ` flags a waymark, ` + "`*`" + ` stars it. Write them directly
   before the type (` + "`~*todo`" + `).
3. **Continuations.** A following comment line with the same leader and an
   empty type (` + "`// ::: more text`" + `) extends the content. A line
   ` + "`// <property> ::: value`" + ` adds a property. A blessed marker always starts
   a new waymark.
4. **Closing.** A trailing ` + "`:::`" + ` ends the block explicitly.
5. **Properties.** Inline ` + "`key:value`" + ` or ` + "`key:\"quoted value\"`" + `. Values
   may not start with ` + "`/`" + `, ` + "`:`" + ` or a quote. The last value for a key wins.
6. **Mentions and tags.** ` + "`@name`" + ` and ` + "`#tag/path`" + ` anywhere in content.
7. **Relations.** Relation properties take comma-separated ` + "`#tokens`" + `.
   ` + "`ref:#token`" + ` declares a canonical anchor; others point at one.
8. **Ignored fences.** Waymarks inside a Markdown fence whose info string
   contains ` + "`wm:ignore`" + ` are skipped.
`

// GrammarReference renders the grammar reference from the live marker,
// property and relation tables.
func GrammarReference() string {
	var b strings.Builder
	b.WriteString(grammarIntro)

	b.WriteString("\n## Blessed markers\n\n| Marker | Category | Aliases |\n|---|---|---|\n")
	for _, m := range grammar.Markers() {
		fmt.Fprintf(&b, "| `%s` | %s | %s |\n", m.Name, m.Category, codeList(m.Aliases))
	}

	b.WriteString("\n## Property continuation keys\n\n")
	b.WriteString(codeList(grammar.PropertyKeys()))
	b.WriteString("\n\n## Relation kinds\n\n")
	b.WriteString(codeList(grammar.RelationKinds()))
	b.WriteString("\n")
	return b.String()
}

func codeList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

package grammar

import (
	"regexp"
	"strings"
)

var ignoreInfoRe = regexp.MustCompile(`(?i)(?:^|[^a-z0-9_:-])wm:ignore(?:$|[^a-z0-9_:-])`)

// fenceFilter tracks whether the scan is inside a markdown fence whose info
// string asks for waymarks to be ignored.
type fenceFilter struct {
	inside bool
	run    int
}

// observe advances the filter over one line and reports whether the line
// belongs to an ignored fence, fence lines included.
func (f *fenceFilter) observe(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	n := backtickRun([]byte(trimmed))

	if !f.inside {
		if n >= 3 && ignoreInfoRe.MatchString(trimmed[n:]) {
			f.inside = true
			f.run = n
			return true
		}
		return false
	}

	if n >= f.run && strings.TrimSpace(trimmed[n:]) == "" {
		f.inside = false
		f.run = 0
	}
	return true
}

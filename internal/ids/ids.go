// Package ids assigns stable short identifiers to waymarks. An id lives in
// the waymark's content as "[[id]]".
package ids

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"

	"github.com/outfitter-dev/waymark/internal/checksum"
	"github.com/outfitter-dev/waymark/internal/grammar"
)

// DefaultLength is the number of base36 characters in a generated id.
const DefaultLength = 7

const (
	minLength = 4
	maxLength = 16
)

var embeddedRe = regexp.MustCompile(`\[\[([A-Za-z0-9][A-Za-z0-9:_-]*)\]\]`)

// Generator derives ids from a waymark's file and fingerprint.
type Generator struct {
	length int
}

// NewGenerator returns a generator for ids of length characters. Lengths
// outside 4..16 fall back to DefaultLength.
func NewGenerator(length int) *Generator {
	if length < minLength || length > maxLength {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate returns the id for (file, fingerprint, salt). The same inputs
// always give the same id. It keeps the low-order digits, which are
// uniformly distributed; the leading digit of a 128-bit value is not.
func (g *Generator) Generate(file, fingerprint string, salt int) string {
	key := "waymark:id:" + file + ":" + fingerprint + ":" + strconv.Itoa(salt)
	uid := deterministicUUID(key)
	s := new(big.Int).SetBytes(uid[:]).Text(36)
	if len(s) < g.length {
		s = strings.Repeat("0", g.length-len(s)) + s
	}
	return s[len(s)-g.length:]
}

func deterministicUUID(key string) uuid.UUID {
	uid, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	}
	return uid
}

// Fingerprint identifies a waymark by marker and content, ignoring any
// embedded id and surrounding whitespace.
func Fingerprint(r grammar.Record) string {
	return checksum.Sum([]byte(r.Type + "\n" + Strip(r.ContentText)))
}

// Find returns the first embedded id in text.
func Find(text string) (string, bool) {
	m := embeddedRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// Embed appends "[[id]]" to content unless it already carries one.
func Embed(content, id string) string {
	if _, ok := Find(content); ok {
		return content
	}
	if content == "" {
		return "[[" + id + "]]"
	}
	return content + " [[" + id + "]]"
}

// Strip removes every embedded id from content.
func Strip(content string) string {
	out := embeddedRe.ReplaceAllString(content, "")
	return strings.Join(strings.Fields(out), " ")
}

package webidl

import (
	"strings"
	"time"
)

// https://heycam.github.io/webidl/#idl-DOMString
type DOMString = string

// https://heycam.github.io/webidl/#idl-USVString
type USVString = string

// https://w3c.github.io/hr-time/#dom-domhighrestimestamp
type DOMHighResTimeStamp float64

// Since returns the milliseconds elapsed from origin, the way a document's time origin is used.
func Since(origin time.Time) DOMHighResTimeStamp {
	return DOMHighResTimeStamp(float64(time.Since(origin).Microseconds()) / 1000)
}

// https://infra.spec.whatwg.org/#ascii-whitespace
func IsASCIIWhitespace(r rune) bool {
	switch r {
	case '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

// ContainsASCIIWhitespace reports whether s has any ASCII whitespace code point.
func ContainsASCIIWhitespace(s string) bool {
	return strings.IndexFunc(s, IsASCIIWhitespace) != -1
}

// https://infra.spec.whatwg.org/#split-on-ascii-whitespace
func SplitOnASCIIWhitespace(s string) []string {
	return strings.FieldsFunc(s, IsASCIIWhitespace)
}

// https://infra.spec.whatwg.org/#ascii-lowercase
func ASCIILowercase(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

// https://dom.spec.whatwg.org/#concept-ordered-set-parser
func OrderedSet(s string) []string {
	var set []string
	seen := map[string]bool{}
	for _, tok := range SplitOnASCIIWhitespace(s) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		set = append(set, tok)
	}
	return set
}

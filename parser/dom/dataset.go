package dom

import (
	"strings"
)

const dataPrefix = "data-"

// DOMStringMap exposes the element's data-* attributes under camel cased names,
// so `data-add-state` is read as `addState`.
// https://html.spec.whatwg.org/#domstringmap
type DOMStringMap struct {
	element *Node
}

// https://html.spec.whatwg.org/#concept-domstringmap-pairs
func (m *DOMStringMap) pairs() [][2]string {
	var out [][2]string
	if m.element.Element == nil {
		return out
	}
	for _, a := range m.element.Attributes.attrs {
		if !strings.HasPrefix(a.Name, dataPrefix) || hasASCIIUpper(a.Name) {
			continue
		}
		out = append(out, [2]string{camelize(a.Name[len(dataPrefix):]), a.Value})
	}
	return out
}

// Get returns the value of the named entry and whether it exists.
func (m *DOMStringMap) Get(name string) (string, bool) {
	for _, p := range m.pairs() {
		if p[0] == name {
			return p[1], true
		}
	}
	return "", false
}

func (m *DOMStringMap) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Keys lists the entry names in attribute order.
func (m *DOMStringMap) Keys() []string {
	var keys []string
	for _, p := range m.pairs() {
		keys = append(keys, p[0])
	}
	return keys
}

// Set is https://html.spec.whatwg.org/#dom-domstringmap-setitem
func (m *DOMStringMap) Set(name, value string) error {
	if hasDashLower(name) {
		return NewDOMException(SyntaxError, "%q is not a valid dataset property name", name)
	}
	return m.element.SetAttribute(dataPrefix+kebab(name), value)
}

// Delete is https://html.spec.whatwg.org/#dom-domstringmap-removeitem
func (m *DOMStringMap) Delete(name string) {
	if hasDashLower(name) {
		return
	}
	m.element.RemoveAttribute(dataPrefix + kebab(name))
}

// camelize removes each "-" followed by an ASCII lower alpha and uppercases that letter.
func camelize(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '-' && i+1 < len(s) && isLower(s[i+1]) {
			b.WriteByte(s[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func kebab(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			b.WriteByte('-')
			b.WriteByte(c - 'A' + 'a')
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isLower(c byte) bool {
	return 'a' <= c && c <= 'z'
}

func hasASCIIUpper(s string) bool {
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			return true
		}
	}
	return false
}

func hasDashLower(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '-' && isLower(s[i+1]) {
			return true
		}
	}
	return false
}

package dom

import (
	"strings"

	"github.com/heathj/statetoggle/parser/webidl"
)

// DOMTokenList is a live view over a whitespace separated attribute, usually `class`.
// https://dom.spec.whatwg.org/#interface-domtokenlist
type DOMTokenList struct {
	element   *Node
	localName string
}

// Items returns the token set in order.
func (l *DOMTokenList) Items() []string {
	return webidl.OrderedSet(l.element.GetAttribute(l.localName))
}

func (l *DOMTokenList) Length() int {
	return len(l.Items())
}

// Value is the underlying attribute value.
func (l *DOMTokenList) Value() string {
	return l.element.GetAttribute(l.localName)
}

func (l *DOMTokenList) Contains(token string) bool {
	for _, t := range l.Items() {
		if t == token {
			return true
		}
	}
	return false
}

func validateToken(token string) error {
	if token == "" {
		return NewDOMException(SyntaxError, "the token provided must not be empty")
	}
	if webidl.ContainsASCIIWhitespace(token) {
		return NewDOMException(InvalidCharacterError, "the token provided (%q) contains HTML space characters", token)
	}
	return nil
}

// Add is https://dom.spec.whatwg.org/#dom-domtokenlist-add
// All tokens are validated before the list is touched.
func (l *DOMTokenList) Add(tokens ...string) error {
	for _, t := range tokens {
		if err := validateToken(t); err != nil {
			return err
		}
	}
	set := l.Items()
	for _, t := range tokens {
		if !contains(set, t) {
			set = append(set, t)
		}
	}
	return l.update(set)
}

// Remove is https://dom.spec.whatwg.org/#dom-domtokenlist-remove
func (l *DOMTokenList) Remove(tokens ...string) error {
	for _, t := range tokens {
		if err := validateToken(t); err != nil {
			return err
		}
	}
	set := l.Items()
	kept := set[:0]
	for _, t := range set {
		if !contains(tokens, t) {
			kept = append(kept, t)
		}
	}
	return l.update(kept)
}

// https://dom.spec.whatwg.org/#concept-dtl-update
func (l *DOMTokenList) update(set []string) error {
	if !l.element.HasAttribute(l.localName) && len(set) == 0 {
		return nil
	}
	return l.element.SetAttribute(l.localName, strings.Join(set, " "))
}

func (l *DOMTokenList) String() string {
	return l.Value()
}

func indexOf(set []string, s string) int {
	for i, v := range set {
		if v == s {
			return i
		}
	}
	return -1
}

func contains(set []string, s string) bool {
	return indexOf(set, s) != -1
}

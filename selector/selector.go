// Package selector compiles CSS selectors and runs them against dom trees, giving the
// querySelector family of https://dom.spec.whatwg.org/#scope-match-a-selectors-string.
package selector

import (
	"strings"

	"github.com/heathj/statetoggle/parser/dom"
	"github.com/heathj/statetoggle/parser/webidl"
)

type combinator uint8

const (
	descendant combinator = iota
	child
	adjacent
	sibling
)

// Group is a compiled selector list.
type Group struct {
	text      string
	selectors []*complexSelector
}

type complexSelector struct {
	// compounds[i] and compounds[i+1] are joined by combinators[i].
	compounds   []*compound
	combinators []combinator
}

type compound struct {
	tag     string
	ids     []string
	classes []string
	attrs   []attrSelector
	pseudos []pseudo
}

type attrSelector struct {
	name, op, value string
	insensitive     bool
}

type pseudo struct {
	name string
	not  *Group

	// a and b are the an+b coefficients of the :nth-* pseudo-classes.
	a, b int
}

func (g *Group) String() string {
	return g.text
}

// Match reports whether el matches any selector in the group.
func (g *Group) Match(el *dom.Node) bool {
	if el == nil || el.NodeType != dom.ElementNode {
		return false
	}
	for _, s := range g.selectors {
		if s.matchAt(el, len(s.compounds)-1) {
			return true
		}
	}
	return false
}

// QueryAll returns the descendants of root that match, in tree order.
func (g *Group) QueryAll(root *dom.Node) []*dom.Node {
	var out []*dom.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		c.Walk(func(n *dom.Node) bool {
			if g.Match(n) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

// Query returns the first matching descendant of root, or nil.
func (g *Group) Query(root *dom.Node) *dom.Node {
	var found *dom.Node
	for c := root.FirstChild; c != nil && found == nil; c = c.NextSibling {
		c.Walk(func(n *dom.Node) bool {
			if g.Match(n) {
				found = n
				return false
			}
			return true
		})
	}
	return found
}

func (s *complexSelector) matchAt(n *dom.Node, i int) bool {
	if !s.compounds[i].match(n) {
		return false
	}
	if i == 0 {
		return true
	}
	switch s.combinators[i-1] {
	case child:
		p := n.ParentElement()
		return p != nil && s.matchAt(p, i-1)
	case descendant:
		for p := n.ParentElement(); p != nil; p = p.ParentElement() {
			if s.matchAt(p, i-1) {
				return true
			}
		}
	case adjacent:
		p := previousElementSibling(n)
		return p != nil && s.matchAt(p, i-1)
	case sibling:
		for p := previousElementSibling(n); p != nil; p = previousElementSibling(p) {
			if s.matchAt(p, i-1) {
				return true
			}
		}
	}
	return false
}

func (c *compound) match(n *dom.Node) bool {
	if n.NodeType != dom.ElementNode {
		return false
	}
	if c.tag != "" && webidl.ASCIILowercase(n.LocalName) != c.tag {
		return false
	}
	for _, id := range c.ids {
		if n.ID() != id {
			return false
		}
	}
	if len(c.classes) > 0 {
		have := webidl.OrderedSet(n.ClassName())
		for _, want := range c.classes {
			if !containsString(have, want) {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		if !a.match(n) {
			return false
		}
	}
	for _, p := range c.pseudos {
		if !p.match(n) {
			return false
		}
	}
	return true
}

func (a attrSelector) match(n *dom.Node) bool {
	v, ok := n.LookupAttribute(a.name)
	if !ok {
		return false
	}
	want := a.value
	if a.insensitive {
		v, want = webidl.ASCIILowercase(v), webidl.ASCIILowercase(want)
	}
	switch a.op {
	case "":
		return true
	case "=":
		return v == want
	case "~=":
		return want != "" && !webidl.ContainsASCIIWhitespace(want) &&
			containsString(webidl.SplitOnASCIIWhitespace(v), want)
	case "|=":
		return v == want || strings.HasPrefix(v, want+"-")
	case "^=":
		return want != "" && strings.HasPrefix(v, want)
	case "$=":
		return want != "" && strings.HasSuffix(v, want)
	case "*=":
		return want != "" && strings.Contains(v, want)
	}
	return false
}

var formControls = map[string]bool{
	"button": true, "input": true, "select": true, "textarea": true,
	"optgroup": true, "option": true, "fieldset": true,
}

func (p pseudo) match(n *dom.Node) bool {
	switch p.name {
	case "not":
		return !p.not.Match(n)
	case "first-child":
		return previousElementSibling(n) == nil
	case "last-child":
		return nextElementSibling(n) == nil
	case "only-child":
		return previousElementSibling(n) == nil && nextElementSibling(n) == nil
	case "empty":
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.NodeType == dom.ElementNode || (c.NodeType == dom.TextNode && c.Text.Data != "") {
				return false
			}
		}
		return true
	case "root":
		return n.ParentNode != nil && n.ParentNode.NodeType == dom.DocumentNode
	case "checked":
		switch n.LocalName {
		case "input":
			t := webidl.ASCIILowercase(n.GetAttribute("type"))
			return (t == "checkbox" || t == "radio") && n.HasAttribute("checked")
		case "option":
			return n.HasAttribute("selected")
		}
		return false
	case "disabled":
		return formControls[n.LocalName] && n.HasAttribute("disabled")
	case "enabled":
		return formControls[n.LocalName] && !n.HasAttribute("disabled")
	case "focus":
		od := n.OwnerDocument
		return od != nil && od.Document != nil && od.FocusedElement() == n
	case "link", "any-link":
		return (n.LocalName == "a" || n.LocalName == "area") && n.HasAttribute("href")
	case "nth-child":
		return nth(p.a, p.b, position(n, false, false))
	case "nth-last-child":
		return nth(p.a, p.b, position(n, true, false))
	case "nth-of-type":
		return nth(p.a, p.b, position(n, false, true))
	case "nth-last-of-type":
		return nth(p.a, p.b, position(n, true, true))
	case "only-of-type":
		return position(n, false, true) == 1 && position(n, true, true) == 1
	}
	return false
}

// position is n's 1-based index among its element siblings, counted from the end when
// fromEnd is set and among same-type siblings only when ofType is set.
func position(n *dom.Node, fromEnd, ofType bool) int {
	i := 1
	for s := siblingOf(n, fromEnd); s != nil; s = siblingOf(s, fromEnd) {
		if s.NodeType != dom.ElementNode {
			continue
		}
		if ofType && (s.LocalName != n.LocalName || s.NamespaceURI != n.NamespaceURI) {
			continue
		}
		i++
	}
	return i
}

func siblingOf(n *dom.Node, next bool) *dom.Node {
	if next {
		return n.NextSibling
	}
	return n.PreviousSibling
}

// nth reports whether i = a*k + b for some integer k >= 0.
func nth(a, b, i int) bool {
	if a == 0 {
		return i == b
	}
	return (i-b)%a == 0 && (i-b)/a >= 0
}

func previousElementSibling(n *dom.Node) *dom.Node {
	for s := n.PreviousSibling; s != nil; s = s.PreviousSibling {
		if s.NodeType == dom.ElementNode {
			return s
		}
	}
	return nil
}

func nextElementSibling(n *dom.Node) *dom.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.NodeType == dom.ElementNode {
			return s
		}
	}
	return nil
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

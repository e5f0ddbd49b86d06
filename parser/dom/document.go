package dom

import (
	"time"

	"github.com/heathj/statetoggle/parser/webidl"
)

// https://html.spec.whatwg.org/#current-document-readiness
type DocumentReadyState string

const (
	Loading     DocumentReadyState = "loading"
	Interactive DocumentReadyState = "interactive"
	Complete    DocumentReadyState = "complete"
)

// DocumentMode is https://dom.spec.whatwg.org/#concept-document-mode
type DocumentMode string

const (
	NoQuirksMode      DocumentMode = "no-quirks"
	QuirksMode        DocumentMode = "quirks"
	LimitedQuirksMode DocumentMode = "limited-quirks"
)

// Document is https://dom.spec.whatwg.org/#interface-document
type Document struct {
	URL, ContentType, CompatMode string
	ReadyState                   DocumentReadyState
	Mode                         DocumentMode

	// DefaultView is the parent of the document in the event path, normally the window.
	DefaultView Target
	TimeOrigin  time.Time

	activeElement  *Node
	observers      map[int]func(MutationRecord)
	nextObserver   int
	scrollIntoView func(*Node)
}

func newDocument() *Document {
	return &Document{
		URL:         "about:blank",
		ContentType: "text/html",
		CompatMode:  "CSS1Compat",
		ReadyState:  Loading,
		Mode:        NoQuirksMode,
		TimeOrigin:  time.Now(),
		observers:   map[int]func(MutationRecord){},
	}
}

// https://dom.spec.whatwg.org/#text
type Text struct {
	Data string
}

// https://dom.spec.whatwg.org/#interface-comment
type Comment struct {
	Data string
}

// DocumentType is https://dom.spec.whatwg.org/#documenttype
type DocumentType struct {
	Name     string
	PublicID string
	SystemID string
}

// DocumentElement is https://dom.spec.whatwg.org/#dom-document-documentelement
func (n *Node) DocumentElement() *Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.NodeType == ElementNode {
			return c
		}
	}
	return nil
}

// Body is https://html.spec.whatwg.org/#dom-document-body
func (n *Node) Body() *Node {
	root := n.DocumentElement()
	if root == nil || root.LocalName != "html" {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.NodeType == ElementNode && (c.LocalName == "body" || c.LocalName == "frameset") {
			return c
		}
	}
	return nil
}

// GetElementByID returns the first element in tree order with the given id.
func (n *Node) GetElementByID(id string) *Node {
	var found *Node
	n.Walk(func(d *Node) bool {
		if d.NodeType == ElementNode && d.ID() == id {
			found = d
			return false
		}
		return true
	})
	return found
}

// ActiveElement is https://html.spec.whatwg.org/#dom-document-activeelement
// With nothing focused it falls back to the body.
func (n *Node) ActiveElement() *Node {
	if n.Document == nil {
		return nil
	}
	if n.activeElement != nil {
		return n.activeElement
	}
	return n.Body()
}

// FocusedElement returns the element holding focus, or nil.
func (n *Node) FocusedElement() *Node {
	if n.Document == nil {
		return nil
	}
	return n.activeElement
}

// SetScrollHandler installs the function the document calls when an element should be
// scrolled into view.
func (n *Node) SetScrollHandler(fn func(*Node)) {
	n.scrollIntoView = fn
}

// Now returns the time since the document's time origin.
func (n *Node) Now() webidl.DOMHighResTimeStamp {
	return webidl.Since(n.TimeOrigin)
}

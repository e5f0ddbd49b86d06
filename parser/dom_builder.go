package parser

import (
	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/heathj/statetoggle/parser/dom"
)

// DOMBuilder writes parsed nodes into a dom document, keeping a stack of open
// elements the same way tree construction does.
type DOMBuilder struct {
	mode         dom.DocumentMode
	document     *dom.Node
	openElements dom.NodeList
}

func NewDOMBuilder() *DOMBuilder {
	return &DOMBuilder{document: dom.NewDocument()}
}

// Build copies the tree rooted at root, which must be a document node.
func (d *DOMBuilder) Build(root *html.Node) (*dom.Node, error) {
	if root.Type != html.DocumentNode {
		return nil, errors.Errorf("expected a document node, got node type %d", root.Type)
	}
	d.PushOpenElements(d.document)
	d.Quirks()
	if err := d.writeChildren(root); err != nil {
		return nil, err
	}
	d.PopOpenElements()
	d.document.Mode = d.mode
	if d.mode == dom.QuirksMode {
		d.document.CompatMode = "BackCompat"
	}
	return d.document, nil
}

func (d *DOMBuilder) writeChildren(parent *html.Node) error {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			d.PushOpenElements(d.WriteHTMLElement(c))
			if err := d.writeChildren(c); err != nil {
				return err
			}
			d.PopOpenElements()
		case html.TextNode:
			d.WriteCharacter(c.Data)
		case html.CommentNode:
			d.WriteComment(c.Data)
		case html.DoctypeNode:
			d.WriteDocumentType(c)
		case html.RawNode:
			d.WriteCharacter(c.Data)
		default:
			return errors.Errorf("unexpected node type %d below %s", c.Type, d.CurrentNode().NodeName)
		}
	}
	return nil
}

// WriteComment inserts a comment into the current node.
func (d *DOMBuilder) WriteComment(data string) {
	d.CurrentNode().AppendChild(dom.NewCommentNode(d.document, data))
}

// WriteHTMLElement inserts an element for n into the current node.
func (d *DOMBuilder) WriteHTMLElement(n *html.Node) *dom.Node {
	el := dom.NewElementNS(d.document, n.Data, namespaceOf(n.Namespace), "")
	for _, a := range n.Attr {
		el.Attributes.SetNamedItem(&dom.Attr{
			Namespace: attrNamespaceOf(a.Namespace),
			Prefix:    a.Namespace,
			LocalName: a.Key,
			Name:      qualify(a.Namespace, a.Key),
			Value:     a.Val,
		})
	}
	return d.CurrentNode().AppendChild(el)
}

// WriteCharacter appends text, merging with a preceding text node.
func (d *DOMBuilder) WriteCharacter(data string) {
	cur := d.CurrentNode()
	if last := cur.LastChild; last != nil && last.NodeType == dom.TextNode {
		last.Text.Data += data
		return
	}
	cur.AppendChild(dom.NewTextNode(d.document, data))
}

// WriteDocumentType sets the document type from the doctype node.
func (d *DOMBuilder) WriteDocumentType(n *html.Node) {
	dt := doctypeOf(n)
	d.document.AppendChild(dom.NewDocTypeNode(d.document, dt.name, dt.public, dt.system))
	switch {
	case dt.forceQuirks():
		d.Quirks()
	case dt.limitedQuirks():
		d.LimitedQuirks()
	default:
		d.mode = dom.NoQuirksMode
	}
}

// Quirks sets the document mode to "quirks". A doctype may reset it.
func (d *DOMBuilder) Quirks() {
	d.mode = dom.QuirksMode
}

// LimitedQuirks sets the document mode to "limited-quirks".
func (d *DOMBuilder) LimitedQuirks() {
	d.mode = dom.LimitedQuirksMode
}

// PushOpenElements pushes an element to the list of currently open elements being parsed.
func (d *DOMBuilder) PushOpenElements(e *dom.Node) {
	d.openElements = append(d.openElements, e)
}

// PopOpenElements pops an element off the list of open elements.
func (d *DOMBuilder) PopOpenElements() {
	d.openElements.Remove(len(d.openElements) - 1)
}

// CurrentNode returns the bottommost node from the stack of open elements.
func (d *DOMBuilder) CurrentNode() *dom.Node {
	return d.openElements[len(d.openElements)-1]
}

// Document returns the document being built.
func (d *DOMBuilder) Document() *dom.Node {
	return d.document
}

func namespaceOf(ns string) dom.Namespace {
	switch ns {
	case "svg":
		return dom.SVGNamespace
	case "math":
		return dom.MathMLNamespace
	}
	return dom.HTMLNamespace
}

func namespaceName(ns dom.Namespace) string {
	switch ns {
	case dom.SVGNamespace:
		return "svg"
	case dom.MathMLNamespace:
		return "math"
	}
	return ""
}

func attrNamespaceOf(ns string) dom.Namespace {
	switch ns {
	case "xlink":
		return dom.XLinkNamespace
	case "xml":
		return dom.XMLNamespace
	case "xmlns":
		return dom.XMLNSNamespace
	}
	return dom.HTMLNamespace
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

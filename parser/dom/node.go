package dom

import (
	"sort"
	"strings"

	"github.com/heathj/statetoggle/parser/webidl"
)

type NodeType uint16

const (
	ElementNode NodeType = iota + 1
	AttrNode
	TextNode
	CDATASectionNode
	ProcessingInstructionNode
	CommentNode
	DocumentNode
	DocumentTypeNode
	DocumentFragmentNode
)

// https://dom.spec.whatwg.org/#dictdef-getrootnodeoptions
type GetRootNodeOptions struct {
	Composed bool
}

// https://dom.spec.whatwg.org/#node
type Node struct {
	NodeType                                                        NodeType
	NodeName                                                        string
	OwnerDocument                                                   *Node
	ParentNode, FirstChild, LastChild, PreviousSibling, NextSibling *Node
	ChildNodes                                                      NodeList

	EventTarget

	// Node types
	*Element
	*Text
	*Comment
	*Document
	*DocumentType
}

// NewDocument returns an empty HTML document node.
func NewDocument() *Node {
	d := &Node{
		NodeType: DocumentNode,
		NodeName: "#document",
		Document: newDocument(),
	}
	d.OwnerDocument = d
	return d
}

// NewElement returns an HTML element owned by od.
func NewElement(od *Node, localName string) *Node {
	return NewElementNS(od, localName, HTMLNamespace, "")
}

// NewElementNS returns an element in the given namespace.
func NewElementNS(od *Node, localName string, ns Namespace, prefix string) *Node {
	n := &Node{
		NodeType:      ElementNode,
		OwnerDocument: od,
		Element: &Element{
			NamespaceURI: ns,
			Prefix:       prefix,
			LocalName:    localName,
		},
	}
	n.NodeName = n.qualifiedName()
	if ns == HTMLNamespace {
		n.NodeName = strings.ToUpper(n.NodeName)
	}
	n.Attributes = newNamedNodeMap(n)
	return n
}

func NewTextNode(od *Node, text string) *Node {
	return &Node{
		NodeType:      TextNode,
		NodeName:      "#text",
		OwnerDocument: od,
		Text:          &Text{Data: text},
	}
}

// NewCommentNode returns a comment node with its Data section filled.
func NewCommentNode(od *Node, data string) *Node {
	return &Node{
		NodeType:      CommentNode,
		NodeName:      "#comment",
		OwnerDocument: od,
		Comment:       &Comment{Data: data},
	}
}

func NewDocTypeNode(od *Node, name, pub, sys string) *Node {
	return &Node{
		NodeType:      DocumentTypeNode,
		NodeName:      name,
		OwnerDocument: od,
		DocumentType: &DocumentType{
			Name:     name,
			PublicID: pub,
			SystemID: sys,
		},
	}
}

// https://dom.spec.whatwg.org/#dom-node-getrootnode
func (n *Node) GetRootNode(o GetRootNodeOptions) *Node {
	root := n
	for root.ParentNode != nil {
		root = root.ParentNode
	}
	return root
}

// https://dom.spec.whatwg.org/#dom-node-isconnected
func (n *Node) IsConnected() bool {
	return n.GetRootNode(GetRootNodeOptions{}).NodeType == DocumentNode
}

// https://dom.spec.whatwg.org/#dom-node-contains
func (n *Node) Contains(on *Node) bool {
	for i := on; i != nil; i = i.ParentNode {
		if i == n {
			return true
		}
	}
	return false
}

// https://dom.spec.whatwg.org/#concept-node-append
func (n *Node) AppendChild(on *Node) *Node {
	n.detach(on)
	if n.LastChild != nil {
		on.PreviousSibling = n.LastChild
		n.LastChild.NextSibling = on
	} else {
		n.FirstChild = on
	}
	on.ParentNode = n
	n.LastChild = on
	n.ChildNodes = append(n.ChildNodes, on)
	adopt(on, n.OwnerDocument)
	return on
}

// https://dom.spec.whatwg.org/#dom-node-removechild
func (n *Node) RemoveChild(child *Node) *Node {
	i := n.ChildNodes.Contains(child)
	if i == -1 {
		return nil
	}
	n.ChildNodes.Remove(i)
	if child.PreviousSibling != nil {
		child.PreviousSibling.NextSibling = child.NextSibling
	} else {
		n.FirstChild = child.NextSibling
	}
	if child.NextSibling != nil {
		child.NextSibling.PreviousSibling = child.PreviousSibling
	} else {
		n.LastChild = child.PreviousSibling
	}
	child.ParentNode, child.PreviousSibling, child.NextSibling = nil, nil, nil

	if od := n.OwnerDocument; od != nil && od.Document != nil && od.activeElement != nil && child.Contains(od.activeElement) {
		od.activeElement = nil
	}
	return child
}

func (n *Node) detach(on *Node) {
	if on.ParentNode != nil {
		on.ParentNode.RemoveChild(on)
	}
}

func adopt(n, od *Node) {
	if od == nil || n.NodeType == DocumentNode {
		return
	}
	n.Walk(func(d *Node) bool {
		d.OwnerDocument = od
		return true
	})
}

// Walk visits n and its descendants in tree order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// ParentElement is https://dom.spec.whatwg.org/#dom-node-parentelement
func (n *Node) ParentElement() *Node {
	if n.ParentNode != nil && n.ParentNode.NodeType == ElementNode {
		return n.ParentNode
	}
	return nil
}

// https://dom.spec.whatwg.org/#dom-node-textcontent
func (n *Node) TextContent() string {
	switch n.NodeType {
	case TextNode:
		return n.Text.Data
	case CommentNode:
		return n.Comment.Data
	case DocumentNode, DocumentTypeNode:
		return ""
	}
	var b strings.Builder
	n.Walk(func(d *Node) bool {
		if d.NodeType == TextNode {
			b.WriteString(d.Text.Data)
		}
		return true
	})
	return b.String()
}

// Describe returns a short, devtools style label such as `button#save.btn.btn--primary`.
func (n *Node) Describe() string {
	if n == nil {
		return "<nil>"
	}
	if n.NodeType != ElementNode {
		return n.NodeName
	}
	var b strings.Builder
	b.WriteString(n.LocalName)
	if id := n.ID(); id != "" {
		b.WriteString("#" + id)
	}
	for _, c := range webidl.OrderedSet(n.GetAttribute("class")) {
		b.WriteString("." + c)
	}
	return b.String()
}

func serializeNodeType(node *Node, ident int) string {
	switch node.NodeType {
	case ElementNode:
		e := "<"
		switch node.Element.NamespaceURI {
		case SVGNamespace:
			e += "svg "
		case MathMLNamespace:
			e += "math "
		}
		e += node.LocalName
		if node.Attributes.Length() == 0 {
			return e + ">"
		}
		e += ">"
		keys := node.GetAttributeNames()
		sort.Strings(keys)
		spaces := "| "
		for i := 1; i < ident; i++ {
			spaces += "  "
		}
		for _, name := range keys {
			e += "\n" + spaces + name + "=\"" + node.GetAttribute(name) + "\""
		}
		return e
	case TextNode:
		return "\"" + node.Text.Data + "\""
	case CommentNode:
		return "<!-- " + node.Comment.Data + " -->"
	case DocumentTypeNode:
		return "<!DOCTYPE " + node.DocumentType.Name + ">"
	case DocumentNode:
		return "#document"
	}
	return node.NodeName
}

func (n *Node) serialize(ident int) string {
	ser := serializeNodeType(n, ident+1) + "\n"
	if n.NodeType != DocumentNode {
		spaces := "| "
		for i := 1; i < ident; i++ {
			spaces += "  "
		}
		ser = spaces + ser
	}
	for _, child := range n.ChildNodes {
		ser += child.serialize(ident + 1)
	}
	return ser
}

// String renders the subtree in the html5lib tree-construction test format.
func (n *Node) String() string {
	return strings.TrimRight(n.serialize(0), "\n")
}

package dom

import (
	"strings"

	"github.com/heathj/statetoggle/parser/webidl"
)

type Namespace uint

const (
	HTMLNamespace Namespace = iota
	MathMLNamespace
	SVGNamespace
	XLinkNamespace
	XMLNamespace
	XMLNSNamespace
)

// Element is an individual element in the tree.
// https://dom.spec.whatwg.org/#interface-element
type Element struct {
	NamespaceURI      Namespace
	Prefix, LocalName string
	Attributes        *NamedNodeMap
}

func (n *Node) qualifiedName() string {
	if n.Prefix == "" {
		return n.LocalName
	}
	return n.Prefix + ":" + n.LocalName
}

// isHTML reports whether attribute names should be lowercased before lookup.
// https://dom.spec.whatwg.org/#concept-element-attributes-get-by-name
func (n *Node) isHTML() bool {
	return n.Element != nil && n.NamespaceURI == HTMLNamespace
}

func (n *Node) normalizeName(qualifiedName string) string {
	if n.isHTML() {
		return webidl.ASCIILowercase(qualifiedName)
	}
	return qualifiedName
}

// TagName is https://dom.spec.whatwg.org/#dom-element-tagname
func (n *Node) TagName() string {
	if n.Element == nil {
		return ""
	}
	return n.NodeName
}

// ID is the element's id attribute.
func (n *Node) ID() string {
	return n.GetAttribute("id")
}

// ClassName is the element's class attribute.
func (n *Node) ClassName() string {
	return n.GetAttribute("class")
}

func (n *Node) GetAttributeNames() []string {
	if n.Element == nil {
		return nil
	}
	names := make([]string, 0, n.Attributes.Length())
	for _, a := range n.Attributes.attrs {
		names = append(names, a.Name)
	}
	return names
}

// LookupAttribute returns the attribute value and whether the attribute is present.
func (n *Node) LookupAttribute(qualifiedName string) (string, bool) {
	if n.Element == nil {
		return "", false
	}
	a := n.Attributes.GetNamedItem(qualifiedName)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// https://dom.spec.whatwg.org/#dom-element-getattribute
func (n *Node) GetAttribute(qualifiedName string) string {
	v, _ := n.LookupAttribute(qualifiedName)
	return v
}

// https://dom.spec.whatwg.org/#dom-element-hasattribute
func (n *Node) HasAttribute(qualifiedName string) bool {
	_, ok := n.LookupAttribute(qualifiedName)
	return ok
}

// https://dom.spec.whatwg.org/#dom-element-setattribute
func (n *Node) SetAttribute(qualifiedName, value string) error {
	if n.Element == nil {
		return NewDOMException(NotFoundError, "%s is not an element", n.NodeName)
	}
	if qualifiedName == "" || strings.ContainsAny(qualifiedName, "\t\n\f\r />=\"'") {
		return NewDOMException(InvalidCharacterError, "%q is not a valid attribute name", qualifiedName)
	}
	qualifiedName = n.normalizeName(qualifiedName)
	if a := n.Attributes.GetNamedItem(qualifiedName); a != nil {
		n.changeAttribute(a, value)
		return nil
	}
	n.Attributes.append(&Attr{
		LocalName: qualifiedName,
		Name:      qualifiedName,
		Value:     value,
	})
	n.queueAttributeMutation(qualifiedName, "", false)
	return nil
}

// https://dom.spec.whatwg.org/#dom-element-removeattribute
func (n *Node) RemoveAttribute(qualifiedName string) {
	if n.Element == nil {
		return
	}
	a := n.Attributes.RemoveNamedItem(qualifiedName)
	if a != nil {
		n.queueAttributeMutation(a.Name, a.Value, true)
	}
}

// https://dom.spec.whatwg.org/#dom-element-toggleattribute
func (n *Node) ToggleAttribute(qualifiedName string, force ...bool) (bool, error) {
	present := n.HasAttribute(qualifiedName)
	want := !present
	if len(force) > 0 {
		want = force[0]
	}
	switch {
	case want && !present:
		return true, n.SetAttribute(qualifiedName, "")
	case !want && present:
		n.RemoveAttribute(qualifiedName)
		return false, nil
	}
	return present, nil
}

// https://dom.spec.whatwg.org/#concept-element-attributes-change
func (n *Node) changeAttribute(a *Attr, value string) {
	old := a.Value
	a.Value = value
	n.queueAttributeMutation(a.Name, old, true)
}

func (n *Node) queueAttributeMutation(name, old string, hadOld bool) {
	od := n.OwnerDocument
	if od == nil || od.Document == nil {
		return
	}
	od.notify(MutationRecord{
		Type:          "attributes",
		Target:        n,
		AttributeName: name,
		OldValue:      old,
		HadOldValue:   hadOld,
	})
}

// ClassList is https://dom.spec.whatwg.org/#dom-element-classlist
func (n *Node) ClassList() *DOMTokenList {
	return &DOMTokenList{element: n, localName: "class"}
}

// Dataset is https://html.spec.whatwg.org/#dom-dataset
func (n *Node) Dataset() *DOMStringMap {
	return &DOMStringMap{element: n}
}

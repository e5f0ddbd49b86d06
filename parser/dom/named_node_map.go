package dom

// Attr is https://dom.spec.whatwg.org/#attr
type Attr struct {
	Namespace Namespace
	Prefix    string
	LocalName string
	Name      string
	Value     string
}

// NamedNodeMap keeps attributes in insertion order.
// https://dom.spec.whatwg.org/#namednodemap
type NamedNodeMap struct {
	attrs             []*Attr
	AssociatedElement *Node
}

func newNamedNodeMap(oe *Node) *NamedNodeMap {
	return &NamedNodeMap{AssociatedElement: oe}
}

func (n *NamedNodeMap) Length() int {
	return len(n.attrs)
}

// Item returns the attribute at index i, or nil.
func (n *NamedNodeMap) Item(i int) *Attr {
	if i < 0 || i >= len(n.attrs) {
		return nil
	}
	return n.attrs[i]
}

func (n *NamedNodeMap) GetNamedItem(qn string) *Attr {
	_, a := n.getAttributeByName(qn)
	return a
}

// https://dom.spec.whatwg.org/#concept-element-attributes-get-by-name
func (n *NamedNodeMap) getAttributeByName(qn string) (int, *Attr) {
	qn = n.AssociatedElement.normalizeName(qn)
	for i, a := range n.attrs {
		if a.Name == qn {
			return i, a
		}
	}
	return -1, nil
}

func (n *NamedNodeMap) getAttributeByNSLocalName(ns Namespace, ln string) *Attr {
	for _, a := range n.attrs {
		if a.Namespace == ns && a.LocalName == ln {
			return a
		}
	}
	return nil
}

// SetNamedItem appends s, or returns the attribute already holding that name.
// Used by the tree builder, which must not emit mutation records.
func (n *NamedNodeMap) SetNamedItem(s *Attr) *Attr {
	if s == nil {
		return nil
	}
	if old := n.getAttributeByNSLocalName(s.Namespace, s.LocalName); old != nil {
		return old
	}
	n.append(s)
	return s
}

func (n *NamedNodeMap) RemoveNamedItem(qn string) *Attr {
	i, a := n.getAttributeByName(qn)
	if a == nil {
		return nil
	}
	n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
	return a
}

func (n *NamedNodeMap) append(a *Attr) {
	n.attrs = append(n.attrs, a)
}

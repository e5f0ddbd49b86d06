package parser

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/heathj/statetoggle/parser/dom"
)

// Render writes n and its subtree as HTML.
func Render(w io.Writer, n *dom.Node) error {
	h, err := toHTML(n)
	if err != nil {
		return err
	}
	return errors.Wrap(html.Render(w, h), "rendering html")
}

// RenderString is Render into a string.
func RenderString(n *dom.Node) (string, error) {
	var b bytes.Buffer
	if err := Render(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

func toHTML(n *dom.Node) (*html.Node, error) {
	var h *html.Node
	switch n.NodeType {
	case dom.DocumentNode:
		h = &html.Node{Type: html.DocumentNode}
	case dom.ElementNode:
		h = &html.Node{Type: html.ElementNode, Data: n.LocalName, Namespace: namespaceName(n.NamespaceURI)}
		for i := 0; i < n.Attributes.Length(); i++ {
			a := n.Attributes.Item(i)
			h.Attr = append(h.Attr, html.Attribute{Namespace: a.Prefix, Key: a.LocalName, Val: a.Value})
		}
	case dom.TextNode:
		return &html.Node{Type: html.TextNode, Data: n.Text.Data}, nil
	case dom.CommentNode:
		return &html.Node{Type: html.CommentNode, Data: n.Comment.Data}, nil
	case dom.DocumentTypeNode:
		h = &html.Node{Type: html.DoctypeNode, Data: n.DocumentType.Name}
		if n.PublicID != "" {
			h.Attr = append(h.Attr, html.Attribute{Key: "public", Val: n.PublicID})
		}
		if n.SystemID != "" {
			h.Attr = append(h.Attr, html.Attribute{Key: "system", Val: n.SystemID})
		}
		return h, nil
	default:
		return nil, errors.Errorf("cannot render node type %d", n.NodeType)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		hc, err := toHTML(c)
		if err != nil {
			return nil, err
		}
		h.AppendChild(hc)
	}
	return h, nil
}

package selector

import "github.com/heathj/statetoggle/parser/dom"

// QueryAll is https://dom.spec.whatwg.org/#dom-parentnode-queryselectorall
func QueryAll(root *dom.Node, s string) ([]*dom.Node, error) {
	g, err := Compile(s)
	if err != nil {
		return nil, err
	}
	return g.QueryAll(root), nil
}

// Query is https://dom.spec.whatwg.org/#dom-parentnode-queryselector
func Query(root *dom.Node, s string) (*dom.Node, error) {
	g, err := Compile(s)
	if err != nil {
		return nil, err
	}
	return g.Query(root), nil
}

// Matches is https://dom.spec.whatwg.org/#dom-element-matches
func Matches(el *dom.Node, s string) (bool, error) {
	g, err := Compile(s)
	if err != nil {
		return false, err
	}
	return g.Match(el), nil
}

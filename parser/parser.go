package parser

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/heathj/statetoggle/parser/dom"
)

// Parser turns HTML into a dom tree. Tokenizing and tree construction are done by
// golang.org/x/net/html; the DOMBuilder copies the result into dom nodes.
type Parser struct {
	in      io.Reader
	builder *DOMBuilder
}

func NewParser(htmlIn io.Reader) *Parser {
	return &Parser{
		in:      htmlIn,
		builder: NewDOMBuilder(),
	}
}

// Start parses the whole input and returns the document node.
func (p *Parser) Start() (*dom.Node, error) {
	root, err := html.Parse(p.in)
	if err != nil {
		return nil, errors.Wrap(err, "parsing html")
	}
	return p.builder.Build(root)
}

// Parse reads a full HTML document from r.
func Parse(r io.Reader) (*dom.Node, error) {
	return NewParser(r).Start()
}

// ParseString is Parse for in-memory markup.
func ParseString(s string) (*dom.Node, error) {
	return Parse(strings.NewReader(s))
}

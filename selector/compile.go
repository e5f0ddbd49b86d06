package selector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/heathj/statetoggle/parser/dom"
	"github.com/heathj/statetoggle/parser/webidl"
)

const maxCached = 512

var (
	cacheMu sync.Mutex
	cache   = map[string]*Group{}
)

type token struct {
	tt   css.TokenType
	text string
}

// compiler is a recursive descent parser over the css lexer's tokens.
type compiler struct {
	src  string
	toks []token
	pos  int
}

// Compile parses a selector list such as `.panel, #menu > li:not(.hidden)`.
// Invalid input yields a *dom.DOMException named SyntaxError, as querySelector throws.
func Compile(s string) (*Group, error) {
	cacheMu.Lock()
	g, ok := cache[s]
	cacheMu.Unlock()
	if ok {
		return g, nil
	}

	c := &compiler{src: s, toks: lex(s)}
	g, err := c.group(false)
	if err != nil {
		return nil, err
	}
	g.text = s

	cacheMu.Lock()
	if len(cache) >= maxCached {
		cache = map[string]*Group{}
	}
	cache[s] = g
	cacheMu.Unlock()
	return g, nil
}

func lex(s string) []token {
	lexer := css.NewLexer(parse.NewInputString(s))
	var toks []token
	for {
		tt, text := lexer.Next()
		if tt == css.ErrorToken {
			break
		}
		if tt == css.CommentToken {
			continue
		}
		toks = append(toks, token{tt, string(text)})
	}
	return toks
}

func (c *compiler) errorf(format string, args ...interface{}) error {
	return dom.NewDOMException(dom.SyntaxError, "%s is not a valid selector: %s",
		strconv.Quote(c.src), fmt.Sprintf(format, args...))
}

func (c *compiler) peek() token {
	if c.pos >= len(c.toks) {
		return token{tt: css.ErrorToken}
	}
	return c.toks[c.pos]
}

func (c *compiler) next() token {
	t := c.peek()
	if c.pos < len(c.toks) {
		c.pos++
	}
	return t
}

func (c *compiler) skipWS() bool {
	skipped := false
	for c.peek().tt == css.WhitespaceToken {
		c.pos++
		skipped = true
	}
	return skipped
}

func isDelim(t token, d string) bool {
	return t.tt == css.DelimToken && t.text == d
}

func isIdent(t token) bool {
	return t.tt == css.IdentToken || t.tt == css.CustomPropertyNameToken
}

func (c *compiler) group(nested bool) (*Group, error) {
	g := &Group{}
	for {
		c.skipWS()
		sel, err := c.complex()
		if err != nil {
			return nil, err
		}
		g.selectors = append(g.selectors, sel)
		c.skipWS()

		t := c.next()
		switch {
		case t.tt == css.CommaToken:
			continue
		case nested && t.tt == css.RightParenthesisToken:
			return g, nil
		case !nested && t.tt == css.ErrorToken:
			return g, nil
		case t.tt == css.ErrorToken:
			return nil, c.errorf("missing )")
		}
		return nil, c.errorf("unexpected %q", t.text)
	}
}

func (c *compiler) complex() (*complexSelector, error) {
	first, err := c.compound()
	if err != nil {
		return nil, err
	}
	sel := &complexSelector{compounds: []*compound{first}}
	for {
		save := c.pos
		ws := c.skipWS()
		t := c.peek()
		var comb combinator
		switch {
		case isDelim(t, ">"):
			comb = child
		case isDelim(t, "+"):
			comb = adjacent
		case isDelim(t, "~"):
			comb = sibling
		case ws && startsCompound(t):
			comb = descendant
		default:
			c.pos = save
			return sel, nil
		}
		if comb != descendant {
			c.next()
			c.skipWS()
		}
		next, err := c.compound()
		if err != nil {
			return nil, err
		}
		sel.combinators = append(sel.combinators, comb)
		sel.compounds = append(sel.compounds, next)
	}
}

func startsCompound(t token) bool {
	switch t.tt {
	case css.HashToken, css.LeftBracketToken, css.ColonToken:
		return true
	}
	return isIdent(t) || isDelim(t, ".") || isDelim(t, "*")
}

func (c *compiler) compound() (*compound, error) {
	cp := &compound{}
	consumed := false

	if t := c.peek(); isIdent(t) {
		c.next()
		cp.tag = webidl.ASCIILowercase(unescape(t.text))
		consumed = true
	} else if isDelim(t, "*") {
		c.next()
		consumed = true
	}

	for {
		t := c.peek()
		switch {
		case t.tt == css.HashToken:
			c.next()
			raw := t.text[1:]
			if raw == "" || isDigit(raw[0]) || (len(raw) > 1 && raw[0] == '-' && isDigit(raw[1])) {
				return nil, c.errorf("invalid id %q", t.text)
			}
			cp.ids = append(cp.ids, unescape(raw))
		case isDelim(t, "."):
			c.next()
			name := c.next()
			if !isIdent(name) {
				return nil, c.errorf("expected a class name after '.'")
			}
			cp.classes = append(cp.classes, unescape(name.text))
		case t.tt == css.LeftBracketToken:
			c.next()
			a, err := c.attribute()
			if err != nil {
				return nil, err
			}
			cp.attrs = append(cp.attrs, a)
		case t.tt == css.ColonToken:
			c.next()
			p, err := c.pseudo()
			if err != nil {
				return nil, err
			}
			cp.pseudos = append(cp.pseudos, p)
		default:
			if !consumed {
				if t.tt == css.ErrorToken {
					return nil, c.errorf("expected a selector")
				}
				return nil, c.errorf("unexpected %q", t.text)
			}
			return cp, nil
		}
		consumed = true
	}
}

func (c *compiler) attribute() (attrSelector, error) {
	var a attrSelector
	c.skipWS()
	name := c.next()
	if !isIdent(name) {
		return a, c.errorf("expected an attribute name")
	}
	a.name = webidl.ASCIILowercase(unescape(name.text))
	c.skipWS()

	op := c.next()
	switch {
	case op.tt == css.RightBracketToken:
		return a, nil
	case isDelim(op, "="):
		a.op = "="
	case op.tt == css.IncludeMatchToken, op.tt == css.DashMatchToken, op.tt == css.PrefixMatchToken,
		op.tt == css.SuffixMatchToken, op.tt == css.SubstringMatchToken:
		a.op = op.text
	default:
		return a, c.errorf("unexpected %q in attribute selector", op.text)
	}

	c.skipWS()
	v := c.next()
	switch {
	case isIdent(v):
		a.value = unescape(v.text)
	case v.tt == css.StringToken:
		a.value = unquote(v.text)
	default:
		return a, c.errorf("expected an attribute value")
	}
	c.skipWS()

	if t := c.peek(); isIdent(t) {
		switch strings.ToLower(t.text) {
		case "i":
			a.insensitive = true
		case "s":
		default:
			return a, c.errorf("unknown attribute flag %q", t.text)
		}
		c.next()
		c.skipWS()
	}
	if c.next().tt != css.RightBracketToken {
		return a, c.errorf("missing ]")
	}
	return a, nil
}

var knownPseudos = map[string]bool{
	"first-child": true,
	"last-child":  true,
	"only-child":  true,
	"empty":       true,
	"root":        true,
	"checked":     true,
	"disabled":    true,
	"enabled":     true,
	"focus":       true,
	"link":        true,
	"any-link":    true,

	// Nothing is ever hovered, active or visited.
	"hover":   true,
	"active":  true,
	"visited": true,
}

// Pseudo-classes that are shorthand for an+b forms.
var typedPseudos = map[string]pseudo{
	"first-of-type": {name: "nth-of-type", b: 1},
	"last-of-type":  {name: "nth-last-of-type", b: 1},
	"only-of-type":  {name: "only-of-type"},
}

var nthPseudos = map[string]bool{
	"nth-child(":        true,
	"nth-last-child(":   true,
	"nth-of-type(":      true,
	"nth-last-of-type(": true,
}

func (c *compiler) pseudo() (pseudo, error) {
	t := c.next()
	switch {
	case t.tt == css.IdentToken:
		name := webidl.ASCIILowercase(t.text)
		if p, ok := typedPseudos[name]; ok {
			return p, nil
		}
		if !knownPseudos[name] {
			return pseudo{}, c.errorf("unsupported pseudo-class :%s", name)
		}
		return pseudo{name: name}, nil
	case t.tt == css.FunctionToken && webidl.ASCIILowercase(t.text) == "not(":
		inner, err := c.group(true)
		if err != nil {
			return pseudo{}, err
		}
		return pseudo{name: "not", not: inner}, nil
	case t.tt == css.FunctionToken && nthPseudos[webidl.ASCIILowercase(t.text)]:
		name := strings.TrimSuffix(webidl.ASCIILowercase(t.text), "(")
		a, b, err := c.anPlusB()
		if err != nil {
			return pseudo{}, err
		}
		return pseudo{name: name, a: a, b: b}, nil
	case t.tt == css.ColonToken:
		return pseudo{}, c.errorf("pseudo-elements are not supported")
	}
	return pseudo{}, c.errorf("unexpected %q after ':'", t.text)
}

var anPlusBPattern = regexp.MustCompile(`^(?:([+-]?\d*)n\s*(?:([+-])\s*(\d+))?|([+-]?\d+))$`)

// anPlusB reads the argument of an :nth-* pseudo-class up to the closing parenthesis.
// https://drafts.csswg.org/css-syntax-3/#anb-microsyntax
func (c *compiler) anPlusB() (int, int, error) {
	var b strings.Builder
	for {
		t := c.next()
		if t.tt == css.RightParenthesisToken {
			break
		}
		if t.tt == css.ErrorToken {
			return 0, 0, c.errorf("missing )")
		}
		b.WriteString(t.text)
	}

	arg := strings.TrimSpace(webidl.ASCIILowercase(b.String()))
	switch arg {
	case "odd":
		return 2, 1, nil
	case "even":
		return 2, 0, nil
	}
	m := anPlusBPattern.FindStringSubmatch(arg)
	if m == nil {
		return 0, 0, c.errorf("invalid an+b expression %q", arg)
	}
	if m[4] != "" {
		n, err := strconv.Atoi(m[4])
		if err != nil {
			return 0, 0, c.errorf("invalid an+b expression %q", arg)
		}
		return 0, n, nil
	}

	var a, off int
	switch m[1] {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, 0, c.errorf("invalid an+b expression %q", arg)
		}
		a = n
	}
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return 0, 0, c.errorf("invalid an+b expression %q", arg)
		}
		off = n
		if m[2] == "-" {
			off = -n
		}
	}
	return a, off, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return unescape(s)
}

// unescape resolves CSS escapes: `\31 23` and `\:` style.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		j := i
		for j < len(s) && j-i < 6 && isHex(s[j]) {
			j++
		}
		if j == i {
			b.WriteByte(s[i])
			continue
		}
		r, _ := strconv.ParseUint(s[i:j], 16, 32)
		if r == 0 || r > 0x10FFFF {
			r = 0xFFFD
		}
		b.WriteRune(rune(r))
		if j < len(s) && webidl.IsASCIIWhitespace(rune(s[j])) {
			j++
		}
		i = j - 1
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

package selector

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/statetoggle/parser"
	"github.com/heathj/statetoggle/parser/dom"
)

const fixture = `<!DOCTYPE html>
<html>
<head><title id="t">x</title></head>
<body>
  <div id="panel" class="panel panel--closed" data-role="drawer">
    <ul id="menu" class="menu">
      <li id="one" class="item first" lang="en-US">One</li>
      <li id="two" class="item">Two</li>
      <li id="three" class="item hidden" data-state="open closed">Three</li>
    </ul>
    <p id="empty"></p>
    <span id="solo"><b id="bold">only</b></span>
  </div>
  <form id="f">
    <input id="search-input" type="search" name="q" value="Term">
    <input id="cb" type="checkbox" checked>
    <button id="go" data-target=".panel" data-add-state="panel--open">Go</button>
  </form>
  <a id="link" href="/docs/page.html">Docs</a>
</body>
</html>`

func parseFixture(t *testing.T) *dom.Node {
	t.Helper()
	doc, err := parser.ParseString(fixture)
	require.NoError(t, err)
	return doc
}

func label(tag, id string) string {
	if id == "" {
		return tag
	}
	return tag + "#" + id
}

func labels(nodes []*dom.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, label(n.LocalName, n.ID()))
	}
	return out
}

var sharedSelectors = []string{
	"li",
	"*",
	".item",
	".item.hidden",
	"#menu > li",
	"#panel li",
	"div > ul > li:first-child",
	"li:last-child",
	"li + li",
	"#one ~ li",
	"b:only-child",
	"p:empty",
	":root",
	"li:not(.hidden)",
	"li:not(#one, #two)",
	"[data-role]",
	"[data-role=drawer]",
	`[data-state~="open"]`,
	"[lang|=en]",
	`a[href^="/docs"]`,
	`a[href$=".html"]`,
	`a[href*="page"]`,
	"#two, #one",
	"form input, .menu",
	"input:checked",
	"li:nth-child(2)",
	"li:nth-child(odd)",
	"li:nth-child(even)",
	"li:nth-child(2n+1)",
	"li:nth-child(-n+2)",
	"li:nth-child(n+2)",
	"li:nth-last-child(1)",
	"#panel > :nth-of-type(1)",
	"input:nth-last-of-type(2)",
	"p:first-of-type",
	"input:last-of-type",
	"b:only-of-type",
	"#nothing",
}

// TestAgreesWithCascadia runs the same selectors through goquery, which uses cascadia, and
// expects identical results in the same order.
func TestAgreesWithCascadia(t *testing.T) {
	doc := parseFixture(t)
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	require.NoError(t, err)

	for _, sel := range sharedSelectors {
		sel := sel
		t.Run(sel, func(t *testing.T) {
			var want []string
			gq.Find(sel).Each(func(_ int, s *goquery.Selection) {
				id, _ := s.Attr("id")
				want = append(want, label(goquery.NodeName(s), id))
			})
			got, err := QueryAll(doc, sel)
			require.NoError(t, err)
			assert.Equal(t, want, labels(got))
		})
	}
}

func TestGroupDeduplicatesAndKeepsTreeOrder(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t)
	got, err := QueryAll(doc, "#three, .item, #one")
	require.NoError(t, err)
	assert.Equal(t, []string{"li#one", "li#two", "li#three"}, labels(got))
}

func TestMissingPartOfGroupMatchesNothingExtra(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t)
	got, err := QueryAll(doc, "#panel,#does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, []string{"div#panel"}, labels(got))
}

func TestQueryReturnsFirst(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t)
	n, err := Query(doc, "li")
	require.NoError(t, err)
	assert.Equal(t, "one", n.ID())

	n, err = Query(doc, ".nope")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestFocusPseudoClass(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t)
	input := doc.GetElementByID("search-input")
	input.Focus(dom.FocusOptions{PreventScroll: true})

	ok, err := Matches(input, "input:focus")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCaseInsensitiveAttribute(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t)
	got, err := QueryAll(doc, "[TYPE=SEARCH i]")
	require.NoError(t, err)
	assert.Equal(t, []string{"input#search-input"}, labels(got))

	got, err = QueryAll(doc, "[type=SEARCH]")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEscapes(t *testing.T) {
	t.Parallel()
	doc, err := parser.ParseString(`<div id="a:b" class="w-1/2"></div><div id="1x"></div>`)
	require.NoError(t, err)

	got, err := QueryAll(doc, `#a\:b`)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = QueryAll(doc, `.w-1\/2`)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = QueryAll(doc, `#\31 x`)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

var invalidSelectors = []string{
	"",
	" ",
	"#",
	".",
	"div >",
	"> div",
	"a,,b",
	"[data",
	"[=x]",
	"[a=]",
	":unknown",
	"::before",
	"li:nth-child(2 n)",
	"li:nth-child(+ 5)",
	"li:nth-child(2n of .item)",
	"li:nth-child(3",
	":not(.a",
	"#1x",
	".5",
	"a b)",
}

func TestAnPlusB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg  string
		a, b int
	}{
		{"odd", 2, 1},
		{"EVEN", 2, 0},
		{"5", 0, 5},
		{"-3", 0, -3},
		{"n", 1, 0},
		{"-n+3", -1, 3},
		{"+n", 1, 0},
		{"2n-1", 2, -1},
		{"2n - 1", 2, -1},
		{"2n+ 1", 2, 1},
		{"-2n+10", -2, 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.arg, func(t *testing.T) {
			t.Parallel()
			g, err := Compile("li:nth-child(" + tt.arg + ")")
			require.NoError(t, err)
			p := g.selectors[0].compounds[0].pseudos[0]
			assert.Equal(t, "nth-child", p.name)
			assert.Equal(t, []int{tt.a, tt.b}, []int{p.a, p.b})
		})
	}
}

func TestUserActionPseudoClassesMatchNothing(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t)
	for _, sel := range []string{"a:hover", ":active", "a:visited"} {
		got, err := QueryAll(doc, sel)
		require.NoError(t, err, sel)
		assert.Empty(t, got, sel)
	}

	got, err := QueryAll(doc, "a:any-link, :link")
	require.NoError(t, err)
	assert.Equal(t, []string{"a#link"}, labels(got))
}

func TestInvalidSelectors(t *testing.T) {
	for _, sel := range invalidSelectors {
		sel := sel
		t.Run(sel, func(t *testing.T) {
			t.Parallel()
			_, err := Compile(sel)
			require.Error(t, err)
			assert.True(t, dom.IsDOMException(err, dom.SyntaxError), err.Error())
		})
	}
}

func TestCompileIsCached(t *testing.T) {
	t.Parallel()
	a, err := Compile(".panel > .item")
	require.NoError(t, err)
	b, err := Compile(".panel > .item")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, ".panel > .item", a.String())
}

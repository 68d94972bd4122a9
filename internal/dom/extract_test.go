package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseOne(t *testing.T, fragment string) *html.Node {
	t.Helper()
	nodes, err := parseFragment(fragment)
	require.NoError(t, err)
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n
		}
	}
	t.Fatalf("no element in fragment %q", fragment)
	return nil
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, html.Render(&sb, n))
	return sb.String()
}

// treeDepth measures nesting of element/text nodes relative to the root.
func treeDepth(n *html.Node) int {
	if n == nil {
		return 0
	}
	max := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if d := treeDepth(c); d > max {
			max = d
		}
	}
	return max + 1
}

func TestExtractToDepthZeroIsEmpty(t *testing.T) {
	n := parseOne(t, `<div><p>hi</p></div>`)
	assert.Nil(t, ExtractToDepth(n, 0))
	assert.Nil(t, ExtractToDepth(n, -3))
}

func TestExtractToDepthShallow(t *testing.T) {
	n := parseOne(t, `<div id="a" class="x"><p>hi<span>deep</span></p></div>`)

	one := ExtractToDepth(n, 1)
	require.NotNil(t, one)
	assert.Equal(t, `<div id="a" class="x"></div>`, render(t, one))

	two := ExtractToDepth(n, 2)
	assert.Equal(t, `<div id="a" class="x"><p></p></div>`, render(t, two))
}

func TestExtractToDepthNeverExceedsDepth(t *testing.T) {
	n := parseOne(t, `<div><ul><li><a href="/x"><b>deep</b></a></li><li>two</li></ul></div>`)
	full := treeDepth(n)
	require.Greater(t, full, 3)

	for depth := 1; depth <= full+1; depth++ {
		out := ExtractToDepth(n, depth)
		require.NotNil(t, out)
		assert.LessOrEqual(t, treeDepth(out), depth, "depth %d", depth)
	}
}

func TestCloneRoundTrips(t *testing.T) {
	n := parseOne(t, `<div><ul><li><a href="/x">deep</a></li><li>two</li></ul><p>tail</p></div>`)
	clone := Clone(n)
	assert.Equal(t, render(t, n), render(t, clone))
}

func TestExtractHTMLToDepth(t *testing.T) {
	fragment := `<div id="a"><p>hi<span>x</span></p></div>`

	out, err := ExtractHTMLToDepth(fragment, 1)
	require.NoError(t, err)
	assert.Equal(t, `<div id="a"></div>`, out)

	out, err = ExtractHTMLToDepth(fragment, -1)
	require.NoError(t, err)
	assert.Equal(t, fragment, out)

	out, err = ExtractHTMLToDepth(fragment, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNestChain(t *testing.T) {
	out, err := NestChain([]string{
		`<html></html>`,
		`<body></body>`,
		`<div class="wrap"></div>`,
		`<button id="go"></button>`,
	})
	require.NoError(t, err)
	assert.Equal(t, `<html><body><div class="wrap"><button id="go"></button></div></body></html>`, out)
}

func TestNestChainEmpty(t *testing.T) {
	out, err := NestChain(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestVisibleText(t *testing.T) {
	out, err := VisibleText(`<div><h1> Title </h1><script>var x;</script><p>one</p><p>two</p></div>`)
	require.NoError(t, err)
	assert.Equal(t, "Title\none\ntwo", out)
}

func TestVisibleTextCollapsesBlankRuns(t *testing.T) {
	out, err := VisibleText("<div><p>line1\n\n\n\nline2</p></div>")
	require.NoError(t, err)
	assert.Equal(t, "line1\n\nline2", out)
}

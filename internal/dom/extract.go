// Package dom compresses parsed HTML documents into bounded, model-readable
// digests: depth-limited clones, positional XPaths, and paginated element
// summaries. Everything here operates on golang.org/x/net/html nodes; live
// visibility is delegated to a VisibilityProbe so the package stays testable
// without a browser.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CloneShallow duplicates a node without its children, preserving tag name
// and attributes.
func CloneShallow(n *html.Node) *html.Node {
	attrs := make([]html.Attribute, len(n.Attr))
	copy(attrs, n.Attr)
	return &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     attrs,
	}
}

// Clone duplicates a node and all of its descendants.
func Clone(n *html.Node) *html.Node {
	c := CloneShallow(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// ExtractToDepth clones n down to depth levels. Depth 1 keeps only the node
// itself, depth 2 keeps its children, and so on. A depth of zero or less
// yields nil. Text nodes pass through unchanged.
func ExtractToDepth(n *html.Node, depth int) *html.Node {
	if depth <= 0 || n == nil {
		return nil
	}
	if n.Type == html.TextNode {
		return CloneShallow(n)
	}
	c := CloneShallow(n)
	if depth > 1 {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if trimmed := ExtractToDepth(child, depth-1); trimmed != nil {
				c.AppendChild(trimmed)
			}
		}
	}
	return c
}

// ExtractHTMLToDepth parses an HTML fragment and re-renders it trimmed to
// depth levels. A negative depth means no limit.
func ExtractHTMLToDepth(fragment string, depth int) (string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, n := range nodes {
		var out *html.Node
		if depth < 0 {
			out = Clone(n)
		} else {
			out = ExtractToDepth(n, depth)
		}
		if out == nil {
			continue
		}
		if err := html.Render(&sb, out); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// NestChain takes shallow single-element HTML fragments ordered from the
// document root down to a target element and nests each inside the previous,
// rendering the resulting ancestor chain. Used to show where an element sits
// in the page structure. Shells are tokenized rather than parsed so that
// structural tags like html and body survive as-is.
func NestChain(shells []string) (string, error) {
	var root, cursor *html.Node
	for _, shell := range shells {
		el := firstStartTag(shell)
		if el == nil {
			continue
		}
		if root == nil {
			root = el
			cursor = el
			continue
		}
		cursor.AppendChild(el)
		cursor = el
	}
	if root == nil {
		return "", nil
	}
	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// firstStartTag returns a childless element node for the first start tag in
// the fragment, or nil when there is none.
func firstStartTag(fragment string) *html.Node {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			return &html.Node{
				Type:     html.ElementNode,
				DataAtom: tok.DataAtom,
				Data:     tok.Data,
				Attr:     tok.Attr,
			}
		}
	}
}

// VisibleText extracts the text content of an HTML fragment, one line per
// text node, with runs of three or more newlines collapsed to two.
func VisibleText(fragment string) (string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	text := strings.Join(parts, "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text, nil
}

// parseFragment parses HTML in a body context, so inputs like "<div>..." are
// not wrapped in synthetic html/head/body elements. Full documents (outerHTML
// of the html element) go through the document parser instead.
func parseFragment(fragment string) ([]*html.Node, error) {
	trimmed := strings.ToLower(strings.TrimSpace(fragment))
	if strings.HasPrefix(trimmed, "<html") || strings.HasPrefix(trimmed, "<!doctype") {
		doc, err := html.Parse(strings.NewReader(fragment))
		if err != nil {
			return nil, err
		}
		var out []*html.Node
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, Clone(c))
			}
		}
		return out, nil
	}
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	return html.ParseFragment(strings.NewReader(fragment), ctx)
}

package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// BuildXPath constructs an absolute positional XPath for an element by
// walking up to the document root. A segment gets a 1-based positional
// predicate only when the element has preceding siblings of the same tag,
// so an only-child-of-its-tag renders predicate-free. The result is stable
// for a static snapshot and doubles as the element's identity when
// re-querying the live page.
func BuildXPath(n *html.Node) string {
	var segments []string
	for el := n; el != nil && el.Type == html.ElementNode; el = el.Parent {
		seg := el.Data
		if count := precedingSameTag(el); count > 0 {
			seg = fmt.Sprintf("%s[%d]", el.Data, count+1)
		}
		segments = append([]string{seg}, segments...)
	}
	return "/" + strings.Join(segments, "/")
}

// Depth returns the nesting level of an element relative to the document
// root; a top-level element has depth 1.
func Depth(n *html.Node) int {
	depth := 0
	for el := n; el != nil && el.Type == html.ElementNode; el = el.Parent {
		depth++
	}
	return depth
}

func precedingSameTag(n *html.Node) int {
	count := 0
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			count++
		}
	}
	return count
}

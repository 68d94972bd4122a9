package dom

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// VisibilityProbe answers whether the element at an XPath is visible in the
// live page. found is false when the element no longer exists there, which
// counts as not visible. Probes run against the live session, not the parsed
// snapshot, since rendering state is not part of the HTML.
type VisibilityProbe interface {
	IsVisible(xpath string) (visible, found bool)
}

// AllVisible is a probe that reports every element as visible. Useful when
// no live session is available.
type AllVisible struct{}

func (AllVisible) IsVisible(string) (bool, bool) { return true, true }

// SummaryOptions controls filtering, visibility gating, detail level, and
// pagination of a page summary.
type SummaryOptions struct {
	FilterType  string // "", "form", "button", "link" or "text"
	OnlyVisible bool
	Detailed    bool
	Skip        int
	Max         int
}

// Element is one entry of a page summary. Index is "position/total" over the
// filtered element set, assigned before pagination so callers can detect the
// final page.
type Element struct {
	Index     string           `json:"index"`
	Type      string           `json:"type"`
	XPath     string           `json:"xpath,omitempty"`
	Depth     int              `json:"depth,omitempty"`
	Visible   *bool            `json:"visible,omitempty"`
	Text      string           `json:"text,omitempty"`
	Href      string           `json:"href,omitempty"`
	Inputs    []map[string]any `json:"inputs,omitempty"`
	Buttons   []map[string]any `json:"buttons,omitempty"`
	AriaLabel string           `json:"aria_label,omitempty"`
	Role      string           `json:"role,omitempty"`
	Class     any              `json:"class,omitempty"`
	ID        string           `json:"id,omitempty"`
	Parent    *ParentInfo      `json:"parent,omitempty"`
}

// ParentInfo identifies the immediate parent of a summarized element.
type ParentInfo struct {
	Tag   string   `json:"tag"`
	ID    string   `json:"id,omitempty"`
	Class []string `json:"class,omitempty"`
}

// summaryTags is the fixed allowlist of tags worth summarizing.
var summaryTags = map[string]string{
	"form":   "form",
	"button": "button",
	"a":      "link",
	"h1":     "text",
	"h2":     "text",
	"h3":     "text",
	"p":      "text",
	"span":   "text",
}

// typeOrder places the most actionable element types first.
var typeOrder = map[string]int{"button": 0, "link": 1, "form": 2, "text": 3}

// Summarize scans a parsed document for forms, buttons, links and text
// elements and returns a compact, ordered, paginated digest. Visibility is
// probed per XPath and memoized for the duration of this call only; the memo
// is request-scoped because visibility can change between calls.
func Summarize(doc *html.Node, probe VisibilityProbe, opts SummaryOptions) []Element {
	memo := make(map[string]bool)
	isVisible := func(xpath string) bool {
		if v, ok := memo[xpath]; ok {
			return v
		}
		v, found := probe.IsVisible(xpath)
		if !found {
			return false
		}
		memo[xpath] = v
		return v
	}

	var summary []Element
	walkElements(doc, func(n *html.Node) {
		typ, ok := summaryTags[n.Data]
		if !ok {
			return
		}
		if opts.FilterType != "" && opts.FilterType != typ {
			return
		}
		xpath := BuildXPath(n)
		el := Element{Type: typ}
		if opts.Detailed {
			el.XPath = xpath
			el.Depth = Depth(n)
		}
		visible := isVisible(xpath)
		if !opts.OnlyVisible {
			if opts.Detailed {
				v := visible
				el.Visible = &v
			}
		} else if !visible {
			return
		}
		if text := textContent(n); text != "" {
			el.Text = text
		}
		switch typ {
		case "link":
			el.Href = attrVal(n, "href")
		case "form":
			el.Inputs = extractFields(n, isVisible, opts, []string{"input", "textarea", "select"},
				[]string{"name", "placeholder", "type", "class", "id"}, false)
			el.Buttons = extractFields(n, isVisible, opts, []string{"button"},
				buttonAttrs(opts.Detailed), true)
		}
		if opts.Detailed {
			if v := attrVal(n, "aria-label"); v != "" {
				el.AriaLabel = v
			}
			if v := attrVal(n, "role"); v != "" {
				el.Role = v
			}
		}
		if classes := strings.Fields(attrVal(n, "class")); len(classes) > 0 {
			if opts.Detailed {
				el.Class = classes
			} else {
				el.Class = strings.Join(classes, " ")
			}
		}
		if id := attrVal(n, "id"); id != "" {
			el.ID = id
		}
		if opts.Detailed {
			if parent := n.Parent; parent != nil && parent.Type == html.ElementNode {
				info := &ParentInfo{Tag: parent.Data}
				info.ID = attrVal(parent, "id")
				info.Class = strings.Fields(attrVal(parent, "class"))
				el.Parent = info
			}
		}
		summary = append(summary, el)
	})

	// Most actionable types first; document order within each type.
	sort.SliceStable(summary, func(i, j int) bool {
		return typeOrder[summary[i].Type] < typeOrder[summary[j].Type]
	})

	// Index over the whole filtered set before paginating, so total reflects
	// the true post-filter count on every page.
	total := len(summary)
	for i := range summary {
		summary[i].Index = fmt.Sprintf("%d/%d", i+1, total)
	}

	return paginate(summary, opts.Skip, opts.Max)
}

// extractFields walks a form's descendants matching tags and builds cleaned
// attribute entries, each independently visibility-checked. textFirst adds
// the element's text content before its attributes (buttons).
func extractFields(form *html.Node, isVisible func(string) bool, opts SummaryOptions, tags, attrs []string, textFirst bool) []map[string]any {
	tagSet := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagSet[t] = true
	}
	var fields []map[string]any
	walkElements(form, func(n *html.Node) {
		if n == form || !tagSet[n.Data] {
			return
		}
		data := make(map[string]any)
		if textFirst {
			if text := textContent(n); text != "" {
				data["text"] = text
			}
		}
		cleanAttrs(n, attrs, opts.Detailed, data)
		// Inputs with nothing to report are dropped before the visibility
		// probe. Buttons are checked after enrichment instead, so in
		// detailed mode a bare button still surfaces through its xpath.
		if !textFirst && len(data) == 0 {
			return
		}
		xpath := BuildXPath(n)
		if opts.Detailed {
			data["xpath"] = xpath
		}
		visible := isVisible(xpath)
		if !opts.OnlyVisible {
			if opts.Detailed {
				data["visible"] = visible
			}
		} else if !visible {
			return
		}
		if len(data) == 0 {
			return
		}
		fields = append(fields, data)
	})
	return fields
}

func buttonAttrs(detailed bool) []string {
	if detailed {
		return []string{"aria-label", "role", "class", "id"}
	}
	return []string{"class", "id"}
}

// cleanAttrs copies the named attributes into data, dropping empty values and
// normalizing hyphenated names to underscores. class becomes a list in
// detailed mode and a space-joined string otherwise.
func cleanAttrs(n *html.Node, attrs []string, detailed bool, data map[string]any) {
	for _, attr := range attrs {
		val := attrVal(n, attr)
		if val == "" {
			continue
		}
		key := strings.ReplaceAll(attr, "-", "_")
		if attr == "class" {
			classes := strings.Fields(val)
			if detailed {
				data[key] = classes
			} else {
				data[key] = strings.Join(classes, " ")
			}
			continue
		}
		data[key] = val
	}
}

// paginate returns the window summary[skip : skip+max], clamped to the
// slice. A non-positive max yields an empty page, never the whole set.
func paginate(summary []Element, skip, max int) []Element {
	if skip < 0 {
		skip = 0
	}
	end := skip + max
	if end > len(summary) {
		end = len(summary)
	}
	if skip >= end {
		return nil
	}
	return summary[skip:end]
}

// walkElements visits every element node under root in document order,
// including root itself.
func walkElements(root *html.Node, visit func(*html.Node)) {
	if root == nil {
		return
	}
	if root.Type == html.ElementNode {
		visit(root)
	}
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		walkElements(child, visit)
	}
}

// textContent concatenates the stripped text descendants of a node.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(node.Data))
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

func attrVal(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

package dom

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProbe marks a fixed set of xpaths as hidden and records probe counts.
type fakeProbe struct {
	hidden  map[string]bool
	missing map[string]bool
	calls   map[string]int
}

func newFakeProbe() *fakeProbe {
	return &fakeProbe{
		hidden:  make(map[string]bool),
		missing: make(map[string]bool),
		calls:   make(map[string]int),
	}
}

func (p *fakeProbe) IsVisible(xpath string) (bool, bool) {
	p.calls[xpath]++
	if p.missing[xpath] {
		return false, false
	}
	return !p.hidden[xpath], true
}

const summaryPage = `<html><body>
<h1>Store</h1>
<p>Welcome to the store.</p>
<a href="/cart" class="nav cart">Cart</a>
<a href="/help">Help</a>
<button id="buy" class="cta">Buy now</button>
<form id="search" class="box">
  <input name="q" placeholder="Search" type="text">
  <input type="hidden" name="token">
  <select name="lang"></select>
  <button class="go">Go</button>
</form>
<span>fine print</span>
</body></html>`

func TestSummarizeTypeOrderingAndIndexing(t *testing.T) {
	doc := parseDoc(t, summaryPage)
	out := Summarize(doc, AllVisible{}, SummaryOptions{Max: 20})

	// 2 links, 1 form, 3 texts (h1, p, span), and 2 buttons: the form's
	// button is also found standalone.
	require.Len(t, out, 8)

	var types []string
	for _, el := range out {
		types = append(types, el.Type)
	}
	assert.Equal(t, []string{"button", "button", "link", "link", "form", "text", "text", "text"}, types)

	for i, el := range out {
		assert.Equal(t, fmt.Sprintf("%d/8", i+1), el.Index)
	}
}

func TestSummarizeFields(t *testing.T) {
	doc := parseDoc(t, summaryPage)
	out := Summarize(doc, AllVisible{}, SummaryOptions{Max: 20})

	byType := make(map[string][]Element)
	for _, el := range out {
		byType[el.Type] = append(byType[el.Type], el)
	}

	cart := byType["link"][0]
	assert.Equal(t, "/cart", cart.Href)
	assert.Equal(t, "Cart", cart.Text)
	assert.Equal(t, "nav cart", cart.Class)

	buy := byType["button"][0]
	assert.Equal(t, "Buy now", buy.Text)
	assert.Equal(t, "buy", buy.ID)

	form := byType["form"][0]
	require.Len(t, form.Inputs, 3)
	assert.Equal(t, "q", form.Inputs[0]["name"])
	assert.Equal(t, "Search", form.Inputs[0]["placeholder"])
	require.Len(t, form.Buttons, 1)
	assert.Equal(t, "Go", form.Buttons[0]["text"])

	// Non-detailed entries carry no xpath, depth or visibility.
	assert.Empty(t, form.XPath)
	assert.Nil(t, form.Visible)
}

func TestSummarizeFilterType(t *testing.T) {
	doc := parseDoc(t, summaryPage)
	out := Summarize(doc, AllVisible{}, SummaryOptions{FilterType: "link", Max: 20})

	require.Len(t, out, 2)
	for i, el := range out {
		assert.Equal(t, "link", el.Type)
		assert.Equal(t, fmt.Sprintf("%d/2", i+1), el.Index)
	}
}

func TestSummarizeOnlyVisibleDropsHidden(t *testing.T) {
	doc := parseDoc(t, summaryPage)
	probe := newFakeProbe()
	probe.hidden["/html/body/button"] = true

	out := Summarize(doc, probe, SummaryOptions{OnlyVisible: true, Max: 20})
	for _, el := range out {
		assert.NotEqual(t, "buy", el.ID)
	}
}

func TestSummarizeMissingElementCountsAsNotVisible(t *testing.T) {
	doc := parseDoc(t, summaryPage)
	probe := newFakeProbe()
	probe.missing["/html/body/h1"] = true

	out := Summarize(doc, probe, SummaryOptions{OnlyVisible: true, Max: 20})
	for _, el := range out {
		assert.NotEqual(t, "Store", el.Text)
	}
}

func TestSummarizeDetailedKeepsHiddenWithFlag(t *testing.T) {
	doc := parseDoc(t, summaryPage)
	probe := newFakeProbe()
	probe.hidden["/html/body/button"] = true

	out := Summarize(doc, probe, SummaryOptions{Detailed: true, Max: 20})

	var found bool
	for _, el := range out {
		if el.ID == "buy" {
			found = true
			require.NotNil(t, el.Visible)
			assert.False(t, *el.Visible)
			assert.NotEmpty(t, el.XPath)
			assert.Greater(t, el.Depth, 0)
			require.NotNil(t, el.Parent)
			assert.Equal(t, "body", el.Parent.Tag)
		}
	}
	assert.True(t, found)
}

func TestSummarizeVisibilityMemoizedPerCall(t *testing.T) {
	// The form's button is summarized both standalone and as a form child;
	// the probe must be consulted once per xpath per call.
	doc := parseDoc(t, summaryPage)
	probe := newFakeProbe()

	Summarize(doc, probe, SummaryOptions{OnlyVisible: true, Max: 20})
	for xpath, n := range probe.calls {
		assert.Equal(t, 1, n, "xpath %s probed %d times", xpath, n)
	}

	// A second call starts from a cold memo.
	Summarize(doc, probe, SummaryOptions{OnlyVisible: true, Max: 20})
	for xpath, n := range probe.calls {
		assert.Equal(t, 2, n, "xpath %s probed %d times after two calls", xpath, n)
	}
}

func TestSummarizePaginationPartitions(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 11; i++ {
		fmt.Fprintf(&sb, `<a href="/l%d">link %d</a>`, i, i)
	}
	sb.WriteString("</body></html>")
	doc := parseDoc(t, sb.String())

	const pageSize = 4
	seen := make(map[string]int)
	var pages int
	for skip := 0; ; skip += pageSize {
		page := Summarize(doc, AllVisible{}, SummaryOptions{Skip: skip, Max: pageSize})
		if len(page) == 0 {
			break
		}
		pages++
		for _, el := range page {
			seen[el.Index]++
			assert.True(t, strings.HasSuffix(el.Index, "/11"), "total must be stable: %s", el.Index)
		}
	}

	assert.Equal(t, 3, pages)
	require.Len(t, seen, 11)
	for idx, n := range seen {
		assert.Equal(t, 1, n, "index %s seen %d times", idx, n)
	}
}

func TestSummarizeSkipPastEnd(t *testing.T) {
	doc := parseDoc(t, summaryPage)
	out := Summarize(doc, AllVisible{}, SummaryOptions{Skip: 100, Max: 20})
	assert.Empty(t, out)
}

func TestSummarizeNonPositiveMaxYieldsEmptyPage(t *testing.T) {
	doc := parseDoc(t, summaryPage)
	assert.Empty(t, Summarize(doc, AllVisible{}, SummaryOptions{Max: 0}))
	assert.Empty(t, Summarize(doc, AllVisible{}, SummaryOptions{Skip: 2, Max: -1}))
}

func TestSummarizeDetailedKeepsBareFormButton(t *testing.T) {
	doc := parseDoc(t, `<html><body><form id="f"><button></button></form></body></html>`)

	// In detailed mode the xpath alone gives the button an identity.
	out := Summarize(doc, AllVisible{}, SummaryOptions{Detailed: true, Max: 20})
	var form *Element
	for i := range out {
		if out[i].Type == "form" {
			form = &out[i]
		}
	}
	require.NotNil(t, form)
	require.Len(t, form.Buttons, 1)
	assert.Contains(t, form.Buttons[0], "xpath")

	// Without detailed there is nothing to report, so the button drops.
	out = Summarize(doc, AllVisible{}, SummaryOptions{Max: 20})
	for i := range out {
		if out[i].Type == "form" {
			assert.Empty(t, out[i].Buttons)
		}
	}
}

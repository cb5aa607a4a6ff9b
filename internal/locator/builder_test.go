package locator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novahq/scribe/internal/dom"
)

func mustParse(t *testing.T, snapshot string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(snapshot)
	require.NoError(t, err)
	return doc
}

func TestBuildNilAndRootNodes(t *testing.T) {
	assert.Nil(t, Build(nil))

	doc := mustParse(t, `<html><body><div>x</div></body></html>`)
	assert.Nil(t, Build(doc.Body()))
	assert.Nil(t, Build(doc.Find("html")))
}

func TestUniqueIDIsTerminal(t *testing.T) {
	doc := mustParse(t, `
		<div id="price-field" class="field wide" role="group">
			<input id="price" aria-label="Price">
		</div>`)

	d := Build(doc.Find("#price"))
	require.NotNil(t, d)
	assert.Equal(t, []string{"#price"}, d.Candidates)
	assert.Equal(t, "#price", d.Primary())
	assert.Nil(t, d.Fallbacks())
}

func TestDuplicateIDFallsThrough(t *testing.T) {
	doc := mustParse(t, `
		<div id="dup"><span aria-label="First">a</span></div>
		<section id="dup"><span>b</span></section>`)

	d := Build(doc.Find("span"))
	require.NotNil(t, d)
	// The span has no id; its aria-label candidate should lead.
	assert.Equal(t, `span[aria-label="First"]`, d.Primary())
}

func TestCandidateOrdering(t *testing.T) {
	doc := mustParse(t, `
		<main>
			<button aria-label="Publish listing" data-testid="publish" role="button" class="btn primary extra">Go</button>
		</main>`)

	d := Build(doc.Find("button"))
	require.NotNil(t, d)
	require.GreaterOrEqual(t, len(d.Candidates), 4)
	assert.Equal(t, `button[aria-label="Publish listing"]`, d.Candidates[0])
	assert.Equal(t, `[data-testid="publish"]`, d.Candidates[1])
	assert.Equal(t, `button[role="button"]`, d.Candidates[2])
	assert.Equal(t, "button.btn.primary", d.Candidates[3])
}

func TestClassPrefixBounded(t *testing.T) {
	doc := mustParse(t, `<div class="a b c d e">x</div>`)

	d := Build(doc.Find("div"))
	require.NotNil(t, d)
	assert.Contains(t, d.Candidates, "div.a.b")
	for _, c := range d.Candidates {
		assert.NotContains(t, c, ".c", "class prefix should stop at %d tokens", MaxClassTokens)
	}
}

func TestAmbiguousCandidateDiscarded(t *testing.T) {
	// Two identical buttons: class selector resolves to the first, so the
	// second button cannot claim it.
	doc := mustParse(t, `
		<div id="wrap">
			<button class="btn">one</button>
			<button class="btn">two</button>
		</div>`)

	buttons := doc.Match("button")
	require.Len(t, buttons, 2)

	second := Build(buttons[1])
	require.NotNil(t, second)
	assert.NotContains(t, second.Candidates, "button.btn")
	// The structural path still pins it down.
	assert.Contains(t, second.Candidates, "#wrap > button:nth-of-type(2)")

	first := Build(buttons[0])
	require.NotNil(t, first)
	assert.Contains(t, first.Candidates, "button.btn")
}

func TestStructuralPathStopsAtIDAncestor(t *testing.T) {
	doc := mustParse(t, `
		<div id="root">
			<section>
				<span>target</span>
			</section>
		</div>`)

	d := Build(doc.Find("span"))
	require.NotNil(t, d)

	var structural string
	for _, c := range d.Candidates {
		if strings.Contains(c, ">") {
			structural = c
		}
	}
	assert.Equal(t, "#root > section > span", structural)
}

func TestEveryCandidateResolvesToNode(t *testing.T) {
	doc := mustParse(t, `
		<form id="listing">
			<div class="row">
				<input aria-label="Mileage" class="field-input numeric">
			</div>
			<div class="row">
				<input aria-label="VIN" class="field-input">
			</div>
		</form>`)

	target := doc.Find(`input[aria-label="VIN"]`)
	require.NotNil(t, target)

	d := Build(target)
	require.NotNil(t, d)
	require.NotEmpty(t, d.Candidates)
	for _, c := range d.Candidates {
		matches := doc.Match(c)
		require.NotEmpty(t, matches, "candidate %q must match", c)
		assert.True(t, matches[0].Same(target), "candidate %q must resolve to the described node", c)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	doc := mustParse(t, `
		<div>
			<button aria-label="Next" class="nav-btn forward">Next</button>
		</div>`)

	n := doc.Find("button")
	a := Build(n)
	b := Build(n)
	require.NotNil(t, a)
	assert.Equal(t, a.Candidates, b.Candidates)
	assert.Equal(t, a.Text, b.Text)
}

func TestDescriptorSnapshotFields(t *testing.T) {
	doc := mustParse(t, `
		<div role="group" aria-label="Pricing">
			<input id="price" placeholder="Enter price" data-bbox="5,10,120,30">
		</div>`)

	d := Build(doc.Find("#price"))
	require.NotNil(t, d)
	assert.Equal(t, "input", d.Tag)
	assert.Equal(t, "Enter price", d.Placeholder)
	assert.Equal(t, dom.Rect{X: 5, Y: 10, Width: 120, Height: 30}, d.Bounds)
	assert.True(t, d.Visible)
	assert.True(t, d.IsFormControl)
	require.NotEmpty(t, d.Ancestors)
	assert.Equal(t, "div", d.Ancestors[0].Tag)
	assert.Equal(t, "Pricing", d.Ancestors[0].Label)
}

func TestTextTruncatedToBound(t *testing.T) {
	long := strings.Repeat("é", MaxTextRunes+40)
	doc := mustParse(t, `<div><p>`+long+`</p></div>`)

	d := Build(doc.Find("p"))
	require.NotNil(t, d)
	assert.Equal(t, MaxTextRunes, len([]rune(d.Text)))
}

func TestEscapeIdent(t *testing.T) {
	assert.Equal(t, "simple", escapeIdent("simple"))
	assert.Equal(t, `item\.name`, escapeIdent("item.name"))
	assert.Equal(t, `a\:b`, escapeIdent("a:b"))
	assert.Equal(t, `\31 23`, escapeIdent("123"))
	assert.Equal(t, "with-dash_ok", escapeIdent("with-dash_ok"))
}

func TestEscapeAttr(t *testing.T) {
	assert.Equal(t, `plain`, escapeAttr("plain"))
	assert.Equal(t, `say \"hi\"`, escapeAttr(`say "hi"`))
	assert.Equal(t, `back\\slash`, escapeAttr(`back\slash`))
}

func TestEscapedIDSelectorRoundTrips(t *testing.T) {
	doc := mustParse(t, `<div id="item.1:a">x</div>`)

	n := doc.Find("div")
	require.NotNil(t, n)

	d := Build(n)
	require.NotNil(t, d)
	require.NotEmpty(t, d.Candidates)
	matches := doc.Match(d.Primary())
	require.NotEmpty(t, matches)
	assert.True(t, matches[0].Same(n))
}

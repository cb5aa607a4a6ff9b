package locator

import (
	"fmt"
	"strings"

	"github.com/novahq/scribe/internal/dom"
)

// Build snapshots a node into a Descriptor with a ranked candidate list.
// Returns nil for nil nodes and for the page's root containers, which
// are never meaningful interaction targets.
//
// Candidate strategies, most to least specific:
//
//  1. unique #id — terminal, no fallbacks needed
//  2. [aria-label="…"] qualified by tag
//  3. [data-testid="…"]
//  4. tag[role="…"]
//  5. tag.class1.class2 (bounded class prefix)
//  6. structural path up to a stable ancestor or MaxPathDepth levels
//
// Every candidate is validated by re-querying the snapshot: a candidate
// whose first match is not the described node is discarded, because a
// locator that silently re-selects the wrong element is worse than no
// locator at all.
func Build(n *dom.Node) *Descriptor {
	if n == nil {
		return nil
	}
	switch n.Tag() {
	case "html", "body", "head":
		return nil
	}

	d := &Descriptor{
		Tag:           n.Tag(),
		Role:          n.Role(),
		ID:            n.ID(),
		AriaLabel:     n.AriaLabel(),
		Placeholder:   n.Placeholder(),
		Text:          truncateRunes(n.Text(), MaxTextRunes),
		Bounds:        n.Geometry(),
		Visible:       n.Visible(),
		IsFormControl: n.IsFormControl(),
		IsExpandable:  n.IsExpandable(),
		Ancestors:     ancestorSlice(n),
	}
	d.Candidates = candidates(n)
	return d
}

// candidates synthesizes the ordered locator list for a node.
func candidates(n *dom.Node) []string {
	doc := n.Document()

	if id := n.ID(); id != "" {
		sel := "#" + escapeIdent(id)
		if matchesUniquely(doc, sel, n) {
			return []string{sel}
		}
	}

	var out []string
	add := func(sel string) {
		if resolvesTo(doc, sel, n) {
			out = append(out, sel)
		}
	}

	if label := n.AriaLabel(); label != "" {
		add(fmt.Sprintf(`%s[aria-label="%s"]`, n.Tag(), escapeAttr(label)))
	}
	if tid := n.TestID(); tid != "" {
		add(fmt.Sprintf(`[data-testid="%s"]`, escapeAttr(tid)))
	}
	if role := n.Role(); role != "" {
		add(fmt.Sprintf(`%s[role="%s"]`, n.Tag(), escapeAttr(role)))
	}
	if sel := classSelector(n); sel != "" {
		add(sel)
	}
	if sel := structuralPath(n); sel != "" {
		add(sel)
	}
	return out
}

// classSelector builds tag.c1.c2 from a bounded prefix of class tokens.
func classSelector(n *dom.Node) string {
	classes := n.Classes()
	if len(classes) == 0 {
		return ""
	}
	if len(classes) > MaxClassTokens {
		classes = classes[:MaxClassTokens]
	}
	var b strings.Builder
	b.WriteString(n.Tag())
	for _, c := range classes {
		b.WriteByte('.')
		b.WriteString(escapeIdent(c))
	}
	return b.String()
}

// structuralPath walks from the node toward the root, emitting one
// tag(:nth-of-type) segment per level, and stops early at the first
// ancestor with a stable id.
func structuralPath(n *dom.Node) string {
	var segments []string
	cur := n
	for depth := 0; cur != nil && depth < MaxPathDepth; depth++ {
		tag := cur.Tag()
		if tag == "html" || tag == "body" {
			break
		}
		seg := tag
		if idx, total := cur.NthOfType(); total > 1 {
			seg = fmt.Sprintf("%s:nth-of-type(%d)", tag, idx)
		}
		segments = append([]string{seg}, segments...)

		parent := cur.Parent()
		if parent != nil && parent.ID() != "" {
			segments = append([]string{"#" + escapeIdent(parent.ID())}, segments...)
			break
		}
		cur = parent
	}
	if len(segments) < 2 {
		return "" // a bare tag adds nothing over the class strategy
	}
	return strings.Join(segments, " > ")
}

// ancestorSlice collects up to MaxAncestors enclosing elements, nearest
// first, skipping the root containers.
func ancestorSlice(n *dom.Node) []Ancestor {
	var out []Ancestor
	for p := n.Parent(); p != nil && len(out) < MaxAncestors; p = p.Parent() {
		tag := p.Tag()
		if tag == "html" || tag == "body" {
			break
		}
		out = append(out, Ancestor{Tag: tag, Role: p.Role(), Label: p.AriaLabel()})
	}
	return out
}

// resolvesTo dry-runs a candidate: it must match at least one element
// and its first match must be the described node.
func resolvesTo(doc *dom.Document, sel string, n *dom.Node) bool {
	matches := doc.Match(sel)
	return len(matches) > 0 && matches[0].Same(n)
}

// matchesUniquely additionally requires the candidate to be unambiguous.
func matchesUniquely(doc *dom.Document, sel string, n *dom.Node) bool {
	matches := doc.Match(sel)
	return len(matches) == 1 && matches[0].Same(n)
}

// truncateRunes bounds s to max runes. Captured text may contain user
// data; the fixed bound keeps descriptors small and limits exposure.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

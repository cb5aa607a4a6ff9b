// Package dom holds an in-memory mirror of the monitored application's
// interactive element tree. The host pushes serialized HTML snapshots;
// capture components query the current snapshot through this package and
// never touch the live page directly.
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is one parsed snapshot of the element tree. Snapshots are
// immutable: when the page changes structurally, the host pushes a fresh
// snapshot and the previous Document is discarded wholesale.
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML snapshot from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString reads an HTML snapshot from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Find returns the first node matching the CSS selector, or nil.
// An invalid selector also yields nil; callers treat "no match" and
// "bad selector" identically.
func (d *Document) Find(selector string) *Node {
	nodes := d.Match(selector)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Match returns every element node matching the CSS selector, in
// document order.
func (d *Document) Match(selector string) []*Node {
	defer func() { recover() }() // cascadia panics on some malformed selectors

	sel := d.doc.Find(selector)
	out := make([]*Node, 0, sel.Length())
	for _, n := range sel.Nodes {
		if n.Type == html.ElementNode {
			out = append(out, &Node{doc: d, n: n})
		}
	}
	return out
}

// MatchCount returns the number of elements the selector resolves to.
func (d *Document) MatchCount(selector string) int {
	return len(d.Match(selector))
}

// Body returns the document body, or nil for an empty snapshot.
func (d *Document) Body() *Node {
	return d.Find("body")
}

package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Rect is a node's bounding geometry in page coordinates. Serialized
// snapshots carry no layout, so the host annotates mirrored elements
// with data-bbox="x,y,w,h"; elements without the annotation report a
// zero Rect.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is a read-only view of one element in a Document. Nodes compare
// by identity of the underlying parse-tree element (Same).
type Node struct {
	doc *Document
	n   *html.Node
}

// Document returns the snapshot this node belongs to.
func (n *Node) Document() *Document { return n.doc }

// Tag returns the lowercase element tag name.
func (n *Node) Tag() string { return strings.ToLower(n.n.Data) }

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	for _, a := range n.n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present, even if empty.
func (n *Node) HasAttr(name string) bool {
	for _, a := range n.n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

func (n *Node) ID() string          { return n.Attr("id") }
func (n *Node) Role() string        { return n.Attr("role") }
func (n *Node) AriaLabel() string   { return n.Attr("aria-label") }
func (n *Node) Placeholder() string { return n.Attr("placeholder") }
func (n *Node) TestID() string      { return n.Attr("data-testid") }

// Classes returns the class tokens in source order.
func (n *Node) Classes() []string {
	return strings.Fields(n.Attr("class"))
}

// Text returns the node's visible text content with whitespace
// collapsed. Script and style subtrees are skipped.
func (n *Node) Text() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		if h.Type == html.ElementNode {
			switch strings.ToLower(h.Data) {
			case "script", "style", "template":
				return
			}
		}
		if h.Type == html.TextNode {
			b.WriteString(h.Data)
			b.WriteByte(' ')
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Geometry parses the host's data-bbox annotation ("x,y,w,h").
func (n *Node) Geometry() Rect {
	parts := strings.Split(n.Attr("data-bbox"), ",")
	if len(parts) != 4 {
		return Rect{}
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Rect{}
		}
		vals[i] = v
	}
	return Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
}

// Visible reports whether the element is visible as far as the mirrored
// attributes can tell: hidden attribute, aria-hidden, input type=hidden,
// and inline display:none / visibility:hidden all count as hidden.
func (n *Node) Visible() bool {
	if n.HasAttr("hidden") || n.Attr("aria-hidden") == "true" {
		return false
	}
	if n.Tag() == "input" && strings.EqualFold(n.Attr("type"), "hidden") {
		return false
	}
	style := strings.ReplaceAll(strings.ToLower(n.Attr("style")), " ", "")
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return false
	}
	return true
}

// IsFormControl reports whether the element accepts user input.
func (n *Node) IsFormControl() bool {
	switch n.Tag() {
	case "input", "textarea", "select":
		return true
	}
	if n.Attr("contenteditable") == "true" {
		return true
	}
	switch n.Role() {
	case "textbox", "searchbox", "combobox", "spinbutton":
		return true
	}
	return false
}

// IsExpandable reports whether the element opens an option panel or
// similar popup when activated.
func (n *Node) IsExpandable() bool {
	if n.Tag() == "select" {
		return true
	}
	if n.HasAttr("aria-expanded") || n.HasAttr("aria-haspopup") {
		return true
	}
	switch n.Role() {
	case "combobox", "listbox", "menu":
		return true
	}
	return false
}

// Parent returns the parent element node, or nil at the document root.
func (n *Node) Parent() *Node {
	p := n.n.Parent
	for p != nil && p.Type != html.ElementNode {
		p = p.Parent
	}
	if p == nil {
		return nil
	}
	return &Node{doc: n.doc, n: p}
}

// Same reports whether two views point at the same underlying element.
func (n *Node) Same(other *Node) bool {
	return other != nil && n.n == other.n
}

// NthOfType returns the node's 1-based position among same-tag element
// siblings and the total count of those siblings.
func (n *Node) NthOfType() (index, total int) {
	parent := n.n.Parent
	if parent == nil {
		return 1, 1
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || !strings.EqualFold(c.Data, n.n.Data) {
			continue
		}
		total++
		if c == n.n {
			index = total
		}
	}
	if total == 0 {
		return 1, 1
	}
	return index, total
}

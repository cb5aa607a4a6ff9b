// Package locator builds target descriptors: attribute snapshots of a UI
// node plus a ranked list of locator candidates that can re-select the
// node at replay time.
package locator

import "github.com/novahq/scribe/internal/dom"

// Truncation and depth bounds. Fixed so eviction/truncation behavior is
// deterministic and testable.
const (
	MaxTextRunes   = 80
	MaxAncestors   = 3
	MaxClassTokens = 2
	MaxPathDepth   = 5
)

// Ancestor is a compact slice of one ancestor's identity, kept for
// classification context.
type Ancestor struct {
	Tag   string `json:"tag"`
	Role  string `json:"role,omitempty"`
	Label string `json:"label,omitempty"`
}

// Descriptor is a value-object snapshot of one UI node at event time.
// Descriptors are never mutated after creation and are safe to share.
type Descriptor struct {
	Tag           string     `json:"tag"`
	Role          string     `json:"role,omitempty"`
	ID            string     `json:"id,omitempty"`
	AriaLabel     string     `json:"ariaLabel,omitempty"`
	Placeholder   string     `json:"placeholder,omitempty"`
	Text          string     `json:"text,omitempty"`
	Bounds        dom.Rect   `json:"bounds"`
	Visible       bool       `json:"visible"`
	IsFormControl bool       `json:"isFormControl"`
	IsExpandable  bool       `json:"isExpandable"`
	Ancestors     []Ancestor `json:"ancestors,omitempty"`

	// Candidates are locator strings ordered most-specific first.
	Candidates []string `json:"candidates"`
}

// Primary returns the highest-confidence locator candidate, or "".
func (d *Descriptor) Primary() string {
	if d == nil || len(d.Candidates) == 0 {
		return ""
	}
	return d.Candidates[0]
}

// Fallbacks returns every candidate after the primary.
func (d *Descriptor) Fallbacks() []string {
	if d == nil || len(d.Candidates) < 2 {
		return nil
	}
	return d.Candidates[1:]
}

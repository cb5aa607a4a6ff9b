package capture

import (
	"github.com/novahq/scribe/internal/classify"
)

// MarkingState names the marking-mode states.
type MarkingState string

const (
	MarkingIdle        MarkingState = "idle"
	MarkingGridVisible MarkingState = "gridVisible"
	MarkingActive      MarkingState = "active"
)

// GridEntry is one palette choice: a field type with its one-key
// shortcut.
type GridEntry struct {
	Key   string             `json:"key"`
	Field classify.FieldType `json:"field"`
	Label string             `json:"label"`
}

// Overlay renders marking-mode UI on the monitored surface. The state
// machine owns exactly one pending indicator at a time: ShowPending is
// never called twice without an intervening ClearPending.
type Overlay interface {
	ShowGrid(entries []GridEntry)
	HideGrid()
	ShowPending(field classify.FieldType)
	ClearPending()
}

// NopOverlay discards all overlay calls; the default when the host
// renders nothing.
type NopOverlay struct{}

func (NopOverlay) ShowGrid([]GridEntry)           {}
func (NopOverlay) HideGrid()                      {}
func (NopOverlay) ShowPending(classify.FieldType) {}
func (NopOverlay) ClearPending()                  {}

// defaultGrid is the palette shown while the modifier is held.
var defaultGrid = []GridEntry{
	{Key: "1", Field: classify.FieldYear, Label: "Year"},
	{Key: "2", Field: classify.FieldMake, Label: "Make"},
	{Key: "3", Field: classify.FieldModel, Label: "Model"},
	{Key: "4", Field: classify.FieldMileage, Label: "Mileage"},
	{Key: "5", Field: classify.FieldPrice, Label: "Price"},
	{Key: "6", Field: classify.FieldTitle, Label: "Title"},
	{Key: "7", Field: classify.FieldDescription, Label: "Description"},
	{Key: "8", Field: classify.FieldLocation, Label: "Location"},
	{Key: "9", Field: classify.FieldCondition, Label: "Condition"},
	{Key: "0", Field: classify.FieldCategory, Label: "Category"},
	{Key: "n", Field: classify.FieldNext, Label: "Next"},
	{Key: "p", Field: classify.FieldPublish, Label: "Publish"},
}

// markingMachine implements Idle -> GridVisible -> MarkingActive ->
// Idle. It owns the overlay and enforces the single-indicator
// invariant.
type markingMachine struct {
	state        MarkingState
	pending      classify.FieldType
	hovered      classify.FieldType
	overlay      Overlay
	grid         []GridEntry
	exitOnScroll bool
}

func newMarkingMachine(overlay Overlay, exitOnScroll bool) *markingMachine {
	if overlay == nil {
		overlay = NopOverlay{}
	}
	return &markingMachine{
		state:        MarkingIdle,
		overlay:      overlay,
		grid:         defaultGrid,
		exitOnScroll: exitOnScroll,
	}
}

// modifierDown shows the palette. No-op outside Idle.
func (m *markingMachine) modifierDown() {
	if m.state != MarkingIdle {
		return
	}
	m.state = MarkingGridVisible
	m.hovered = classify.FieldNone
	m.overlay.ShowGrid(m.grid)
}

// modifierUp commits the hovered entry if any, otherwise dismisses the
// grid.
func (m *markingMachine) modifierUp() {
	if m.state != MarkingGridVisible {
		return
	}
	if m.hovered != classify.FieldNone {
		m.activate(m.hovered)
		return
	}
	m.state = MarkingIdle
	m.overlay.HideGrid()
}

// hover tracks the palette entry under the pointer.
func (m *markingMachine) hover(field classify.FieldType) {
	if m.state == MarkingGridVisible {
		m.hovered = field
	}
}

// selectEntry commits a palette entry by pointer or shortcut key.
func (m *markingMachine) selectEntry(field classify.FieldType) bool {
	if m.state != MarkingGridVisible {
		return false
	}
	m.activate(field)
	return true
}

// shortcut resolves a one-key shortcut to its palette entry.
func (m *markingMachine) shortcut(key string) (classify.FieldType, bool) {
	if m.state != MarkingGridVisible {
		return classify.FieldNone, false
	}
	for _, e := range m.grid {
		if e.Key == key {
			return e.Field, true
		}
	}
	return classify.FieldNone, false
}

func (m *markingMachine) activate(field classify.FieldType) {
	m.overlay.HideGrid()
	m.state = MarkingActive
	m.pending = field
	m.overlay.ShowPending(field)
}

// consumeClick reports whether a click should be treated as a marking
// click, returning the pending field and transitioning to Idle.
func (m *markingMachine) consumeClick() (classify.FieldType, bool) {
	if m.state != MarkingActive {
		return classify.FieldNone, false
	}
	field := m.pending
	m.exitActive()
	return field, true
}

// dismissGrid hides the palette when a modifier-click lands on the
// page instead of a palette entry. No-op outside GridVisible.
func (m *markingMachine) dismissGrid() {
	if m.state == MarkingGridVisible {
		m.state = MarkingIdle
		m.overlay.HideGrid()
	}
}

// scrolled exits MarkingActive when the exit-on-scroll policy is on.
// Scrolling of any magnitude signals the operator is navigating, not
// marking.
func (m *markingMachine) scrolled() {
	if m.state == MarkingActive && m.exitOnScroll {
		m.exitActive()
	}
}

// cancel aborts whichever non-idle state is current.
func (m *markingMachine) cancel() {
	switch m.state {
	case MarkingGridVisible:
		m.state = MarkingIdle
		m.overlay.HideGrid()
	case MarkingActive:
		m.exitActive()
	}
}

// reset forces Idle and clears any overlay remnants; called on session
// stop so no indicator dangles across sessions.
func (m *markingMachine) reset() {
	m.overlay.HideGrid()
	if m.state == MarkingActive {
		m.overlay.ClearPending()
	}
	m.state = MarkingIdle
	m.pending = classify.FieldNone
	m.hovered = classify.FieldNone
}

func (m *markingMachine) exitActive() {
	m.state = MarkingIdle
	m.pending = classify.FieldNone
	m.overlay.ClearPending()
}

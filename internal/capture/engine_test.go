package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novahq/scribe/internal/classify"
	"github.com/novahq/scribe/internal/dom"
)

const formSnapshot = `
<html><body>
  <form id="listing">
    <input id="price" aria-label="Price">
    <input id="title" aria-label="Title">
    <select id="make" aria-label="Make"><option>Toyota</option></select>
    <button id="publish" aria-label="Publish">Publish</button>
  </form>
</body></html>`

// testEngine bundles an engine with its injected clock, scheduler, and
// parsed snapshot.
type testEngine struct {
	*Engine
	clock *FakeClock
	sched *ManualScheduler
	doc   *dom.Document
}

func newTestEngine(t *testing.T, opts Options, extra ...Option) *testEngine {
	t.Helper()
	clock := NewFakeClock(time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
	sched := &ManualScheduler{}

	all := append([]Option{WithClock(clock), WithScheduler(sched)}, extra...)
	e := NewEngine(opts, all...)

	doc, err := dom.ParseString(formSnapshot)
	require.NoError(t, err)
	e.SetDocument(doc)

	return &testEngine{Engine: e, clock: clock, sched: sched, doc: doc}
}

func (te *testEngine) node(t *testing.T, selector string) *dom.Node {
	t.Helper()
	n := te.doc.Find(selector)
	require.NotNil(t, n, "selector %q must resolve in fixture", selector)
	return n
}

func start(t *testing.T, te *testEngine) string {
	t.Helper()
	id, err := te.Start(StartOptions{Mode: "create_listing", RecordingType: "full"})
	require.NoError(t, err)
	return id
}

func stop(t *testing.T, te *testEngine) *Recording {
	t.Helper()
	rec, err := te.Stop()
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func kinds(events []Event) []Kind {
	out := make([]Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

// --- lifecycle ---

func TestStartStopLifecycle(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())

	id := start(t, te)
	assert.NotEmpty(t, id)
	assert.True(t, te.Active())

	rec := stop(t, te)
	assert.False(t, te.Active())
	assert.Equal(t, id, rec.SessionID)
	assert.Equal(t, "create_listing", rec.Mode)
	assert.Equal(t, "full", rec.RecordingType)

	// Timeline is bracketed by sessionStart and sessionEnd.
	require.NotEmpty(t, rec.Events)
	assert.Equal(t, KindSessionStart, rec.Events[0].Kind)
	assert.Equal(t, KindSessionEnd, rec.Events[len(rec.Events)-1].Kind)
}

func TestStartWhileActiveIsConflict(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	first := start(t, te)

	_, err := te.Start(StartOptions{Mode: "other"})
	assert.ErrorIs(t, err, ErrSessionActive)

	// The running session is untouched.
	assert.Equal(t, first, te.Status().SessionID)
}

func TestStopWhileInactiveIsNoOp(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	rec, err := te.Stop()
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSessionIDsAreUnique(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	a := start(t, te)
	stop(t, te)
	b := start(t, te)
	stop(t, te)
	assert.NotEqual(t, a, b)
}

func TestHandlersIgnoredWhileInactive(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())

	te.HandleClick(te.node(t, "#publish"), ClickModifiers{})
	te.HandleKeyDown("a", te.node(t, "#price"))
	te.HandleScroll(ScrollState{DeltaY: 10})

	assert.Nil(t, te.Events(0))
	assert.ErrorIs(t, te.Pause(), ErrNoSession)
	assert.ErrorIs(t, te.Resume(), ErrNoSession)
	assert.ErrorIs(t, te.AddMarker("x"), ErrNoSession)
}

// --- clicks and classification ---

func TestClickRecordsClassifiedTarget(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleClick(te.node(t, "#price"), ClickModifiers{Button: "left", X: 12, Y: 34})

	events := te.Events(0)
	last := events[len(events)-1]
	assert.Equal(t, KindClick, last.Kind)
	assert.Equal(t, classify.FieldPrice, last.Field)
	require.NotNil(t, last.Target)
	assert.Equal(t, "#price", last.Target.Primary())

	payload, ok := last.Payload.(ClickPayload)
	require.True(t, ok)
	assert.Equal(t, "left", payload.Button)
	assert.Equal(t, 12.0, payload.X)
}

func TestAltClickMarksWithHeuristicGuess(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleClick(te.node(t, "#price"), ClickModifiers{Alt: true})

	marks := te.Marks()
	require.Len(t, marks, 1)
	assert.Equal(t, classify.FieldPrice, marks[0].Field)
	assert.Equal(t, 1, marks[0].Sequence)
}

func TestAltClickMarksWhileGridVisible(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	// A key-forwarding host raises the palette on the Alt keydown
	// before the click arrives. The page click must still take the
	// legacy mark path instead of recording a plain click.
	te.HandleKeyDown("Alt", nil)
	require.Equal(t, MarkingGridVisible, te.MarkingState())

	te.HandleClick(te.node(t, "#price"), ClickModifiers{Alt: true})

	marks := te.Marks()
	require.Len(t, marks, 1)
	assert.Equal(t, classify.FieldPrice, marks[0].Field)
	assert.Equal(t, MarkingIdle, te.MarkingState(), "page click dismisses the palette")

	// Releasing the modifier afterwards must not re-enter marking.
	te.HandleKeyUp("Alt")
	assert.Equal(t, MarkingIdle, te.MarkingState())
}

// --- keystroke coalescing ---

func TestTypingRunCoalescesIntoOneEvent(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	target := te.node(t, "#title")
	te.HandleKeyDown("a", target)
	te.clock.Advance(50 * time.Millisecond)
	te.HandleKeyDown("b", target)
	te.clock.Advance(50 * time.Millisecond)
	te.HandleKeyDown("c", target)

	// Nothing emitted until the idle flush fires.
	assert.Equal(t, KindSessionStart, te.Events(0)[len(te.Events(0))-1].Kind)

	te.sched.Fire()

	events := te.Events(0)
	last := events[len(events)-1]
	require.Equal(t, KindTyping, last.Kind)
	payload := last.Payload.(TypingPayload)
	assert.Equal(t, "abc", payload.Text)
	assert.Equal(t, int64(100), payload.DurationMs)
	assert.Equal(t, classify.FieldTitle, last.Field)
}

func TestTargetSwitchFlushesTypingRun(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("h", te.node(t, "#title"))
	te.HandleKeyDown("i", te.node(t, "#title"))
	te.HandleKeyDown("9", te.node(t, "#price"))
	te.sched.Fire()

	var typed []string
	for _, ev := range te.Events(0) {
		if ev.Kind == KindTyping {
			typed = append(typed, ev.Payload.(TypingPayload).Text)
		}
	}
	assert.Equal(t, []string{"hi", "9"}, typed)
}

func TestSpecialKeyFlushesBufferThenEmitsKeypress(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	target := te.node(t, "#title")
	te.HandleKeyDown("o", target)
	te.HandleKeyDown("k", target)
	te.HandleKeyDown("Enter", target)

	events := te.Events(0)
	n := len(events)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, KindTyping, events[n-2].Kind)
	assert.Equal(t, "ok", events[n-2].Payload.(TypingPayload).Text)
	assert.Equal(t, KindKeypress, events[n-1].Kind)
	assert.Equal(t, "Enter", events[n-1].Payload.(KeypressPayload).Key)
}

func TestClickOnOtherTargetFlushesTypingRun(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("x", te.node(t, "#title"))
	te.HandleClick(te.node(t, "#publish"), ClickModifiers{})

	events := te.Events(0)
	n := len(events)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, KindTyping, events[n-2].Kind)
	assert.Equal(t, KindClick, events[n-1].Kind)
}

func TestStopFlushesTypingBeforeSessionEnd(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("z", te.node(t, "#title"))
	rec := stop(t, te)

	ks := kinds(rec.Events)
	require.GreaterOrEqual(t, len(ks), 3)
	assert.Equal(t, KindTyping, ks[len(ks)-2], "trailing typing run must flush before sessionEnd")
	assert.Equal(t, KindSessionEnd, ks[len(ks)-1])
}

// --- pause / resume ---

func TestPauseSuppressesEventsAndRetainsBuffer(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("a", te.node(t, "#title"))
	require.NoError(t, te.Pause())

	// Recorded paths are suppressed.
	te.HandleClick(te.node(t, "#publish"), ClickModifiers{})
	te.HandleScroll(ScrollState{DeltaY: 5})

	// The idle flush fires but the paused buffer is retained, not lost.
	te.sched.Fire()
	for _, ev := range te.Events(0) {
		assert.NotEqual(t, KindTyping, ev.Kind)
		assert.NotEqual(t, KindClick, ev.Kind)
	}

	require.NoError(t, te.Resume())
	te.HandleKeyDown("b", te.node(t, "#title"))
	te.sched.Fire()

	events := te.Events(0)
	last := events[len(events)-1]
	require.Equal(t, KindTyping, last.Kind)
	assert.Equal(t, "ab", last.Payload.(TypingPayload).Text)
}

func TestStopWhilePausedStillFlushesAndEmitsSessionEnd(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("q", te.node(t, "#title"))
	require.NoError(t, te.Pause())

	rec := stop(t, te)
	ks := kinds(rec.Events)
	assert.Contains(t, ks, KindTyping, "paused session must not lose trailing text on stop")
	assert.Equal(t, KindSessionEnd, ks[len(ks)-1])
}

// --- scroll debouncing ---

func TestScrollBurstCoalescesDeltas(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleScroll(ScrollState{Y: 100, DeltaY: 100, ViewportH: 800, DocH: 4000})
	te.HandleScroll(ScrollState{Y: 250, DeltaY: 150, ViewportH: 800, DocH: 4000})
	te.HandleScroll(ScrollState{Y: 240, DeltaY: -10, ViewportH: 800, DocH: 4000})
	te.sched.Fire()

	var scrolls []ScrollPayload
	for _, ev := range te.Events(0) {
		if ev.Kind == KindScroll {
			scrolls = append(scrolls, ev.Payload.(ScrollPayload))
		}
	}
	require.Len(t, scrolls, 1, "burst must produce one scroll event")
	assert.Equal(t, 240.0, scrolls[0].Y, "position is last-write-wins")
	assert.Equal(t, 240.0, scrolls[0].DeltaY, "deltas accumulate")
	assert.Equal(t, 4000.0, scrolls[0].DocH)
}

func TestScrollStopFlushesPendingBurst(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleScroll(ScrollState{DeltaY: 42})
	rec := stop(t, te)

	assert.Contains(t, kinds(rec.Events), KindScroll)
}

// --- mutation debouncing ---

func TestMutationBurstTaggedWithDominantCategory(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	dialog, err := dom.ParseString(`<div role="dialog">modal</div>`)
	require.NoError(t, err)

	te.HandleMutations([]Mutation{
		{Kind: "childList"},
		{Kind: "childList"},
		{Kind: "childList", Target: dialog.Find("div")},
	})
	te.sched.Fire()

	events := te.Events(0)
	last := events[len(events)-1]
	require.Equal(t, KindDOMChange, last.Kind)
	payload := last.Payload.(DOMChangePayload)
	assert.Equal(t, MutationDialogOpened, payload.Category)
	assert.Equal(t, 3, payload.Count)
}

func TestMutationAriaExpandedToggle(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleMutations([]Mutation{{Kind: "attributes", Attribute: "aria-expanded"}})
	te.sched.Fire()

	events := te.Events(0)
	last := events[len(events)-1]
	require.Equal(t, KindDOMChange, last.Kind)
	assert.Equal(t, MutationExpandableToggled, last.Payload.(DOMChangePayload).Category)
}

// --- marking mode through the engine ---

func TestMarkingGridClickMarksPendingField(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("Alt", nil)
	assert.Equal(t, MarkingGridVisible, te.MarkingState())

	te.HandleKeyDown("5", nil) // grid shortcut: price
	assert.Equal(t, MarkingActive, te.MarkingState())

	te.HandleClick(te.node(t, "#price"), ClickModifiers{})
	assert.Equal(t, MarkingIdle, te.MarkingState())

	marks := te.Marks()
	require.Len(t, marks, 1)
	assert.Equal(t, classify.FieldPrice, marks[0].Field)

	// The click event carries the marked field.
	events := te.Events(0)
	last := events[len(events)-1]
	assert.Equal(t, KindClick, last.Kind)
	assert.Equal(t, classify.FieldPrice, last.Field)
}

func TestMarkingHoverCommitOnModifierRelease(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("Alt", nil)
	te.HandleGridHover(classify.FieldYear)
	te.HandleKeyUp("Alt")
	assert.Equal(t, MarkingActive, te.MarkingState())

	te.HandleClick(te.node(t, "#title"), ClickModifiers{})
	marks := te.Marks()
	require.Len(t, marks, 1)
	assert.Equal(t, classify.FieldYear, marks[0].Field, "marked field overrides the classifier guess")
}

func TestMarkingEscapeCancels(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("Alt", nil)
	te.HandleKeyDown("Escape", nil)
	assert.Equal(t, MarkingIdle, te.MarkingState())
	assert.Empty(t, te.Marks())
}

func TestOnePixelScrollExitsMarking(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("Alt", nil)
	te.HandleKeyDown("1", nil)
	require.Equal(t, MarkingActive, te.MarkingState())

	te.HandleScroll(ScrollState{DeltaY: 1})
	assert.Equal(t, MarkingIdle, te.MarkingState())

	// The click after the exit is plain.
	te.HandleClick(te.node(t, "#title"), ClickModifiers{})
	assert.Empty(t, te.Marks())
}

func TestConfiguredModifierKey(t *testing.T) {
	opts := DefaultOptions()
	opts.MarkingModifier = "Control"
	te := newTestEngine(t, opts)
	start(t, te)

	te.HandleKeyDown("Alt", nil)
	assert.Equal(t, MarkingIdle, te.MarkingState(), "Alt is printable-ignored under a Control binding")

	te.HandleKeyDown("Control", nil)
	assert.Equal(t, MarkingGridVisible, te.MarkingState())
}

func TestStopResetsMarkingState(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleKeyDown("Alt", nil)
	te.HandleKeyDown("5", nil)
	stop(t, te)

	assert.Equal(t, MarkingIdle, te.MarkingState())
}

// --- programmatic marking ---

func TestMarkFieldResolvesLocator(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	require.NoError(t, te.MarkField(classify.FieldPublish, "#publish"))

	marks := te.Marks()
	require.Len(t, marks, 1)
	assert.Equal(t, classify.FieldPublish, marks[0].Field)
	assert.Equal(t, "#publish", marks[0].Descriptor.Primary())
}

func TestMarkFieldErrors(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())

	assert.ErrorIs(t, te.MarkField(classify.FieldPrice, "#price"), ErrNoSession)

	start(t, te)
	assert.ErrorIs(t, te.MarkField(classify.FieldType("bogus"), "#price"), ErrUnknownField)
	assert.ErrorIs(t, te.MarkField(classify.FieldPrice, "#nope"), ErrLocatorUnresolved)
}

func TestMarkSequenceNumbersIncrement(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	require.NoError(t, te.MarkField(classify.FieldPrice, "#price"))
	require.NoError(t, te.MarkField(classify.FieldTitle, "#title"))

	marks := te.Marks()
	require.Len(t, marks, 2)
	assert.Equal(t, 1, marks[0].Sequence)
	assert.Equal(t, 2, marks[1].Sequence)
}

// --- navigation polling ---

func TestNavigationPollRecordsAddressChange(t *testing.T) {
	url := "https://www.example.com/marketplace"
	te := newTestEngine(t, DefaultOptions(), WithURLSource(func() string { return url }))
	start(t, te)

	// No change: poll reschedules silently.
	te.sched.Fire()
	for _, ev := range te.Events(0) {
		assert.NotEqual(t, KindNavigation, ev.Kind)
	}

	url = "https://www.example.com/marketplace/create/vehicle"
	te.sched.Fire()

	events := te.Events(0)
	last := events[len(events)-1]
	require.Equal(t, KindNavigation, last.Kind)
	payload := last.Payload.(NavigationPayload)
	assert.Equal(t, "https://www.example.com/marketplace", payload.FromURL)
	assert.Equal(t, "createListing", payload.Intent)
}

// --- tab correlation ---

func TestTabLifecycleAndEventAttribution(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.SetTabInfo(TabContext{TabID: "tab-1", Index: 0, URL: "https://www.example.com/marketplace/create"})
	te.HandleClick(te.node(t, "#price"), ClickModifiers{})

	te.TabCreated(TabContext{TabID: "tab-2", Index: 1, URL: "https://www.example.com/messages/t/1"})
	te.TabActivated("tab-2")
	te.HandleClick(te.node(t, "#publish"), ClickModifiers{})
	te.TabClosed("tab-2")

	rec := stop(t, te)

	require.Len(t, rec.Tabs, 2)
	assert.Equal(t, "tab-1", rec.Tabs[0].Tab.TabID)
	assert.Equal(t, "listingCreation", rec.Tabs[0].Tab.Type)
	assert.Equal(t, "tab-2", rec.Tabs[1].Tab.TabID)
	assert.Equal(t, "messaging", rec.Tabs[1].Tab.Type)

	// Clicks landed on the tab active at event time.
	assert.Positive(t, rec.Tabs[0].Kinds[KindClick])
	assert.Positive(t, rec.Tabs[1].Kinds[KindClick])

	// The causal sequence records the full lifecycle in order.
	var actions []string
	for _, e := range rec.TabSequence {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"registered", "created", "activated", "closed"}, actions)
}

func TestTabActivateUnknownTabRegistersPlaceholder(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.TabActivated("mystery")
	rec := stop(t, te)

	require.Len(t, rec.Tabs, 1)
	assert.Equal(t, "mystery", rec.Tabs[0].Tab.TabID)
	assert.Equal(t, "unknown", rec.Tabs[0].Tab.Type)
}

// --- timeline invariants ---

func TestRelativeTimeNonDecreasing(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	te.HandleClick(te.node(t, "#price"), ClickModifiers{})
	te.clock.Advance(30 * time.Millisecond)
	te.HandleClick(te.node(t, "#title"), ClickModifiers{})
	te.clock.Advance(700 * time.Millisecond)
	te.HandleClick(te.node(t, "#publish"), ClickModifiers{})

	rec := stop(t, te)
	for i := 1; i < len(rec.Events); i++ {
		assert.GreaterOrEqual(t, rec.Events[i].RelativeMs, rec.Events[i-1].RelativeMs,
			"relativeTime must never decrease")
	}
}

func TestBufferCeilingKeepsNewestEvents(t *testing.T) {
	opts := DefaultOptions()
	opts.BufferCeiling = 5
	te := newTestEngine(t, opts)
	start(t, te)

	for i := 0; i < 20; i++ {
		te.HandleClick(te.node(t, "#price"), ClickModifiers{})
		te.clock.Advance(time.Millisecond)
	}

	rec := stop(t, te)
	assert.Len(t, rec.Events, 5)
	assert.Positive(t, rec.EvictedCount)
	// The newest events survive, so the close bracket is retained.
	assert.Equal(t, KindSessionEnd, rec.Events[len(rec.Events)-1].Kind)
}

func TestEventsLimitBoundsIntrospection(t *testing.T) {
	opts := DefaultOptions()
	opts.EventsLimit = 3
	te := newTestEngine(t, opts)
	start(t, te)

	for i := 0; i < 10; i++ {
		te.HandleClick(te.node(t, "#price"), ClickModifiers{})
	}

	assert.Len(t, te.Events(0), 3)
	assert.Len(t, te.Events(100), 3, "requested limit is clamped to the configured bound")
	assert.Len(t, te.Events(2), 2)
}

func TestEventIDsArePrefixed(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)
	te.HandleClick(te.node(t, "#price"), ClickModifiers{})

	for _, ev := range te.Events(0) {
		assert.Regexp(t, `^SCR-[0-9a-f]{8}$`, ev.ID)
	}
}

func TestStatusSnapshot(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())

	st := te.Status()
	assert.False(t, st.Active)
	assert.Equal(t, MarkingIdle, st.MarkingState)

	start(t, te)
	te.HandleClick(te.node(t, "#price"), ClickModifiers{})
	require.NoError(t, te.MarkField(classify.FieldPrice, "#price"))

	st = te.Status()
	assert.True(t, st.Active)
	assert.False(t, st.Paused)
	assert.Equal(t, "create_listing", st.Mode)
	assert.Equal(t, 1, st.MarkCount)
	assert.GreaterOrEqual(t, st.EventCount, 2)
}

// --- progress notification ---

func TestNotifierReceivesEveryRecordedEvent(t *testing.T) {
	var got []Progress
	te := newTestEngine(t, DefaultOptions(), WithNotifier(func(p Progress) { got = append(got, p) }))
	start(t, te)
	te.HandleClick(te.node(t, "#price"), ClickModifiers{})
	stop(t, te)

	// sessionStart, click, sessionEnd
	require.Len(t, got, 3)
	assert.Equal(t, KindClick, got[1].Event.Kind)
	assert.Equal(t, 2, got[1].EventCount)
}

func TestPanickingNotifierDoesNotAbortCapture(t *testing.T) {
	te := newTestEngine(t, DefaultOptions(), WithNotifier(func(Progress) { panic("boom") }))
	start(t, te)
	te.HandleClick(te.node(t, "#price"), ClickModifiers{})

	rec := stop(t, te)
	assert.Contains(t, kinds(rec.Events), KindClick)
}

// --- input / change / focus / files ---

func TestValueHandlersRecordTruncatedValues(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	long := make([]rune, maxValueRunes+50)
	for i := range long {
		long[i] = 'v'
	}
	te.HandleInput(te.node(t, "#price"), string(long))
	te.HandleChange(te.node(t, "#make"), "Toyota")
	te.HandleFileSelect(te.node(t, "#title"), []string{"a.jpg", "b.jpg"})

	events := te.Events(0)
	n := len(events)
	require.GreaterOrEqual(t, n, 4)

	input := events[n-3].Payload.(InputPayload)
	assert.Equal(t, maxValueRunes, len([]rune(input.Value)))

	change := events[n-2].Payload.(ChangePayload)
	assert.Equal(t, "Toyota", change.Value)

	files := events[n-1].Payload.(FileUploadPayload)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, files.Files)
}

func TestBlurFlushesTypingIntoSameTarget(t *testing.T) {
	te := newTestEngine(t, DefaultOptions())
	start(t, te)

	target := te.node(t, "#title")
	te.HandleKeyDown("y", target)
	te.HandleBlur(target)

	events := te.Events(0)
	n := len(events)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, KindTyping, events[n-2].Kind)
	assert.Equal(t, KindBlur, events[n-1].Kind)
}

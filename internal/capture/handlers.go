package capture

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/novahq/scribe/internal/classify"
	"github.com/novahq/scribe/internal/dom"
	"github.com/novahq/scribe/internal/locator"
)

// maxValueRunes bounds captured input values; replay substitutes
// caller-supplied data, the literal is only an example.
const maxValueRunes = 256

// HandleClick records a pointer click. In marking mode the click marks
// the target with the pending field and exits; with the modifier held
// (legacy path) the target is marked using the classifier's best guess.
func (e *Engine) HandleClick(n *dom.Node, mods ClickModifiers) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}

	// Clicking a different target ends any in-progress typing run.
	if s.keyBuf.node != nil && !s.keyBuf.node.Same(n) {
		e.flushKeystrokesLocked(false)
	}

	desc, field := e.describeLocked(n)

	if pending, ok := e.marking.consumeClick(); ok {
		e.addMarkLocked(desc, pending)
		e.recordLocked(KindClick, desc, pending, ClickPayload{
			Button: mods.Button, AltKey: mods.Alt, X: mods.X, Y: mods.Y,
		})
		return
	}

	if mods.Alt {
		// Legacy modifier-click. In a key-forwarding host the Alt
		// keydown has already raised the palette; a click on the page
		// dismisses it and marks with the heuristic guess.
		e.marking.dismissGrid()
		if field != classify.FieldNone && desc != nil {
			e.addMarkLocked(desc, field)
		}
	}

	e.recordLocked(KindClick, desc, field, ClickPayload{
		Button: mods.Button, AltKey: mods.Alt, X: mods.X, Y: mods.Y,
	})
}

// HandleKeyDown routes one key press: marking-mode control keys first,
// then special keys (emitted immediately), then printable keys into the
// keystroke buffer.
func (e *Engine) HandleKeyDown(key string, target *dom.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}

	if key == e.markingModifier() {
		e.marking.modifierDown()
		return
	}
	if key == "Escape" && e.marking.state != MarkingIdle {
		e.marking.cancel()
		return
	}
	if field, ok := e.marking.shortcut(key); ok {
		e.marking.selectEntry(field)
		return
	}

	if !printableKey(key) {
		// Special keys are discrete semantic actions; never buffered.
		e.flushKeystrokesLocked(false)
		desc, field := e.describeLocked(target)
		e.recordLocked(KindKeypress, desc, field, KeypressPayload{Key: key})
		return
	}

	e.bufferKeystrokeLocked(key, target)
}

// HandleKeyUp completes modifier-driven marking transitions.
func (e *Engine) HandleKeyUp(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}
	if key == e.markingModifier() {
		e.marking.modifierUp()
	}
}

// HandleGridHover tracks which palette entry the pointer is over, so
// releasing the modifier can commit it.
func (e *Engine) HandleGridHover(field classify.FieldType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return
	}
	e.marking.hover(field)
}

// SelectMarkingField commits a palette entry by pointer.
func (e *Engine) SelectMarkingField(field classify.FieldType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return
	}
	e.marking.selectEntry(field)
}

// CancelMarking aborts marking mode explicitly.
func (e *Engine) CancelMarking() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.marking.cancel()
}

// MarkField is the programmatic marking path: resolve the locator
// against the current snapshot and mark the matched target.
func (e *Engine) MarkField(field classify.FieldType, selector string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ErrNoSession
	}
	if !classify.Known(field) {
		return ErrUnknownField
	}
	if e.doc == nil {
		return ErrLocatorUnresolved
	}
	n := e.doc.Find(selector)
	if n == nil {
		return ErrLocatorUnresolved
	}
	desc, _ := e.describeLocked(n)
	if desc == nil {
		return ErrLocatorUnresolved
	}
	e.addMarkLocked(desc, field)
	e.recordLocked(KindMarker, desc, field, MarkerPayload{Note: "markField:" + string(field)})
	return nil
}

// HandleInput records a committed input value.
func (e *Engine) HandleInput(n *dom.Node, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}
	desc, field := e.describeLocked(n)
	e.recordLocked(KindInput, desc, field, InputPayload{Value: truncateValue(value)})
}

// HandleChange records a change notification (selects, checkboxes).
func (e *Engine) HandleChange(n *dom.Node, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}
	desc, field := e.describeLocked(n)
	e.recordLocked(KindChange, desc, field, ChangePayload{Value: truncateValue(value)})
}

// HandleFocus records focus moving onto a target.
func (e *Engine) HandleFocus(n *dom.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}
	desc, field := e.describeLocked(n)
	e.recordLocked(KindFocus, desc, field, FocusPayload{})
}

// HandleBlur flushes any typing run into the blurred target, then
// records the blur.
func (e *Engine) HandleBlur(n *dom.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}
	if s.keyBuf.node != nil && s.keyBuf.node.Same(n) {
		e.flushKeystrokesLocked(false)
	}
	desc, field := e.describeLocked(n)
	e.recordLocked(KindBlur, desc, field, BlurPayload{})
}

// HandleFileSelect records a file-picker selection (names only).
func (e *Engine) HandleFileSelect(n *dom.Node, files []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}
	desc, field := e.describeLocked(n)
	e.recordLocked(KindFileUpload, desc, field, FileUploadPayload{Files: files})
}

// HandleFileDrop records files dropped onto a target.
func (e *Engine) HandleFileDrop(n *dom.Node, files []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}
	desc, field := e.describeLocked(n)
	e.recordLocked(KindFileDrop, desc, field, FileDropPayload{Files: files})
}

// HandleScroll coalesces rapid scroll notifications into one event per
// debounce window. Any scroll, down to a 1px wheel delta, exits
// marking mode under the default policy.
func (e *Engine) HandleScroll(st ScrollState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused {
		return
	}

	e.marking.scrolled()

	acc := &s.scroll
	if !acc.active {
		acc.active = true
		acc.payload = ScrollPayload{}
	}
	acc.payload.X = st.X
	acc.payload.Y = st.Y
	acc.payload.DeltaX += st.DeltaX
	acc.payload.DeltaY += st.DeltaY
	acc.payload.ViewportW = st.ViewportW
	acc.payload.ViewportH = st.ViewportH
	acc.payload.DocW = st.DocW
	acc.payload.DocH = st.DocH

	if acc.task != nil {
		acc.task.Cancel()
	}
	acc.gen++
	gen := acc.gen
	acc.task = e.sched.Schedule(e.opts.ScrollDebounce, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.sess == nil || e.sess.scroll.gen != gen {
			return
		}
		e.flushScrollLocked()
	})
}

// HandleMutations ingests a batch of structural-change notifications,
// debounced and classified into coarse categories at flush time.
func (e *Engine) HandleMutations(batch []Mutation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.paused || len(batch) == 0 {
		return
	}

	acc := &s.mut
	if acc.counts == nil {
		acc.counts = make(map[MutationCategory]int)
	}
	for _, m := range batch {
		acc.counts[classifyMutation(m)]++
		acc.total++
	}

	if acc.task != nil {
		acc.task.Cancel()
	}
	acc.gen++
	gen := acc.gen
	acc.task = e.sched.Schedule(e.opts.MutationDebounce, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.sess == nil || e.sess.mut.gen != gen {
			return
		}
		e.flushMutationsLocked()
	})
}

// SetTabInfo registers or refreshes a surface's identity.
func (e *Engine) SetTabInfo(ctx TabContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil {
		return
	}
	if ctx.Type == "" {
		ctx.Type = classifyTabType(ctx.URL)
	}
	ts, ok := s.tabs[ctx.TabID]
	if !ok {
		ts = &tabState{}
		s.tabs[ctx.TabID] = ts
		s.tabOrder = append(s.tabOrder, ctx.TabID)
		s.tabSeq = append(s.tabSeq, e.tabSeqEntryLocked("registered", ctx))
	}
	ts.ctx = ctx
	if s.activeTab == "" {
		s.activeTab = ctx.TabID
	}
}

// TabActivated threads a surface switch into both the timeline and the
// causal tab sequence.
func (e *Engine) TabActivated(tabID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil {
		return
	}
	from := s.activeTab
	if from == tabID {
		return
	}
	ts, ok := s.tabs[tabID]
	if !ok {
		ts = &tabState{ctx: TabContext{TabID: tabID, Type: "unknown", Index: len(s.tabs)}}
		s.tabs[tabID] = ts
		s.tabOrder = append(s.tabOrder, tabID)
	}
	s.activeTab = tabID
	s.tabSeq = append(s.tabSeq, e.tabSeqEntryLocked("activated", ts.ctx))
	e.recordLocked(KindTabSwitch, nil, classify.FieldNone, TabSwitchPayload{
		Action: "activated", FromTab: from, ToTab: tabID,
	})
}

// TabCreated registers a new surface and records its creation.
func (e *Engine) TabCreated(ctx TabContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil {
		return
	}
	if ctx.Type == "" {
		ctx.Type = classifyTabType(ctx.URL)
	}
	if _, ok := s.tabs[ctx.TabID]; !ok {
		s.tabs[ctx.TabID] = &tabState{ctx: ctx}
		s.tabOrder = append(s.tabOrder, ctx.TabID)
	} else {
		s.tabs[ctx.TabID].ctx = ctx
	}
	s.tabSeq = append(s.tabSeq, e.tabSeqEntryLocked("created", ctx))
	e.recordLocked(KindTabSwitch, nil, classify.FieldNone, TabSwitchPayload{
		Action: "created", FromTab: s.activeTab, ToTab: ctx.TabID,
	})
}

// TabClosed records a surface closing. Its event grouping survives for
// the artifact.
func (e *Engine) TabClosed(tabID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil {
		return
	}
	ts, ok := s.tabs[tabID]
	if !ok {
		return
	}
	s.tabSeq = append(s.tabSeq, e.tabSeqEntryLocked("closed", ts.ctx))
	e.recordLocked(KindTabSwitch, nil, classify.FieldNone, TabSwitchPayload{
		Action: "closed", FromTab: tabID,
	})
	if s.activeTab == tabID {
		s.activeTab = ""
	}
}

// --- internals ---

func (e *Engine) markingModifier() string {
	if e.opts.MarkingModifier == "" {
		return "Alt"
	}
	return e.opts.MarkingModifier
}

func (e *Engine) addMarkLocked(desc *locator.Descriptor, field classify.FieldType) {
	s := e.sess
	if s == nil || desc == nil {
		return
	}
	s.marks = append(s.marks, MarkedTarget{
		Descriptor: desc,
		Field:      field,
		Sequence:   len(s.marks) + 1,
		RecordedAt: e.clock.Now(),
	})
	e.log.Debug("target marked",
		zap.String("field", string(field)),
		zap.String("locator", desc.Primary()))
}

// bufferKeystrokeLocked appends a printable rune, flushing first when
// the target changed, and (re)arms the idle flush.
func (e *Engine) bufferKeystrokeLocked(key string, target *dom.Node) {
	s := e.sess
	buf := &s.keyBuf

	if buf.node != nil && !buf.node.Same(target) {
		e.flushKeystrokesLocked(false)
	}
	if buf.node == nil {
		buf.node = target
		buf.desc, _ = e.describeLocked(target)
		buf.started = e.clock.Now()
	}
	r, _ := utf8.DecodeRuneInString(key)
	if r != utf8.RuneError {
		buf.text = append(buf.text, r)
	}

	if buf.task != nil {
		buf.task.Cancel()
	}
	buf.gen++
	gen := buf.gen
	buf.task = e.sched.Schedule(e.opts.KeyIdleFlush, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.sess == nil || e.sess.keyBuf.gen != gen {
			return
		}
		e.flushKeystrokesLocked(false)
	})
}

// flushKeystrokesLocked emits the buffered run as one typing event.
// While paused the buffer is retained (not lost, not emitted) unless
// force is set, which only session stop uses.
func (e *Engine) flushKeystrokesLocked(force bool) {
	s := e.sess
	if s == nil {
		return
	}
	buf := &s.keyBuf
	if len(buf.text) == 0 {
		buf.node = nil
		buf.desc = nil
		return
	}
	if s.paused && !force {
		return
	}

	text := string(buf.text)
	dur := e.clock.Now().Sub(buf.started).Milliseconds()
	desc := buf.desc
	var field classify.FieldType
	if desc != nil {
		field = e.classifier.Classify(desc)
	}

	if buf.task != nil {
		buf.task.Cancel()
	}
	buf.gen++
	*buf = keystrokeBuffer{gen: buf.gen}

	// Emit even while force-flushing a paused session: stop must not
	// drop trailing text.
	wasPaused := s.paused
	s.paused = false
	e.recordLocked(KindTyping, desc, field, TypingPayload{Text: text, DurationMs: dur})
	s.paused = wasPaused
}

// flushScrollLocked emits the coalesced scroll burst.
func (e *Engine) flushScrollLocked() {
	s := e.sess
	if s == nil || !s.scroll.active {
		return
	}
	payload := s.scroll.payload
	if s.scroll.task != nil {
		s.scroll.task.Cancel()
	}
	s.scroll.gen++
	s.scroll = scrollAccumulator{gen: s.scroll.gen}
	e.recordLocked(KindScroll, nil, classify.FieldNone, payload)
}

// flushMutationsLocked emits one domChange event for the burst, tagged
// with the dominant category.
func (e *Engine) flushMutationsLocked() {
	s := e.sess
	if s == nil || s.mut.total == 0 {
		return
	}
	category := dominantCategory(s.mut.counts)
	total := s.mut.total
	if s.mut.task != nil {
		s.mut.task.Cancel()
	}
	s.mut.gen++
	s.mut = mutationAccumulator{gen: s.mut.gen, counts: make(map[MutationCategory]int)}
	e.recordLocked(KindDOMChange, nil, classify.FieldNone, DOMChangePayload{
		Category: category,
		Count:    total,
	})
}

// scheduleNavPollLocked arms the low-frequency address poll.
func (e *Engine) scheduleNavPollLocked() {
	s := e.sess
	if s == nil || e.urlSource == nil || e.opts.NavPollInterval <= 0 {
		return
	}
	s.navGen++
	gen := s.navGen
	s.navTask = e.sched.Schedule(e.opts.NavPollInterval, func() { e.navTick(gen) })
}

func (e *Engine) navTick(gen uint64) {
	url := e.urlSource()

	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil || s.navGen != gen {
		return
	}
	if url != s.lastURL {
		from := s.lastURL
		s.lastURL = url
		if ts, ok := s.tabs[s.activeTab]; ok {
			ts.ctx.URL = url
			ts.ctx.Type = classifyTabType(url)
		}
		e.recordLocked(KindNavigation, nil, classify.FieldNone, NavigationPayload{
			FromURL: from,
			ToURL:   url,
			Intent:  classifyNavigationIntent(url),
		})
	}
	s.navTask = e.sched.Schedule(e.opts.NavPollInterval, func() { e.navTick(gen) })
}

// classifyMutation maps one raw mutation to a coarse category.
func classifyMutation(m Mutation) MutationCategory {
	if m.Kind == "attributes" {
		if m.Attribute == "aria-expanded" {
			return MutationExpandableToggled
		}
		return MutationChildListChanged
	}
	if m.Target != nil {
		switch m.Target.Role() {
		case "dialog", "alertdialog":
			return MutationDialogOpened
		case "listbox", "menu", "option":
			return MutationOptionPanelOpened
		}
		if m.Target.IsExpandable() {
			return MutationOptionPanelOpened
		}
	}
	return MutationChildListChanged
}

// dominantCategory picks the burst label: a dialog or option panel
// opening outranks generic churn.
func dominantCategory(counts map[MutationCategory]int) MutationCategory {
	for _, c := range []MutationCategory{
		MutationDialogOpened,
		MutationOptionPanelOpened,
		MutationExpandableToggled,
	} {
		if counts[c] > 0 {
			return c
		}
	}
	return MutationChildListChanged
}

// printableKey reports whether a key value is a single printable rune.
func printableKey(key string) bool {
	return utf8.RuneCountInString(key) == 1
}

func truncateValue(v string) string {
	runes := []rune(v)
	if len(runes) <= maxValueRunes {
		return v
	}
	return string(runes[:maxValueRunes])
}

// Package capture implements the interaction-capture engine: a reactive
// state machine that normalizes host-forwarded gestures into a typed,
// bounded event timeline with debounced keystroke/scroll/mutation paths,
// an operator marking mode, and multi-surface correlation.
//
// The engine is driven entirely by its handler methods; nothing runs
// unless the host forwards a gesture or a scheduled debounce fires. All
// entry points serialize on one mutex, so handlers never observe each
// other mid-flight. Handlers must stay short: they run on the host's
// event path.
package capture

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/novahq/scribe/internal/classify"
	"github.com/novahq/scribe/internal/dom"
	"github.com/novahq/scribe/internal/locator"
)

// Caller-misuse sentinels, reported synchronously and never panicked.
var (
	ErrSessionActive     = errors.New("a capture session is already active")
	ErrNoSession         = errors.New("no active capture session")
	ErrLocatorUnresolved = errors.New("locator resolves to nothing")
	ErrUnknownField      = errors.New("unknown field type")
)

// Options are the engine's tunable capture knobs.
type Options struct {
	// BufferCeiling caps the event timeline; oldest entries evict first.
	BufferCeiling int
	// KeyIdleFlush flushes the keystroke buffer after typing pauses.
	KeyIdleFlush time.Duration
	// ScrollDebounce coalesces rapid scroll notifications.
	ScrollDebounce time.Duration
	// MutationDebounce coalesces structural-change notifications.
	MutationDebounce time.Duration
	// NavPollInterval is the address-change poll period.
	NavPollInterval time.Duration
	// MarkingModifier is the key that opens the marking grid.
	MarkingModifier string
	// ExitMarkingOnScroll makes any scroll leave MarkingActive. Policy,
	// not invariant: tunable via config.
	ExitMarkingOnScroll bool
	// EventsLimit bounds GetEvents introspection results.
	EventsLimit int
}

// DefaultOptions mirrors the recorder's production defaults.
func DefaultOptions() Options {
	return Options{
		BufferCeiling:       1000,
		KeyIdleFlush:        500 * time.Millisecond,
		ScrollDebounce:      100 * time.Millisecond,
		MutationDebounce:    100 * time.Millisecond,
		NavPollInterval:     500 * time.Millisecond,
		MarkingModifier:     "Alt",
		ExitMarkingOnScroll: true,
		EventsLimit:         200,
	}
}

// StartOptions parameterize a new session.
type StartOptions struct {
	Mode          string `json:"mode"`
	RecordingType string `json:"recordingType"`
}

// ClickModifiers carry pointer-event details into HandleClick.
type ClickModifiers struct {
	Button string
	Alt    bool
	X, Y   float64
}

// ScrollState is one raw scroll notification from the host.
type ScrollState struct {
	X, Y           float64
	DeltaX, DeltaY float64
	ViewportW      float64
	ViewportH      float64
	DocW           float64
	DocH           float64
}

// Mutation is one raw structural-change notification.
type Mutation struct {
	Kind      string // childList | attributes
	Attribute string // changed attribute, for attribute mutations
	Target    *dom.Node
}

// Engine owns all capture state for one monitored context. Multiple
// engines coexist without interference; there is no package-level
// state.
type Engine struct {
	mu sync.Mutex

	opts       Options
	log        *zap.Logger
	clock      Clock
	sched      Scheduler
	classifier *classify.Classifier
	marking    *markingMachine
	notify     Notifier
	urlSource  func() string

	doc  *dom.Document
	sess *session
}

// session is the per-run mutable aggregate, discarded on Stop.
type session struct {
	id            string
	mode          string
	recordingType string
	startedAt     time.Time
	paused        bool
	lastRel       int64

	events *ring
	marks  []MarkedTarget
	counts map[Kind]int

	tabs      map[string]*tabState
	tabOrder  []string
	tabSeq    []TabSequenceEntry
	activeTab string

	keyBuf  keystrokeBuffer
	scroll  scrollAccumulator
	mut     mutationAccumulator
	lastURL string
	navTask Task
	navGen  uint64
}

type keystrokeBuffer struct {
	node    *dom.Node
	desc    *locator.Descriptor
	text    []rune
	started time.Time
	task    Task
	gen     uint64
}

type scrollAccumulator struct {
	active  bool
	payload ScrollPayload
	task    Task
	gen     uint64
}

type mutationAccumulator struct {
	counts map[MutationCategory]int
	total  int
	task   Task
	gen    uint64
}

// Option customizes an Engine at construction.
type Option func(*Engine)

func WithLogger(log *zap.Logger) Option     { return func(e *Engine) { e.log = log } }
func WithClock(c Clock) Option              { return func(e *Engine) { e.clock = c } }
func WithScheduler(s Scheduler) Option      { return func(e *Engine) { e.sched = s } }
func WithNotifier(n Notifier) Option        { return func(e *Engine) { e.notify = n } }
func WithURLSource(fn func() string) Option { return func(e *Engine) { e.urlSource = fn } }
func WithClassifier(c *classify.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithOverlay installs the marking-mode renderer.
func WithOverlay(o Overlay) Option {
	return func(e *Engine) { e.marking = newMarkingMachine(o, e.opts.ExitMarkingOnScroll) }
}

// NewEngine constructs an idle engine.
func NewEngine(opts Options, extra ...Option) *Engine {
	if opts.BufferCeiling <= 0 {
		opts.BufferCeiling = DefaultOptions().BufferCeiling
	}
	e := &Engine{
		opts:       opts,
		log:        zap.NewNop(),
		clock:      SystemClock{},
		sched:      TimerScheduler{},
		classifier: classify.NewClassifier(),
	}
	e.marking = newMarkingMachine(NopOverlay{}, opts.ExitMarkingOnScroll)
	for _, o := range extra {
		o(e)
	}
	return e
}

// SetDocument replaces the mirrored element tree snapshot.
func (e *Engine) SetDocument(doc *dom.Document) {
	e.mu.Lock()
	e.doc = doc
	e.mu.Unlock()
}

// Active reports whether a session is running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess != nil
}

// Start begins a new capture session. Starting while one is active is a
// reported conflict, never a queue.
func (e *Engine) Start(opts StartOptions) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != nil {
		return "", ErrSessionActive
	}

	now := e.clock.Now()
	s := &session{
		id:            uuid.NewString(),
		mode:          opts.Mode,
		recordingType: opts.RecordingType,
		startedAt:     now,
		events:        newRing(e.opts.BufferCeiling),
		counts:        make(map[Kind]int),
		tabs:          make(map[string]*tabState),
	}
	s.mut.counts = make(map[MutationCategory]int)
	e.sess = s

	if e.urlSource != nil {
		s.lastURL = e.urlSource()
	}

	e.recordLocked(KindSessionStart, nil, classify.FieldNone, SessionStartPayload{
		Mode:          opts.Mode,
		RecordingType: opts.RecordingType,
	})
	e.scheduleNavPollLocked()

	e.log.Info("capture session started",
		zap.String("session_id", s.id),
		zap.String("mode", opts.Mode),
		zap.String("recording_type", opts.RecordingType))
	return s.id, nil
}

// Stop finalizes the session: synchronously flushes every buffered
// path, emits sessionEnd, cancels background work, and returns the
// frozen recording. Stopping while inactive is an idempotent no-op
// returning (nil, nil).
func (e *Engine) Stop() (*Recording, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sess
	if s == nil {
		return nil, nil
	}

	// Trailing partial data is lost unless buffers flush before the
	// timeline freezes. A paused session still finalizes fully.
	s.paused = false
	e.flushKeystrokesLocked(true)
	e.flushScrollLocked()
	e.flushMutationsLocked()
	e.cancelTimersLocked()
	e.marking.reset()

	e.recordLocked(KindSessionEnd, nil, classify.FieldNone, SessionEndPayload{
		EventCount: s.events.len(),
		MarkCount:  len(s.marks),
	})

	events := s.events.events()
	rec := &Recording{
		SessionID:     s.id,
		Mode:          s.mode,
		RecordingType: s.recordingType,
		StartedAt:     s.startedAt,
		StoppedAt:     e.clock.Now(),
		Events:        events,
		EvictedCount:  s.events.evicted,
		Marks:         append([]MarkedTarget(nil), s.marks...),
		Tabs:          summarizeTabs(s.tabs, s.tabOrder, events),
		TabSequence:   append([]TabSequenceEntry(nil), s.tabSeq...),
		Counts:        s.counts,
	}
	e.sess = nil

	e.log.Info("capture session stopped",
		zap.String("session_id", rec.SessionID),
		zap.Int("events", len(rec.Events)),
		zap.Int("marks", len(rec.Marks)))
	return rec, nil
}

// Pause suppresses event recording without losing buffered state.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ErrNoSession
	}
	e.sess.paused = true
	return nil
}

// Resume re-enables recording.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ErrNoSession
	}
	e.sess.paused = false
	return nil
}

// AddMarker injects an operator annotation into the timeline.
func (e *Engine) AddMarker(note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ErrNoSession
	}
	e.recordLocked(KindMarker, nil, classify.FieldNone, MarkerPayload{Note: note})
	return nil
}

// Status returns the introspection snapshot.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{MarkingState: e.marking.state}
	if e.sess == nil {
		return st
	}
	st.Active = true
	st.Paused = e.sess.paused
	st.SessionID = e.sess.id
	st.Mode = e.sess.mode
	st.RecordingType = e.sess.recordingType
	st.StartedAt = e.sess.startedAt
	st.EventCount = e.sess.events.len()
	st.MarkCount = len(e.sess.marks)
	st.TabCount = len(e.sess.tabs)
	return st
}

// Events returns up to limit of the newest timeline entries. The result
// size is bounded by Options.EventsLimit regardless of limit.
func (e *Engine) Events(limit int) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	max := e.opts.EventsLimit
	if max <= 0 {
		max = DefaultOptions().EventsLimit
	}
	if limit <= 0 || limit > max {
		limit = max
	}
	return e.sess.events.tail(limit)
}

// Marks returns a copy of the session's marked targets.
func (e *Engine) Marks() []MarkedTarget {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	return append([]MarkedTarget(nil), e.sess.marks...)
}

// MarkingState exposes the marking machine state for introspection.
func (e *Engine) MarkingState() MarkingState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.marking.state
}

// recordLocked appends an event to the timeline, the owning tab's event
// list, and the live-progress stream. Callers hold e.mu.
func (e *Engine) recordLocked(kind Kind, target *locator.Descriptor, field classify.FieldType, payload Payload) *Event {
	s := e.sess
	if s == nil || s.paused {
		return nil
	}

	now := e.clock.Now()
	rel := now.Sub(s.startedAt).Milliseconds()
	if rel < s.lastRel {
		rel = s.lastRel // relativeTime is strictly non-decreasing
	}
	s.lastRel = rel

	ev := Event{
		ID:         eventID(),
		Kind:       kind,
		Timestamp:  now,
		RelativeMs: rel,
		Target:     target,
		Field:      field,
		Payload:    payload,
	}
	if ts, ok := s.tabs[s.activeTab]; ok {
		ev.Tab = ts.ctx
	}

	s.events.append(ev)
	s.counts[kind]++
	if ts, ok := s.tabs[s.activeTab]; ok {
		ts.eventIDs = append(ts.eventIDs, ev.ID)
	}

	e.notifyProgress(Progress{
		Event:      ev,
		EventCount: s.events.len(),
		MarkCount:  len(s.marks),
	})
	return &ev
}

// notifyProgress forwards a live-progress update. Failures must never
// block or abort capture, so panics are swallowed.
func (e *Engine) notifyProgress(p Progress) {
	if e.notify == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Debug("progress notifier panicked", zap.Any("panic", r))
		}
	}()
	e.notify(p)
}

// describe builds a descriptor, classifying best-effort.
func (e *Engine) describeLocked(n *dom.Node) (*locator.Descriptor, classify.FieldType) {
	d := locator.Build(n)
	if d == nil {
		return nil, classify.FieldNone
	}
	return d, e.classifier.Classify(d)
}

// cancelTimersLocked cancels every owned deferred task. Failing to
// cancel leaks a timer, so Stop always comes through here.
func (e *Engine) cancelTimersLocked() {
	s := e.sess
	if s == nil {
		return
	}
	if s.keyBuf.task != nil {
		s.keyBuf.task.Cancel()
		s.keyBuf.task = nil
	}
	if s.scroll.task != nil {
		s.scroll.task.Cancel()
		s.scroll.task = nil
	}
	if s.mut.task != nil {
		s.mut.task.Cancel()
		s.mut.task = nil
	}
	if s.navTask != nil {
		s.navTask.Cancel()
		s.navTask = nil
	}
	s.keyBuf.gen++
	s.scroll.gen++
	s.mut.gen++
	s.navGen++
}

// eventID generates a short event id, SCR- plus 8 random hex chars.
func eventID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("SCR-%08x", time.Now().UnixNano()&0xffffffff)
	}
	return "SCR-" + hex.EncodeToString(b)
}

package capture

import (
	"time"

	"github.com/novahq/scribe/internal/classify"
	"github.com/novahq/scribe/internal/locator"
)

// MarkedTarget is one explicit field assignment produced through the
// marking flow (grid, legacy modifier-click, or the MarkField command).
type MarkedTarget struct {
	Descriptor *locator.Descriptor `json:"descriptor"`
	Field      classify.FieldType  `json:"fieldType"`
	Sequence   int                 `json:"sequenceNumber"`
	RecordedAt time.Time           `json:"recordedAt"`
}

// Recording is the frozen output of a stopped session: everything the
// synthesizer needs, detached from live engine state.
type Recording struct {
	SessionID     string             `json:"sessionId"`
	Mode          string             `json:"mode"`
	RecordingType string             `json:"recordingType"`
	StartedAt     time.Time          `json:"startTime"`
	StoppedAt     time.Time          `json:"endTime"`
	Events        []Event            `json:"events"`
	EvictedCount  int64              `json:"evictedCount"`
	Marks         []MarkedTarget     `json:"markedTargets"`
	Tabs          []TabSummary       `json:"tabs"`
	TabSequence   []TabSequenceEntry `json:"tabSequence"`
	Counts        map[Kind]int       `json:"eventCounts"`
}

// Status is the read-only introspection snapshot for GetStatus.
type Status struct {
	Active        bool         `json:"active"`
	Paused        bool         `json:"paused"`
	SessionID     string       `json:"sessionId,omitempty"`
	Mode          string       `json:"mode,omitempty"`
	RecordingType string       `json:"recordingType,omitempty"`
	StartedAt     time.Time    `json:"startTime,omitempty"`
	EventCount    int          `json:"eventCount"`
	MarkCount     int          `json:"markCount"`
	TabCount      int          `json:"tabCount"`
	MarkingState  MarkingState `json:"markingState"`
}

// Progress is one live-progress notification, pushed per recorded
// event. Delivery is fire-and-forget.
type Progress struct {
	Event      Event `json:"event"`
	EventCount int   `json:"eventCount"`
	MarkCount  int   `json:"markCount"`
}

// Notifier receives live-progress pushes. It must not call back into
// the engine; failures (including panics) are swallowed.
type Notifier func(Progress)

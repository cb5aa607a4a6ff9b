package synth

import (
	"time"

	"github.com/novahq/scribe/internal/capture"
	"github.com/novahq/scribe/internal/classify"
)

// Patterns is the extracted workflow summary included in the artifact
// alongside the raw timeline.
type Patterns struct {
	EventCounts    map[capture.Kind]int `json:"eventCounts"`
	FieldsTouched  []classify.FieldType `json:"fieldsTouched"`
	NavigationFlow []string             `json:"navigationFlow"`
	TabSwitches    int                  `json:"tabSwitches"`
	TypingRuns     int                  `json:"typingRuns"`
}

// SessionMeta is the artifact's session header.
type SessionMeta struct {
	SessionID     string    `json:"sessionId"`
	Mode          string    `json:"mode"`
	RecordingType string    `json:"recordingType"`
	StartedAt     time.Time `json:"startTime"`
	StoppedAt     time.Time `json:"endTime"`
	DurationMs    int64     `json:"durationMs"`
	EvictedCount  int64     `json:"evictedCount"`
}

// Artifact is the sole durable output of a capture session.
type Artifact struct {
	Session     SessionMeta                `json:"session"`
	Events      []capture.Event            `json:"events"`
	Tabs        []capture.TabSummary       `json:"tabs"`
	TabSequence []capture.TabSequenceEntry `json:"tabSequence"`
	Marks       []capture.MarkedTarget     `json:"markedTargets"`
	Patterns    Patterns                   `json:"patterns"`
	Script      *Script                    `json:"script"`
}

// BuildArtifact assembles the full deliverable from a frozen recording.
func BuildArtifact(rec *capture.Recording) *Artifact {
	if rec == nil {
		return nil
	}
	return &Artifact{
		Session: SessionMeta{
			SessionID:     rec.SessionID,
			Mode:          rec.Mode,
			RecordingType: rec.RecordingType,
			StartedAt:     rec.StartedAt,
			StoppedAt:     rec.StoppedAt,
			DurationMs:    rec.StoppedAt.Sub(rec.StartedAt).Milliseconds(),
			EvictedCount:  rec.EvictedCount,
		},
		Events:      rec.Events,
		Tabs:        rec.Tabs,
		TabSequence: rec.TabSequence,
		Marks:       rec.Marks,
		Patterns:    extractPatterns(rec),
		Script:      Compile(rec),
	}
}

// extractPatterns summarizes the timeline for downstream consumers that
// want shape without replaying the full event list.
func extractPatterns(rec *capture.Recording) Patterns {
	p := Patterns{EventCounts: make(map[capture.Kind]int)}
	seen := make(map[classify.FieldType]bool)

	for _, ev := range rec.Events {
		p.EventCounts[ev.Kind]++
		if ev.Field != classify.FieldNone && !seen[ev.Field] {
			seen[ev.Field] = true
			p.FieldsTouched = append(p.FieldsTouched, ev.Field)
		}
		switch ev.Kind {
		case capture.KindNavigation:
			if nav, ok := ev.Payload.(capture.NavigationPayload); ok {
				p.NavigationFlow = append(p.NavigationFlow, nav.Intent)
			}
		case capture.KindTabSwitch:
			p.TabSwitches++
		case capture.KindTyping:
			p.TypingRuns++
		}
	}
	return p
}

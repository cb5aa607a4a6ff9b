// Package synth turns a frozen capture recording into the replayable
// automation artifact: an ordered, parameterized script with selector
// fallback chains and timing recommendations.
package synth

import (
	"math"

	"github.com/novahq/scribe/internal/capture"
	"github.com/novahq/scribe/internal/classify"
)

const (
	// maxWaitMs clamps observed inter-step gaps; a long think pause in
	// the recording should not stall replay.
	maxWaitMs = 2000
	// firstStepWaitMs is the default lead-in before the first step.
	firstStepWaitMs = 500
	// recommendedRatio scales mean human pacing down to a replay delay
	// with a safety margin.
	recommendedRatio = 0.8
)

// Step is one replayable action.
type Step struct {
	Index            int                `json:"index"`
	Action           string             `json:"action"` // click | fill | select
	Field            classify.FieldType `json:"fieldType,omitempty"`
	Selector         string             `json:"selector,omitempty"`
	Fallbacks        []string           `json:"fallbacks,omitempty"`
	WaitBeforeMs     int64              `json:"waitBefore"`
	ValuePlaceholder string             `json:"valuePlaceholder,omitempty"`
	ExampleValue     string             `json:"exampleValue,omitempty"`
	// Flagged marks a step with no resolvable selector. Such steps are
	// retained, not dropped; the consumer decides whether to skip.
	Flagged bool `json:"flagged,omitempty"`
}

// SelectorEntry is one field's locator chain.
type SelectorEntry struct {
	Primary   string   `json:"primary"`
	Fallbacks []string `json:"fallbacks,omitempty"`
}

// Timing summarizes observed click pacing.
type Timing struct {
	MeanMs        int64 `json:"meanMs"`
	MinMs         int64 `json:"minMs"`
	MaxMs         int64 `json:"maxMs"`
	RecommendedMs int64 `json:"recommendedMs"`
	Samples       int   `json:"samples"`
}

// Script is the compiled automation script. Produced once at session
// finalization; read-only thereafter.
type Script struct {
	Steps     []Step                               `json:"steps"`
	Timing    Timing                               `json:"timing"`
	Selectors map[classify.FieldType]SelectorEntry `json:"selectors"`
}

// CompileOptions tune compilation.
type CompileOptions struct {
	// PreferLatestMarks makes re-marks of a field type override earlier
	// ones. Default: the first occurrence is canonical.
	PreferLatestMarks bool
}

// Compile runs the synthesizer with default options.
func Compile(rec *capture.Recording) *Script {
	return CompileWith(rec, CompileOptions{})
}

// CompileWith walks the frozen timeline once and emits the script.
func CompileWith(rec *capture.Recording, opts CompileOptions) *Script {
	script := &Script{
		Selectors: make(map[classify.FieldType]SelectorEntry),
	}
	if rec == nil {
		return script
	}

	// 1. Seed the selector map from marked targets.
	for _, m := range rec.Marks {
		if m.Field == classify.FieldNone || m.Descriptor == nil {
			continue
		}
		if _, exists := script.Selectors[m.Field]; exists && !opts.PreferLatestMarks {
			continue
		}
		script.Selectors[m.Field] = SelectorEntry{
			Primary:   m.Descriptor.Primary(),
			Fallbacks: m.Descriptor.Fallbacks(),
		}
	}

	// 2. Emit steps for classified clicks; 3. bind values from the
	// typing/input events that follow each step.
	var prevRel int64
	havePrev := false
	for _, ev := range rec.Events {
		switch ev.Kind {
		case capture.KindClick:
			if ev.Field == classify.FieldNone {
				continue
			}
			step := Step{
				Index:        len(script.Steps) + 1,
				Action:       actionFor(ev),
				Field:        ev.Field,
				WaitBeforeMs: waitBefore(ev.RelativeMs, prevRel, havePrev),
			}
			step.Selector, step.Fallbacks = selectorFor(script.Selectors, ev)
			if step.Selector == "" {
				step.Flagged = true
			}
			script.Steps = append(script.Steps, step)
			prevRel = ev.RelativeMs
			havePrev = true

		case capture.KindTyping, capture.KindInput:
			if len(script.Steps) == 0 {
				continue
			}
			last := &script.Steps[len(script.Steps)-1]
			if ev.Field == classify.FieldNone || ev.Field != last.Field {
				continue
			}
			last.ValuePlaceholder = "{{" + string(ev.Field) + "}}"
			// The literal is a human-readable example, never the source
			// of truth: replay substitutes caller data.
			last.ExampleValue = exampleValue(ev)
			if last.Action == "click" {
				last.Action = "fill"
			}
		}
	}

	// 4. Timing statistics over all click events.
	script.Timing = computeTiming(rec.Events)
	return script
}

// actionFor maps a click target's control flags to a step action.
func actionFor(ev capture.Event) string {
	if ev.Target == nil {
		return "click"
	}
	if ev.Target.IsExpandable {
		return "select"
	}
	if ev.Target.IsFormControl {
		return "fill"
	}
	return "click"
}

// selectorFor prefers the marked selector chain for the step's field,
// falling back to the click target's own candidates.
func selectorFor(selectors map[classify.FieldType]SelectorEntry, ev capture.Event) (string, []string) {
	if entry, ok := selectors[ev.Field]; ok && entry.Primary != "" {
		return entry.Primary, entry.Fallbacks
	}
	if ev.Target != nil {
		return ev.Target.Primary(), ev.Target.Fallbacks()
	}
	return "", nil
}

func waitBefore(rel, prevRel int64, havePrev bool) int64 {
	if !havePrev {
		return firstStepWaitMs
	}
	delta := rel - prevRel
	if delta < 0 {
		delta = 0
	}
	if delta > maxWaitMs {
		delta = maxWaitMs
	}
	return delta
}

func exampleValue(ev capture.Event) string {
	switch p := ev.Payload.(type) {
	case capture.TypingPayload:
		return p.Text
	case capture.InputPayload:
		return p.Value
	}
	return ""
}

// computeTiming derives inter-click statistics and the recommended
// replay delay at recommendedRatio of observed mean pacing.
func computeTiming(events []capture.Event) Timing {
	var clicks []int64
	for _, ev := range events {
		if ev.Kind == capture.KindClick {
			clicks = append(clicks, ev.RelativeMs)
		}
	}
	if len(clicks) < 2 {
		return Timing{RecommendedMs: firstStepWaitMs}
	}

	var sum, min, max int64
	for i := 1; i < len(clicks); i++ {
		d := clicks[i] - clicks[i-1]
		sum += d
		if i == 1 || d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	n := int64(len(clicks) - 1)
	mean := float64(sum) / float64(n)
	return Timing{
		MeanMs:        int64(math.Round(mean)),
		MinMs:         min,
		MaxMs:         max,
		RecommendedMs: int64(math.Round(recommendedRatio * mean)),
		Samples:       int(n),
	}
}

package capture

import (
	"time"

	"github.com/novahq/scribe/internal/classify"
	"github.com/novahq/scribe/internal/locator"
)

// Kind discriminates interaction event payloads.
type Kind string

const (
	KindClick        Kind = "click"
	KindKeypress     Kind = "keypress"
	KindTyping       Kind = "typing"
	KindInput        Kind = "input"
	KindChange       Kind = "change"
	KindScroll       Kind = "scroll"
	KindFocus        Kind = "focus"
	KindBlur         Kind = "blur"
	KindFileUpload   Kind = "fileUpload"
	KindFileDrop     Kind = "fileDrop"
	KindNavigation   Kind = "navigation"
	KindDOMChange    Kind = "domChange"
	KindTabSwitch    Kind = "tabSwitch"
	KindMarker       Kind = "marker"
	KindSessionStart Kind = "sessionStart"
	KindSessionEnd   Kind = "sessionEnd"
)

// Payload is the per-kind half of the event sum type. Each payload
// struct reports its own kind so a payload can never be attached to an
// event of the wrong kind.
type Payload interface {
	PayloadKind() Kind
}

// ClickPayload carries pointer details for a click event.
type ClickPayload struct {
	Button string  `json:"button,omitempty"`
	AltKey bool    `json:"altKey,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (ClickPayload) PayloadKind() Kind { return KindClick }

// KeypressPayload is a single special (non-printable) key. Printable
// runs never appear as keypress events; they coalesce into typing.
type KeypressPayload struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers,omitempty"`
}

func (KeypressPayload) PayloadKind() Kind { return KindKeypress }

// TypingPayload is a coalesced run of printable keystrokes into one
// target.
type TypingPayload struct {
	Text       string `json:"text"`
	DurationMs int64  `json:"durationMs"`
}

func (TypingPayload) PayloadKind() Kind { return KindTyping }

// InputPayload mirrors a value-committed input notification.
type InputPayload struct {
	Value string `json:"value"`
}

func (InputPayload) PayloadKind() Kind { return KindInput }

// ChangePayload mirrors a change notification (selects, checkboxes).
type ChangePayload struct {
	Value string `json:"value"`
}

func (ChangePayload) PayloadKind() Kind { return KindChange }

// ScrollPayload is one debounced scroll burst: net position delta plus
// viewport and document extents at flush time.
type ScrollPayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	DeltaX    float64 `json:"deltaX"`
	DeltaY    float64 `json:"deltaY"`
	ViewportW float64 `json:"viewportWidth"`
	ViewportH float64 `json:"viewportHeight"`
	DocW      float64 `json:"documentWidth"`
	DocH      float64 `json:"documentHeight"`
}

func (ScrollPayload) PayloadKind() Kind { return KindScroll }

// FocusPayload / BlurPayload exist so focus events still carry a typed
// payload; they have no fields beyond the event's target.
type FocusPayload struct{}

func (FocusPayload) PayloadKind() Kind { return KindFocus }

type BlurPayload struct{}

func (BlurPayload) PayloadKind() Kind { return KindBlur }

// FileUploadPayload lists selected file names (never contents).
type FileUploadPayload struct {
	Files []string `json:"files"`
}

func (FileUploadPayload) PayloadKind() Kind { return KindFileUpload }

// FileDropPayload lists dropped file names.
type FileDropPayload struct {
	Files []string `json:"files"`
}

func (FileDropPayload) PayloadKind() Kind { return KindFileDrop }

// NavigationPayload records an address change detected by the poll.
type NavigationPayload struct {
	FromURL string `json:"fromUrl"`
	ToURL   string `json:"toUrl"`
	Intent  string `json:"intent"`
}

func (NavigationPayload) PayloadKind() Kind { return KindNavigation }

// MutationCategory coarsely classifies a structural-change burst.
type MutationCategory string

const (
	MutationDialogOpened      MutationCategory = "dialogOpened"
	MutationOptionPanelOpened MutationCategory = "optionPanelOpened"
	MutationExpandableToggled MutationCategory = "expandableToggled"
	MutationChildListChanged  MutationCategory = "childListChanged"
)

// DOMChangePayload is one debounced burst of structural changes.
type DOMChangePayload struct {
	Category MutationCategory `json:"category"`
	Count    int              `json:"count"`
}

func (DOMChangePayload) PayloadKind() Kind { return KindDOMChange }

// TabSwitchPayload records a surface lifecycle transition.
type TabSwitchPayload struct {
	Action  string `json:"action"` // activated | created | closed
	FromTab string `json:"fromTab,omitempty"`
	ToTab   string `json:"toTab,omitempty"`
}

func (TabSwitchPayload) PayloadKind() Kind { return KindTabSwitch }

// MarkerPayload is an operator annotation injected via AddMarker.
type MarkerPayload struct {
	Note string `json:"note"`
}

func (MarkerPayload) PayloadKind() Kind { return KindMarker }

// SessionStartPayload opens every timeline.
type SessionStartPayload struct {
	Mode          string `json:"mode"`
	RecordingType string `json:"recordingType"`
}

func (SessionStartPayload) PayloadKind() Kind { return KindSessionStart }

// SessionEndPayload closes every timeline.
type SessionEndPayload struct {
	EventCount int `json:"eventCount"`
	MarkCount  int `json:"markCount"`
}

func (SessionEndPayload) PayloadKind() Kind { return KindSessionEnd }

// Event is one immutable entry in the session timeline. RelativeMs is
// the canonical ordering key; the ring buffer guarantees it is
// non-decreasing across the retained set.
type Event struct {
	ID         string              `json:"id"`
	Kind       Kind                `json:"type"`
	Timestamp  time.Time           `json:"timestamp"`
	RelativeMs int64               `json:"relativeTime"`
	Target     *locator.Descriptor `json:"target,omitempty"`
	Field      classify.FieldType  `json:"fieldType,omitempty"`
	Tab        TabContext          `json:"tab"`
	Payload    Payload             `json:"payload,omitempty"`
}

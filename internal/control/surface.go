// Package control is the command/response boundary around the capture
// engine: the only surface the host process talks to. Commands are
// synchronous from the caller's perspective; caller misuse comes back
// as a structured failure, never a fault.
package control

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/novahq/scribe/internal/capture"
	"github.com/novahq/scribe/internal/classify"
	"github.com/novahq/scribe/internal/synth"
)

// Command names the recognized control operations.
type Command string

const (
	CmdPing            Command = "Ping"
	CmdStartRecording  Command = "StartRecording"
	CmdStopRecording   Command = "StopRecording"
	CmdPauseRecording  Command = "PauseRecording"
	CmdResumeRecording Command = "ResumeRecording"
	CmdAddMarker       Command = "AddMarker"
	CmdGetStatus       Command = "GetStatus"
	CmdGetEvents       Command = "GetEvents"
	CmdSetTabInfo      Command = "SetTabInfo"
	CmdTabActivated    Command = "TabActivated"
	CmdTabCreated      Command = "TabCreated"
	CmdTabClosed       Command = "TabClosed"
	CmdMarkField       Command = "MarkField"
)

// Request is the wire shape of one command. Unused fields are ignored
// per command.
type Request struct {
	Command Command              `json:"command"`
	Options capture.StartOptions `json:"options,omitempty"`
	Note    string               `json:"note,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
	Tab     *capture.TabContext  `json:"tab,omitempty"`
	TabID   string               `json:"tabId,omitempty"`
	Field   string               `json:"fieldType,omitempty"`
	Locator string               `json:"locator,omitempty"`
}

// Response is the wire shape of one reply.
type Response struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

func ok(data interface{}) Response { return Response{OK: true, Data: data} }
func fail(err error) Response      { return Response{OK: false, Error: err.Error()} }
func failf(f string, a ...interface{}) Response {
	return Response{OK: false, Error: fmt.Sprintf(f, a...)}
}

// Surface dispatches commands to one engine instance.
type Surface struct {
	engine *capture.Engine
	log    *zap.Logger

	// OnArtifact, when set, receives every finalized artifact before
	// the StopRecording response returns. Sink errors are logged, never
	// surfaced: persistence must not fail a stop.
	OnArtifact func(*synth.Artifact) error
}

// NewSurface wraps an engine.
func NewSurface(engine *capture.Engine, log *zap.Logger) *Surface {
	if log == nil {
		log = zap.NewNop()
	}
	return &Surface{engine: engine, log: log}
}

// Handle executes one command. It never panics across the boundary:
// the host's event processing must survive anything we do.
func (s *Surface) Handle(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("command handler panicked",
				zap.String("command", string(req.Command)),
				zap.Any("panic", r))
			resp = failf("internal error handling %s", req.Command)
		}
	}()

	switch req.Command {
	case CmdPing:
		return ok(map[string]interface{}{"active": s.engine.Active()})

	case CmdStartRecording:
		id, err := s.engine.Start(req.Options)
		if err != nil {
			return fail(err)
		}
		return ok(map[string]interface{}{"sessionId": id})

	case CmdStopRecording:
		rec, err := s.engine.Stop()
		if err != nil {
			return fail(err)
		}
		if rec == nil {
			return ok(map[string]interface{}{"active": false})
		}
		artifact := synth.BuildArtifact(rec)
		if s.OnArtifact != nil {
			if err := s.OnArtifact(artifact); err != nil {
				s.log.Warn("artifact sink failed",
					zap.String("session_id", artifact.Session.SessionID),
					zap.Error(err))
			}
		}
		return ok(artifact)

	case CmdPauseRecording:
		if err := s.engine.Pause(); err != nil {
			return fail(err)
		}
		return ok(nil)

	case CmdResumeRecording:
		if err := s.engine.Resume(); err != nil {
			return fail(err)
		}
		return ok(nil)

	case CmdAddMarker:
		if err := s.engine.AddMarker(req.Note); err != nil {
			return fail(err)
		}
		return ok(nil)

	case CmdGetStatus:
		return ok(s.engine.Status())

	case CmdGetEvents:
		return ok(map[string]interface{}{"events": s.engine.Events(req.Limit)})

	case CmdSetTabInfo:
		if req.Tab == nil {
			return failf("SetTabInfo requires a tab")
		}
		s.engine.SetTabInfo(*req.Tab)
		return ok(nil)

	case CmdTabActivated:
		s.engine.TabActivated(req.TabID)
		return ok(nil)

	case CmdTabCreated:
		if req.Tab == nil {
			return failf("TabCreated requires a tab")
		}
		s.engine.TabCreated(*req.Tab)
		return ok(nil)

	case CmdTabClosed:
		s.engine.TabClosed(req.TabID)
		return ok(nil)

	case CmdMarkField:
		if err := s.engine.MarkField(classify.FieldType(req.Field), req.Locator); err != nil {
			return fail(err)
		}
		return ok(nil)

	default:
		return failf("unknown command: %s", req.Command)
	}
}

package pipeline

import (
	"encoding/json"
	"fmt"
)

// State is the orchestrator's position in a run.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StatePreviewReady
	StateValidating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StatePreviewReady:
		return "preview_ready"
	case StateValidating:
		return "validating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// busy reports whether a run is in flight in this state.
func (s State) busy() bool {
	return s == StateCollecting || s == StateValidating
}

// Mode selects what Run does.
type Mode string

const (
	// ModePreview collects recipients without contacting the validation
	// service.
	ModePreview Mode = "preview"
	// ModeValidate collects and validates every recipient.
	ModeValidate Mode = "validate"
)

// ParseMode converts s to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePreview, ModeValidate:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

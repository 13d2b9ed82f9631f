package session

import (
	"errors"
	"fmt"
)

// State is a step of the interactive cycle.
type State int

const (
	AwaitReference State = iota
	LoadAudio
	ExtractEmbedding
	AwaitText
	Synthesize
	Vocode
	EmitOutput
)

var stateNames = [...]string{
	AwaitReference:   "AwaitReference",
	LoadAudio:        "LoadAudio",
	ExtractEmbedding: "ExtractEmbedding",
	AwaitText:        "AwaitText",
	Synthesize:       "Synthesize",
	Vocode:           "Vocode",
	EmitOutput:       "EmitOutput",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Next returns the state that follows s. EmitOutput wraps to AwaitReference.
func (s State) Next() State {
	if s >= EmitOutput || s < 0 {
		return AwaitReference
	}
	return s + 1
}

// ErrValidation marks a failed startup check.
var ErrValidation = errors.New("pipeline validation failed")

// StageError reports the state a cycle failed in.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

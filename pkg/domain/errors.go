package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a conversation id cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStoryNotFound is returned when a story name cannot be resolved by a loader.
var ErrStoryNotFound = errors.New("story not found")

// Configuration errors, detected once at load time.
var (
	ErrDuplicateState   = errors.New("duplicate state id")
	ErrSelfLoop         = errors.New("self-loop transition")
	ErrUnknownTarget    = errors.New("transition targets unknown state")
	ErrInvalidInitial   = errors.New("initial state is not a child")
	ErrMissingMachine   = errors.New("state machine is missing")
	ErrDuplicateAction  = errors.New("duplicate action name")
	ErrStateKeyMismatch = errors.New("nested state id differs from its key")
)

// Turn-resolution errors, fatal for the current turn only.
var (
	ErrNextStateNotFound     = errors.New("next state not found")
	ErrInvalidSelfTransition = errors.New("invalid self-transition")
	ErrUnknownAction         = errors.New("unknown action")
	ErrNoCandidate           = errors.New("no admissible action")
	ErrSilentLoop            = errors.New("silent chain exceeded maximum steps")
)

// ConfigurationError reports a structural problem in a story definition.
type ConfigurationError struct {
	Story   string
	StateID string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.StateID == "" {
		return fmt.Sprintf("story %q: %v", e.Story, e.Err)
	}
	return fmt.Sprintf("story %q state %q: %v", e.Story, e.StateID, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TurnPhase names the step of the turn in which an error happened.
type TurnPhase string

const (
	PhaseResolvePrimary   TurnPhase = "resolving_primary"
	PhaseResolveSecondary TurnPhase = "resolving_secondary"
	PhaseExecute          TurnPhase = "executing"
)

// TurnError reports a turn-resolution failure.
// The session passed to the processor is left untouched when one is returned.
type TurnError struct {
	Phase  TurnPhase
	State  string
	Intent string
	Action string
	Err    error
}

func (e *TurnError) Error() string {
	msg := fmt.Sprintf("turn failed while %s (state=%q", e.Phase, e.State)
	if e.Intent != "" {
		msg += fmt.Sprintf(" intent=%q", e.Intent)
	}
	if e.Action != "" {
		msg += fmt.Sprintf(" action=%q", e.Action)
	}
	return msg + "): " + e.Err.Error()
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// HandlerError wraps a failure raised by external handler code.
type HandlerError struct {
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %q failed: %v", e.Handler, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsTurnError reports whether err is a turn-resolution failure.
func IsTurnError(err error) bool {
	var te *TurnError
	return errors.As(err, &te)
}

package domain

import "slices"

// TickSession is the persisted, per-conversation state.
// It is treated as a value: the processor clones it on entry and returns a new
// snapshot, so a failed turn never leaks a half-updated session.
type TickSession struct {
	// CurrentState is the id of the last resolved state. Empty before the first turn.
	CurrentState string `json:"current_state"`

	// Contexts holds the accumulated context variable values.
	Contexts Contexts `json:"contexts"`

	// RanHandlers lists the actions whose handler already ran (set semantics).
	RanHandlers []string `json:"ran_handlers"`

	// ObjectivesStack holds the open primary objectives, top last.
	ObjectivesStack []string `json:"objectives_stack"`
}

// NewSession creates an empty session for a first contact.
func NewSession() TickSession {
	return TickSession{
		Contexts:        make(Contexts),
		RanHandlers:     []string{},
		ObjectivesStack: []string{},
	}
}

// Clone returns a deep copy of the session.
func (s TickSession) Clone() TickSession {
	next := s
	if s.Contexts == nil {
		next.Contexts = make(Contexts)
	} else {
		next.Contexts = s.Contexts.Clone()
	}
	next.RanHandlers = append([]string{}, s.RanHandlers...)
	next.ObjectivesStack = append([]string{}, s.ObjectivesStack...)
	return next
}

// Top returns the current focus of the objectives stack.
func (s TickSession) Top() (string, bool) {
	if len(s.ObjectivesStack) == 0 {
		return "", false
	}
	return s.ObjectivesStack[len(s.ObjectivesStack)-1], true
}

// Push opens a new objective on top of the stack.
func (s *TickSession) Push(objective string) {
	s.ObjectivesStack = append(s.ObjectivesStack, objective)
}

// Pop removes and returns the top objective.
func (s *TickSession) Pop() (string, bool) {
	top, ok := s.Top()
	if !ok {
		return "", false
	}
	s.ObjectivesStack = s.ObjectivesStack[:len(s.ObjectivesStack)-1]
	return top, true
}

// HasRun reports whether the named action already ran.
func (s TickSession) HasRun(name string) bool {
	return slices.Contains(s.RanHandlers, name)
}

// MarkRun records the named action, keeping RanHandlers sorted and unique.
func (s *TickSession) MarkRun(name string) {
	if s.HasRun(name) {
		return
	}
	s.RanHandlers = append(s.RanHandlers, name)
	slices.Sort(s.RanHandlers)
}

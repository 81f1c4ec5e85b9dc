package domain

import "slices"

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	CurrentState *string `json:"current_state,omitempty"`

	// Contexts contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Contexts Contexts `json:"contexts,omitempty"`

	// ObjectivesStack is the full new stack when it changed.
	ObjectivesStack []string `json:"objectives_stack,omitempty"`

	// RanHandlers lists handlers recorded since the old snapshot.
	RanHandlers []string `json:"ran_handlers,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession.
// Returns nil when nothing changed.
func Diff(oldSession, newSession *TickSession) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{}

	if oldSession == nil || oldSession.CurrentState != newSession.CurrentState {
		diff.CurrentState = &newSession.CurrentState
	}

	var oldContexts Contexts
	if oldSession != nil {
		oldContexts = oldSession.Contexts
	}
	diff.Contexts = DiffContexts(oldContexts, newSession.Contexts)

	if oldSession == nil || !slices.Equal(oldSession.ObjectivesStack, newSession.ObjectivesStack) {
		if len(newSession.ObjectivesStack) > 0 || oldSession != nil {
			diff.ObjectivesStack = append([]string{}, newSession.ObjectivesStack...)
		}
	}

	for _, name := range newSession.RanHandlers {
		if oldSession == nil || !oldSession.HasRun(name) {
			diff.RanHandlers = append(diff.RanHandlers, name)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// DiffContexts returns the added, modified and deleted keys between before and after.
// Deleted keys are reported with a nil value. Returns nil when nothing changed.
func DiffContexts(before, after Contexts) Contexts {
	delta := make(Contexts)

	for k, newVal := range after {
		oldVal, exists := before[k]
		if !exists || !sameValue(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range before {
		if _, exists := after[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentState == nil &&
		len(d.Contexts) == 0 &&
		d.ObjectivesStack == nil &&
		len(d.RanHandlers) == 0
}

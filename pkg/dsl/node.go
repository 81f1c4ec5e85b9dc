package dsl

import "github.com/aretw0/tickstory/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	state   *domain.State
	builder *Builder
}

// On adds a transition from this state to target on event.
func (s *StateBuilder) On(event, target string) *StateBuilder {
	s.state.On(event, target)
	return s
}

// Initial sets the child entered when this state is targeted.
func (s *StateBuilder) Initial(id string) *StateBuilder {
	s.state.Initial = id
	return s
}

// Child returns the builder of a nested state, creating it if needed.
// Ids are unique across the tree, so an existing id returns its builder wherever it lives.
func (s *StateBuilder) Child(id string) *StateBuilder {
	if existing, ok := s.builder.states[id]; ok {
		return existing
	}
	child := &StateBuilder{state: domain.NewState(id), builder: s.builder}
	s.state.AddChild(child.state)
	s.builder.states[id] = child
	return child
}

// Build returns the underlying domain.State.
func (s *StateBuilder) Build() *domain.State {
	return s.state
}

// ActionBuilder provides a fluent API for configuring an action.
type ActionBuilder struct {
	action domain.TickAction
}

// Answer sets the response template delivered when the action runs.
func (a *ActionBuilder) Answer(id string) *ActionBuilder {
	a.action.AnswerID = id
	return a
}

// Handler sets the registry handler invoked when the action runs.
func (a *ActionBuilder) Handler(name string) *ActionBuilder {
	a.action.Handler = name
	return a
}

// Needs adds preconditions. Prefix a name with "!" to require it unset.
func (a *ActionBuilder) Needs(contexts ...string) *ActionBuilder {
	a.action.Preconditions = append(a.action.Preconditions, contexts...)
	return a
}

// Produces adds postconditions.
func (a *ActionBuilder) Produces(contexts ...string) *ActionBuilder {
	a.action.Postconditions = append(a.action.Postconditions, contexts...)
	return a
}

// Silent marks the action as producing no visible output; the turn continues after it.
func (a *ActionBuilder) Silent() *ActionBuilder {
	a.action.Silent = true
	return a
}

// Final marks the action as ending the story.
func (a *ActionBuilder) Final() *ActionBuilder {
	a.action.Final = true
	return a
}

// Reentrant allows the action to run again after it already ran.
func (a *ActionBuilder) Reentrant() *ActionBuilder {
	a.action.Reentrant = true
	return a
}

// Build returns the underlying domain.TickAction.
func (a *ActionBuilder) Build() domain.TickAction {
	return a.action
}

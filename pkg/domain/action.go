package domain

import "strings"

// TickAction is one atomic unit of bot behavior.
// Actions are named after the state they pursue, so a TickAction whose Name equals
// the primary objective reaches that objective outright.
type TickAction struct {
	Name string `json:"name" yaml:"name"`

	// AnswerID references a response template delivered when the action runs.
	AnswerID string `json:"answer_id,omitempty" yaml:"answer_id,omitempty"`

	// Handler names an external side-effecting function looked up in the registry.
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`

	// Preconditions are context names that must be set (or unset, with a "!" prefix)
	// for the action to be admissible. Opaque to the processor.
	Preconditions []string `json:"preconditions,omitempty" yaml:"preconditions,omitempty"`

	// Postconditions are context names the action is expected to set.
	Postconditions []string `json:"postconditions,omitempty" yaml:"postconditions,omitempty"`

	// Silent actions produce no user-visible output and the turn continues.
	Silent bool `json:"silent,omitempty" yaml:"silent,omitempty"`

	// Final actions end the story.
	Final bool `json:"final,omitempty" yaml:"final,omitempty"`

	// Reentrant allows the solver to pick the action again after it already ran.
	Reentrant bool `json:"reentrant,omitempty" yaml:"reentrant,omitempty"`
}

// Satisfied reports whether every precondition holds against contexts.
func (a TickAction) Satisfied(contexts Contexts) bool {
	return len(a.Unmet(contexts)) == 0
}

// Unmet returns the preconditions that do not hold against contexts, in declaration order.
func (a TickAction) Unmet(contexts Contexts) []string {
	var unmet []string
	for _, cond := range a.Preconditions {
		if name, negated := strings.CutPrefix(cond, NegationPrefix); negated {
			if contexts.Has(name) {
				unmet = append(unmet, cond)
			}
			continue
		}
		if !contexts.Has(cond) {
			unmet = append(unmet, cond)
		}
	}
	return unmet
}

// Produces reports whether the action declares name among its postconditions.
func (a TickAction) Produces(name string) bool {
	for _, p := range a.Postconditions {
		if p == name {
			return true
		}
	}
	return false
}

// DeliveryMode tells the responder how an answer should reach the user.
type DeliveryMode string

const (
	// DeliveryVisible delivers the answer normally.
	DeliveryVisible DeliveryMode = "visible"
	// DeliveryDebug delivers the answer as an inspectable debug message, even for silent actions.
	DeliveryDebug DeliveryMode = "debug"
	// DeliverySuppressed records the answer without user-visible delivery.
	DeliverySuppressed DeliveryMode = "suppressed"
)

// AnswerRequest asks the response collaborator to deliver a templated answer.
type AnswerRequest struct {
	AnswerID string       `json:"answer_id"`
	Action   string       `json:"action"`
	Mode     DeliveryMode `json:"mode"`
	Contexts Contexts     `json:"contexts,omitempty"`
}

// UserAction is one incoming user turn as produced by the upstream NLU.
type UserAction struct {
	IntentName string `json:"intent"`

	// Entities maps an entity role to its extracted value.
	Entities map[string]string `json:"entities,omitempty"`
}

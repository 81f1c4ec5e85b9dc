package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart      EventType = "turn_start"
	EventObjective      EventType = "objective"
	EventActionExecuted EventType = "action_executed"
	EventContexts       EventType = "contexts"
	EventTurnEnd        EventType = "turn_end"
	EventTurnError      EventType = "turn_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Story     string    `json:"story"`
}

// TurnEvent marks the start or the end of a turn.
type TurnEvent struct {
	EventBase
	Intent   string        `json:"intent,omitempty"`
	State    string        `json:"state"`
	Depth    int           `json:"depth"`
	Steps    int           `json:"steps,omitempty"`
	Final    bool          `json:"final,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// ObjectiveEvent reports the primary and secondary objectives of one resolution step.
type ObjectiveEvent struct {
	EventBase
	Primary    string   `json:"primary"`
	Secondary  string   `json:"secondary"`
	Candidates []string `json:"candidates"`
	Stack      []string `json:"stack"`
}

// ActionEvent reports an executed action.
type ActionEvent struct {
	EventBase
	Action   string       `json:"action"`
	AnswerID string       `json:"answer_id,omitempty"`
	Handler  string       `json:"handler,omitempty"`
	Mode     DeliveryMode `json:"mode,omitempty"`
	Silent   bool         `json:"silent"`
	Final    bool         `json:"final"`
}

// ContextsEvent is the debug trace of the contexts around an action.
// Input events carry the full contexts, output events the delta produced by the action.
type ContextsEvent struct {
	EventBase
	Action    string   `json:"action"`
	Output    bool     `json:"output"`
	Contexts  Contexts `json:"contexts"`
	EndOfTurn bool     `json:"end_of_turn,omitempty"`
}

// TickHooks defines callbacks for processor observability.
type TickHooks struct {
	OnTurnStart      func(context.Context, *TurnEvent)
	OnObjective      func(context.Context, *ObjectiveEvent)
	OnActionExecuted func(context.Context, *ActionEvent)
	OnContexts       func(context.Context, *ContextsEvent)
	OnTurnEnd        func(context.Context, *TurnEvent)
	OnTurnError      func(context.Context, *TurnEvent)
}

// ComposeHooks fans every callback out to all the given hooks, in order.
func ComposeHooks(all ...TickHooks) TickHooks {
	return TickHooks{
		OnTurnStart: func(ctx context.Context, e *TurnEvent) {
			for _, h := range all {
				if h.OnTurnStart != nil {
					h.OnTurnStart(ctx, e)
				}
			}
		},
		OnObjective: func(ctx context.Context, e *ObjectiveEvent) {
			for _, h := range all {
				if h.OnObjective != nil {
					h.OnObjective(ctx, e)
				}
			}
		},
		OnActionExecuted: func(ctx context.Context, e *ActionEvent) {
			for _, h := range all {
				if h.OnActionExecuted != nil {
					h.OnActionExecuted(ctx, e)
				}
			}
		},
		OnContexts: func(ctx context.Context, e *ContextsEvent) {
			for _, h := range all {
				if h.OnContexts != nil {
					h.OnContexts(ctx, e)
				}
			}
		},
		OnTurnEnd: func(ctx context.Context, e *TurnEvent) {
			for _, h := range all {
				if h.OnTurnEnd != nil {
					h.OnTurnEnd(ctx, e)
				}
			}
		},
		OnTurnError: func(ctx context.Context, e *TurnEvent) {
			for _, h := range all {
				if h.OnTurnError != nil {
					h.OnTurnError(ctx, e)
				}
			}
		},
	}
}

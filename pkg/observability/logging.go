package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tickstory/pkg/domain"
)

// LoggingHooks logs every processor event on logger.
// Turn boundaries and actions log at Info, objectives and context traces at Debug.
func LoggingHooks(logger *slog.Logger) domain.TickHooks {
	return domain.TickHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.InfoContext(ctx, "turn_start", "story", e.Story, "intent", e.Intent, "state", e.State, "depth", e.Depth)
		},
		OnObjective: func(ctx context.Context, e *domain.ObjectiveEvent) {
			logger.DebugContext(ctx, "objective",
				"story", e.Story,
				"primary", e.Primary,
				"secondary", e.Secondary,
				"candidates", e.Candidates,
				"stack", e.Stack,
			)
		},
		OnActionExecuted: func(ctx context.Context, e *domain.ActionEvent) {
			logger.InfoContext(ctx, "action_executed",
				"story", e.Story,
				"action", e.Action,
				"answer_id", e.AnswerID,
				"handler", e.Handler,
				"mode", e.Mode,
				"silent", e.Silent,
				"final", e.Final,
			)
		},
		OnContexts: func(ctx context.Context, e *domain.ContextsEvent) {
			logger.DebugContext(ctx, "contexts",
				"story", e.Story,
				"action", e.Action,
				"output", e.Output,
				"contexts", e.Contexts.Plain(),
				"end_of_turn", e.EndOfTurn,
			)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			logger.InfoContext(ctx, "turn_end",
				"story", e.Story,
				"state", e.State,
				"steps", e.Steps,
				"final", e.Final,
				"duration", e.Duration,
			)
		},
		OnTurnError: func(ctx context.Context, e *domain.TurnEvent) {
			logger.WarnContext(ctx, "turn_error", "story", e.Story, "intent", e.Intent, "state", e.State, "error", e.Err)
		},
	}
}

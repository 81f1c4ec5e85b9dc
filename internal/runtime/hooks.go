package runtime

import (
	"context"
	"time"

	"github.com/aretw0/tickstory/pkg/domain"
)

func (p *Processor) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Story: p.config.Name}
}

func (p *Processor) emitTurnStart(ctx context.Context, intent string, s domain.TickSession) {
	if p.hooks.OnTurnStart == nil {
		return
	}
	p.hooks.OnTurnStart(ctx, &domain.TurnEvent{
		EventBase: p.base(domain.EventTurnStart),
		Intent:    intent,
		State:     s.CurrentState,
		Depth:     len(s.ObjectivesStack),
	})
}

func (p *Processor) emitTurnEnd(ctx context.Context, intent string, res *Result, d time.Duration) {
	if p.hooks.OnTurnEnd == nil {
		return
	}
	p.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
		EventBase: p.base(domain.EventTurnEnd),
		Intent:    intent,
		State:     res.Session.CurrentState,
		Depth:     len(res.Session.ObjectivesStack),
		Steps:     len(res.Steps),
		Final:     res.Final,
		Duration:  d,
	})
}

func (p *Processor) emitTurnError(ctx context.Context, intent string, s domain.TickSession, d time.Duration, err error) {
	if p.hooks.OnTurnError == nil {
		return
	}
	p.hooks.OnTurnError(ctx, &domain.TurnEvent{
		EventBase: p.base(domain.EventTurnError),
		Intent:    intent,
		State:     s.CurrentState,
		Depth:     len(s.ObjectivesStack),
		Duration:  d,
		Err:       err,
	})
}

func (p *Processor) emitObjective(ctx context.Context, primary, secondary string, candidates, stack []string) {
	if p.hooks.OnObjective == nil {
		return
	}
	p.hooks.OnObjective(ctx, &domain.ObjectiveEvent{
		EventBase:  p.base(domain.EventObjective),
		Primary:    primary,
		Secondary:  secondary,
		Candidates: candidates,
		Stack:      append([]string{}, stack...),
	})
}

func (p *Processor) emitAction(ctx context.Context, a domain.TickAction, mode domain.DeliveryMode) {
	if p.hooks.OnActionExecuted == nil {
		return
	}
	p.hooks.OnActionExecuted(ctx, &domain.ActionEvent{
		EventBase: p.base(domain.EventActionExecuted),
		Action:    a.Name,
		AnswerID:  a.AnswerID,
		Handler:   a.Handler,
		Mode:      mode,
		Silent:    a.Silent,
		Final:     a.Final,
	})
}

func (p *Processor) emitContexts(ctx context.Context, action string, output bool, contexts domain.Contexts, endOfTurn bool) {
	if p.hooks.OnContexts == nil {
		return
	}
	p.hooks.OnContexts(ctx, &domain.ContextsEvent{
		EventBase: p.base(domain.EventContexts),
		Action:    action,
		Output:    output,
		Contexts:  contexts,
		EndOfTurn: endOfTurn,
	})
}

package runtime

import (
	"context"

	"github.com/aretw0/tickstory/pkg/domain"
)

// execute runs the chosen action: answer delivery, handler call, context
// merge and bookkeeping in RanHandlers.
func (p *Processor) execute(ctx context.Context, s *domain.TickSession, a domain.TickAction, action *domain.UserAction) error {
	before := s.Contexts.Clone()
	if p.config.Debug {
		p.emitContexts(ctx, a.Name, false, before, false)
	}

	mode := p.deliveryMode(a)
	if a.AnswerID != "" && p.responder != nil {
		err := p.responder.Send(ctx, domain.AnswerRequest{
			AnswerID: a.AnswerID,
			Action:   a.Name,
			Mode:     mode,
			Contexts: s.Contexts.Clone(),
		})
		if err != nil {
			return p.turnError(domain.PhaseExecute, *s, action, a.Name, err)
		}
	}

	if a.Handler != "" {
		delta, err := p.handlers.Execute(ctx, a.Handler, s.Contexts)
		if err != nil {
			return p.turnError(domain.PhaseExecute, *s, action, a.Name, &domain.HandlerError{Handler: a.Handler, Err: err})
		}
		s.Contexts.Merge(delta)
	}

	if p.config.Debug {
		p.emitContexts(ctx, a.Name, true, domain.DiffContexts(before, s.Contexts), !a.Silent)
	}

	s.MarkRun(a.Name)

	p.logger.Debug("action executed",
		"story", p.config.Name,
		"action", a.Name,
		"handler", a.Handler,
		"mode", mode,
		"silent", a.Silent,
		"final", a.Final,
	)
	p.emitAction(ctx, a, mode)
	return nil
}

// deliveryMode decides how the answer of a reaches the user.
// Debug stories show every answer, silent actions are otherwise suppressed.
func (p *Processor) deliveryMode(a domain.TickAction) domain.DeliveryMode {
	switch {
	case p.config.Debug:
		return domain.DeliveryDebug
	case a.Silent:
		return domain.DeliverySuppressed
	default:
		return domain.DeliveryVisible
	}
}

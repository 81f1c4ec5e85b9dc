package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
)

// resolvePrimary determines the objective of the next step.
// With a user action the objective comes from the state machine; on a silent
// continuation it is the top of the objectives stack. The second return value is
// false when a continuation finds the stack empty.
func (p *Processor) resolvePrimary(s *domain.TickSession, action *domain.UserAction) (domain.TickAction, bool, error) {
	var objective string

	if action != nil {
		target := p.machine.Next(s.CurrentState, action.IntentName)
		if target == nil {
			return domain.TickAction{}, false, p.turnError(domain.PhaseResolvePrimary, *s, action, "", domain.ErrNextStateNotFound)
		}

		// Entering a group means pursuing its initial leaf.
		objective = p.machine.Initial(target.ID).ID
		if objective == s.CurrentState && !p.config.HasSingleAction() {
			return domain.TickAction{}, false, p.turnError(domain.PhaseResolvePrimary, *s, action, objective, domain.ErrInvalidSelfTransition)
		}

		if top, ok := s.Top(); !ok || top != objective {
			s.Push(objective)
		}
	} else {
		top, ok := s.Top()
		if !ok {
			return domain.TickAction{}, false, nil
		}
		objective = top
		s.CurrentState = top
	}

	primary, ok := p.config.Action(objective)
	if !ok {
		return domain.TickAction{}, false, p.turnError(domain.PhaseResolvePrimary, *s, action, objective, domain.ErrUnknownAction)
	}
	return primary, true, nil
}

// resolveSecondary asks the solver for the concrete action to run toward
// primary and picks one candidate through the injected picker.
func (p *Processor) resolveSecondary(ctx context.Context, s domain.TickSession, primary domain.TickAction, action *domain.UserAction) (domain.TickAction, []string, error) {
	candidates, err := p.solver.Solve(ctx, ports.SolveRequest{
		Actions:     p.config.Actions,
		Contexts:    s.Contexts,
		Primary:     primary,
		RanHandlers: s.RanHandlers,
	})
	if err != nil {
		return domain.TickAction{}, nil, p.turnError(domain.PhaseResolveSecondary, s, action, primary.Name, err)
	}
	if len(candidates) == 0 {
		return domain.TickAction{}, nil, p.turnError(domain.PhaseResolveSecondary, s, action, primary.Name,
			fmt.Errorf("%w toward %q", domain.ErrNoCandidate, primary.Name))
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	picked := candidates[0]
	if len(candidates) > 1 {
		picked = candidates[p.picker.Intn(len(candidates))]
	}

	chosen, ok := p.config.Action(picked.Name)
	if !ok {
		return domain.TickAction{}, nil, p.turnError(domain.PhaseResolveSecondary, s, action, picked.Name, domain.ErrUnknownAction)
	}
	return chosen, names, nil
}

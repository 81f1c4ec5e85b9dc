package solver

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
)

// DefaultMaxDepth bounds how far the solver regresses through producer actions.
const DefaultMaxDepth = 8

// Regression is a goal-regression solver.
// If the primary action is admissible it is returned alone. Otherwise the solver
// walks backwards from each unmet precondition to the actions that produce it and
// returns the admissible producers found at the shallowest depth.
type Regression struct {
	maxDepth int
}

// Option configures the Regression solver.
type Option func(*Regression)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(r *Regression) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// NewRegression creates a regression solver.
func NewRegression(opts ...Option) *Regression {
	r := &Regression{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.Solver = (*Regression)(nil)

// Solve implements ports.Solver.
func (r *Regression) Solve(ctx context.Context, req ports.SolveRequest) ([]domain.TickAction, error) {
	ran := make(map[string]struct{}, len(req.RanHandlers))
	for _, name := range req.RanHandlers {
		ran[name] = struct{}{}
	}

	admissible := func(a domain.TickAction) bool {
		if !a.Satisfied(req.Contexts) {
			return false
		}
		if a.Name == req.Primary.Name || a.Reentrant {
			return true
		}
		_, done := ran[a.Name]
		return !done
	}

	if admissible(req.Primary) {
		return []domain.TickAction{req.Primary}, nil
	}

	goals := req.Primary.Unmet(req.Contexts)
	visited := map[string]struct{}{req.Primary.Name: {}}

	for depth := 0; depth < r.maxDepth && len(goals) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var candidates []domain.TickAction
		var nextGoals []string

		for _, goal := range goals {
			// Negated goals ("!x") have no producer.
			if strings.HasPrefix(goal, domain.NegationPrefix) {
				continue
			}
			for _, a := range req.Actions {
				if !a.Produces(goal) {
					continue
				}
				if admissible(a) {
					if !containsAction(candidates, a.Name) {
						candidates = append(candidates, a)
					}
					continue
				}
				if _, seen := visited[a.Name]; seen {
					continue
				}
				visited[a.Name] = struct{}{}
				nextGoals = append(nextGoals, a.Unmet(req.Contexts)...)
			}
		}

		if len(candidates) > 0 {
			slices.SortFunc(candidates, func(a, b domain.TickAction) int {
				return strings.Compare(a.Name, b.Name)
			})
			return candidates, nil
		}
		goals = nextGoals
	}

	return nil, fmt.Errorf("%w toward %q", domain.ErrNoCandidate, req.Primary.Name)
}

func containsAction(actions []domain.TickAction, name string) bool {
	return slices.ContainsFunc(actions, func(a domain.TickAction) bool {
		return a.Name == name
	})
}

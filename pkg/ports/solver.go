package ports

import (
	"context"

	"github.com/aretw0/tickstory/pkg/domain"
)

// SolveRequest carries everything a solver needs to choose the next action.
type SolveRequest struct {
	Actions     []domain.TickAction
	Contexts    domain.Contexts
	Primary     domain.TickAction
	RanHandlers []string
}

// Solver returns the admissible next actions toward the primary objective.
// Admissible means every precondition holds and the action has not run this
// turn-chain, unless it is declared reentrant. The result must not be empty;
// implementations return domain.ErrNoCandidate instead.
type Solver interface {
	Solve(ctx context.Context, req SolveRequest) ([]domain.TickAction, error)
}

package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/tickstory/internal/logging"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
	"github.com/aretw0/tickstory/pkg/registry"
	"github.com/aretw0/tickstory/pkg/solver"
	"github.com/aretw0/tickstory/pkg/statemachine"
)

// DefaultMaxSteps bounds the number of actions a single turn may run.
const DefaultMaxSteps = 32

// Picker chooses one of n equally admissible candidates.
type Picker interface {
	Intn(n int) int
}

// Processor runs turns against one story configuration.
// It holds no per-conversation state and is safe for concurrent use as long as
// its collaborators are.
type Processor struct {
	config    *domain.TickConfiguration
	machine   *statemachine.Machine
	solver    ports.Solver
	picker    Picker
	handlers  *registry.Registry
	responder ports.Responder
	hooks     domain.TickHooks
	logger    *slog.Logger
	maxSteps  int
}

// Option configures a Processor.
type Option func(*Processor)

// WithSolver replaces the default regression solver.
func WithSolver(s ports.Solver) Option {
	return func(p *Processor) {
		if s != nil {
			p.solver = s
		}
	}
}

// WithPicker injects the random source used to break ties between candidates.
func WithPicker(pk Picker) Option {
	return func(p *Processor) {
		if pk != nil {
			p.picker = pk
		}
	}
}

// WithHandlers sets the registry handlers are looked up in.
func WithHandlers(r *registry.Registry) Option {
	return func(p *Processor) {
		if r != nil {
			p.handlers = r
		}
	}
}

// WithResponder sets the collaborator that delivers answers.
func WithResponder(r ports.Responder) Option {
	return func(p *Processor) {
		p.responder = r
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.TickHooks) Option {
	return func(p *Processor) {
		p.hooks = h
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxSteps = n
		}
	}
}

// NewProcessor creates a processor for a validated configuration and its machine.
func NewProcessor(cfg *domain.TickConfiguration, machine *statemachine.Machine, opts ...Option) *Processor {
	p := &Processor{
		config:   cfg,
		machine:  machine,
		solver:   solver.NewRegression(),
		picker:   solver.NewRandomPicker(uint64(time.Now().UnixNano())),
		handlers: registry.NewRegistry(),
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Step records one resolution step of a turn.
type Step struct {
	Primary    string   `json:"primary"`
	Secondary  string   `json:"secondary"`
	Candidates []string `json:"candidates"`
	Silent     bool     `json:"silent"`
}

// Result is the outcome of a successful turn.
type Result struct {
	Session domain.TickSession `json:"session"`
	Final   bool               `json:"final"`
	Steps   []Step             `json:"steps"`
}

// Process runs one turn. action is the incoming user action; nil starts a
// silent continuation from the top of the objectives stack.
//
// On error the returned result is nil and session is left as it was.
func (p *Processor) Process(ctx context.Context, session domain.TickSession, action *domain.UserAction) (*Result, error) {
	start := time.Now()
	next := session.Clone()

	intent := ""
	if action != nil {
		intent = action.IntentName
	}

	p.emitTurnStart(ctx, intent, next)

	res, err := p.run(ctx, next, action)
	if err != nil {
		p.logger.Debug("turn failed", "story", p.config.Name, "state", session.CurrentState, "intent", intent, "error", err)
		p.emitTurnError(ctx, intent, session, time.Since(start), err)
		return nil, err
	}

	p.logger.Debug("turn complete",
		"story", p.config.Name,
		"state", res.Session.CurrentState,
		"steps", len(res.Steps),
		"final", res.Final,
	)
	p.emitTurnEnd(ctx, intent, res, time.Since(start))
	return res, nil
}

// run is the explicit form of the silent-continuation loop.
func (p *Processor) run(ctx context.Context, s domain.TickSession, action *domain.UserAction) (*Result, error) {
	if s.CurrentState == "" {
		if initial := p.machine.Initial(p.machine.Root().ID); initial != nil {
			s.CurrentState = initial.ID
		}
	}

	if action != nil {
		p.bindEntities(s.Contexts, action.Entities)
	}

	res := &Result{}
	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if step >= p.maxSteps {
			return nil, p.turnError(domain.PhaseResolvePrimary, s, action, "", domain.ErrSilentLoop)
		}

		primary, ok, err := p.resolvePrimary(&s, action)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Silent continuation with nothing left to pursue.
			break
		}

		chosen, candidates, err := p.resolveSecondary(ctx, s, primary, action)
		if err != nil {
			return nil, err
		}

		p.emitObjective(ctx, primary.Name, chosen.Name, candidates, s.ObjectivesStack)

		if err := p.execute(ctx, &s, chosen, action); err != nil {
			return nil, err
		}

		p.advance(&s, primary.Name, chosen.Name)

		res.Steps = append(res.Steps, Step{
			Primary:    primary.Name,
			Secondary:  chosen.Name,
			Candidates: candidates,
			Silent:     chosen.Silent,
		})
		res.Final = chosen.Final

		if !chosen.Silent || chosen.Final {
			break
		}
		action = nil
	}

	res.Session = s
	return res, nil
}

// bindEntities copies entity values into the contexts bound to their role.
// Contexts whose role is absent from entities are left untouched.
func (p *Processor) bindEntities(contexts domain.Contexts, entities map[string]string) {
	if len(entities) == 0 {
		return
	}
	for _, tc := range p.config.EntityBindings() {
		if v, ok := entities[tc.EntityRole]; ok {
			contexts.Set(tc.Name, v)
		}
	}
}

// advance updates the current state once the chosen action ran, then opens
// any sub-objective requested through the contexts.
func (p *Processor) advance(s *domain.TickSession, primary, chosen string) {
	if chosen == primary {
		popped, _ := s.Pop()
		if top, ok := s.Top(); ok {
			s.CurrentState = top
		} else {
			s.CurrentState = popped
		}
	} else {
		s.CurrentState = chosen
	}

	if v, present := s.Contexts[domain.SubObjectiveKey]; present {
		delete(s.Contexts, domain.SubObjectiveKey)
		if v != nil && *v != "" {
			s.Push(*v)
		}
	}
}

func (p *Processor) turnError(phase domain.TurnPhase, s domain.TickSession, action *domain.UserAction, name string, err error) error {
	te := &domain.TurnError{Phase: phase, State: s.CurrentState, Action: name, Err: err}
	if action != nil {
		te.Intent = action.IntentName
	}
	return te
}

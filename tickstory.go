package tickstory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/tickstory/internal/logging"
	"github.com/aretw0/tickstory/internal/runtime"
	"github.com/aretw0/tickstory/pkg/adapters/memory"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
	"github.com/aretw0/tickstory/pkg/registry"
	"github.com/aretw0/tickstory/pkg/responder"
	"github.com/aretw0/tickstory/pkg/session"
	"github.com/aretw0/tickstory/pkg/statemachine"
)

// ErrEmptyConversationID is returned when a turn has no conversation to belong to.
var ErrEmptyConversationID = errors.New("conversation id is required")

// Picker chooses one of n equally admissible candidates.
type Picker = runtime.Picker

// Step records one resolution step of a turn.
type Step = runtime.Step

// TurnResult is the outcome of a turn handled by the Engine.
type TurnResult struct {
	ConversationID string              `json:"conversation_id"`
	Session        domain.TickSession  `json:"session"`
	Final          bool                `json:"final"`
	Steps          []Step              `json:"steps"`
	Messages       []responder.Message `json:"messages"`
}

// Engine is the high-level entry point of the library.
// It binds one story to a session store and serialises the turns of each
// conversation.
type Engine struct {
	config    *domain.TickConfiguration
	machine   *statemachine.Machine
	processor *runtime.Processor
	sessions  *session.Manager

	store     ports.SessionStore
	locker    ports.DistributedLocker
	handlers  *registry.Registry
	responder ports.Responder
	solver    ports.Solver
	picker    Picker
	hooks     []domain.TickHooks
	logger    *slog.Logger
	maxSteps  int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where sessions are persisted (default: in memory).
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker adds a distributed lock around every turn, for multi-replica setups.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithHandlers sets the registry the story's handlers are resolved from.
func WithHandlers(r *registry.Registry) Option {
	return func(e *Engine) {
		e.handlers = r
	}
}

// WithResponder replaces the default template responder.
func WithResponder(r ports.Responder) Option {
	return func(e *Engine) {
		e.responder = r
	}
}

// WithSolver replaces the default regression solver.
func WithSolver(s ports.Solver) Option {
	return func(e *Engine) {
		e.solver = s
	}
}

// WithPicker injects the random source used to break candidate ties.
func WithPicker(p Picker) Option {
	return func(e *Engine) {
		e.picker = p
	}
}

// WithHooks registers lifecycle hooks. It may be given several times.
func WithHooks(h domain.TickHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, h)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxSteps bounds the number of actions a single turn may run.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// New builds an engine for cfg. The state machine is validated up front.
//
// Unless WithResponder is given, answers are rendered from cfg.Answers and
// returned in TurnResult.Messages.
func New(cfg *domain.TickConfiguration, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, &domain.ConfigurationError{Err: domain.ErrMissingMachine}
	}

	e := &Engine{config: cfg}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.With("story", cfg.Name)

	machine, err := statemachine.New(cfg.Name, cfg.Machine)
	if err != nil {
		return nil, err
	}
	e.machine = machine

	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.responder == nil {
		tmpl, err := responder.NewTemplate(cfg.Answers, responder.ContextSink, responder.WithLogger(e.logger))
		if err != nil {
			return nil, &domain.ConfigurationError{Story: cfg.Name, Err: err}
		}
		e.responder = tmpl
	}

	procOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithResponder(e.responder),
		runtime.WithHandlers(e.handlers),
		runtime.WithSolver(e.solver),
		runtime.WithPicker(e.picker),
		runtime.WithMaxSteps(e.maxSteps),
	}
	if len(e.hooks) > 0 {
		procOpts = append(procOpts, runtime.WithHooks(domain.ComposeHooks(e.hooks...)))
	}
	e.processor = runtime.NewProcessor(cfg, machine, procOpts...)

	sessOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessOpts...)

	return e, nil
}

// NewFromLoader loads the named story and builds an engine for it.
func NewFromLoader(ctx context.Context, loader ports.StoryLoader, name string, opts ...Option) (*Engine, error) {
	cfg, err := loader.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load story %q: %w", name, err)
	}
	return New(cfg, opts...)
}

// HandleTurn runs one turn of the conversation. action may be nil to resume a
// pending silent chain.
//
// The conversation is locked for the whole turn. The session is saved only
// when the turn succeeds; on error the stored session is left as it was.
func (e *Engine) HandleTurn(ctx context.Context, conversationID string, action *domain.UserAction) (*TurnResult, error) {
	if conversationID == "" {
		return nil, ErrEmptyConversationID
	}

	rec := responder.NewRecorder()
	ctx = responder.NewContext(ctx, rec)

	var res *runtime.Result
	err := e.sessions.Update(ctx, conversationID, func(ctx context.Context, s domain.TickSession) (domain.TickSession, error) {
		r, err := e.processor.Process(ctx, s, action)
		if err != nil {
			return s, err
		}
		res = r
		return r.Session, nil
	})
	if err != nil {
		e.logger.Debug("turn rejected", "conversation", conversationID, "error", err)
		return nil, err
	}

	return &TurnResult{
		ConversationID: conversationID,
		Session:        res.Session,
		Final:          res.Final,
		Steps:          res.Steps,
		Messages:       rec.Drain(),
	}, nil
}

// Session returns the stored session of a conversation.
func (e *Engine) Session(ctx context.Context, conversationID string) (domain.TickSession, error) {
	return e.sessions.Load(ctx, conversationID)
}

// Conversations lists the conversations with a stored session.
func (e *Engine) Conversations(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Reset forgets a conversation. Resetting an unknown conversation is not an error.
func (e *Engine) Reset(ctx context.Context, conversationID string) error {
	err := e.sessions.Delete(ctx, conversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	return err
}

// Machine returns the validated state machine of the story.
func (e *Engine) Machine() *statemachine.Machine {
	return e.machine
}

// Config returns the story configuration. It must not be modified.
func (e *Engine) Config() *domain.TickConfiguration {
	return e.config
}

package dsl

import (
	"fmt"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/statemachine"
)

// Builder manages the story construction.
type Builder struct {
	name     string
	debug    bool
	root     *StateBuilder
	states   map[string]*StateBuilder
	actions  []*ActionBuilder
	byName   map[string]*ActionBuilder
	contexts []domain.TickContext
	answers  map[string]string
}

// New creates a new story builder.
func New(name string) *Builder {
	b := &Builder{
		name:    name,
		states:  make(map[string]*StateBuilder),
		byName:  make(map[string]*ActionBuilder),
		answers: make(map[string]string),
	}
	b.root = &StateBuilder{state: domain.NewState(domain.RootStateID), builder: b}
	return b
}

// Initial sets the initial child of the root.
func (b *Builder) Initial(id string) *Builder {
	b.root.Initial(id)
	return b
}

// On declares a transition on the root state.
func (b *Builder) On(event, target string) *Builder {
	b.root.On(event, target)
	return b
}

// Debug makes every answer visible and enables context tracing.
func (b *Builder) Debug() *Builder {
	b.debug = true
	return b
}

// State returns the builder of a top-level state, creating it if needed.
// If the id already exists anywhere in the tree, the existing builder is returned.
func (b *Builder) State(id string) *StateBuilder {
	return b.root.Child(id)
}

// Action returns the builder of an action, creating it if needed.
func (b *Builder) Action(name string) *ActionBuilder {
	if ab, ok := b.byName[name]; ok {
		return ab
	}
	ab := &ActionBuilder{action: domain.TickAction{Name: name}}
	b.actions = append(b.actions, ab)
	b.byName[name] = ab
	return ab
}

// Step declares a state and the action pursuing it in one call.
// The state is created at the top level unless it already exists.
func (b *Builder) Step(id string) *ActionBuilder {
	if _, ok := b.states[id]; !ok {
		b.State(id)
	}
	return b.Action(id)
}

// Context declares a context variable. role binds it to an entity role and may be empty.
func (b *Builder) Context(name, role string) *Builder {
	b.contexts = append(b.contexts, domain.TickContext{Name: name, EntityRole: role})
	return b
}

// Answer adds a response template to the catalog.
func (b *Builder) Answer(id, template string) *Builder {
	b.answers[id] = template
	return b
}

// Build assembles and validates the configuration.
func (b *Builder) Build() (*domain.TickConfiguration, error) {
	cfg := &domain.TickConfiguration{
		Name:     b.name,
		Machine:  b.root.state,
		Contexts: append([]domain.TickContext(nil), b.contexts...),
		Debug:    b.debug,
	}
	if len(b.answers) > 0 {
		cfg.Answers = make(map[string]string, len(b.answers))
		for k, v := range b.answers {
			cfg.Answers[k] = v
		}
	}
	for _, ab := range b.actions {
		cfg.Actions = append(cfg.Actions, ab.Build())
	}

	if _, err := statemachine.New(cfg.Name, cfg.Machine); err != nil {
		return nil, fmt.Errorf("failed to build story: %w", err)
	}
	return cfg, nil
}

// MustBuild is like Build but panics on error. Meant for tests and static stories.
func (b *Builder) MustBuild() *domain.TickConfiguration {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}

package compiler

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/aretw0/tickstory/internal/dto"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/statemachine"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parser converts raw story files into validated configurations.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a YAML or JSON story and compiles it.
// The state machine is built once to validate the structure; the returned
// configuration is ready for statemachine.New.
func (p *Parser) Parse(data []byte) (*domain.TickConfiguration, error) {
	def, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	return Compile(def)
}

// Decode reads data into a StoryDefinition without validating it.
func (p *Parser) Decode(data []byte) (*dto.StoryDefinition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse story: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to parse story: empty document")
	}

	var def dto.StoryDefinition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       contextShorthandHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &def,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode story: %w", err)
	}
	return &def, nil
}

// contextShorthandHook accepts a bare string where a context declaration is expected.
func contextShorthandHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == reflect.TypeOf(dto.ContextDefinition{}) {
		return map[string]any{"name": data}, nil
	}
	return data, nil
}

// Compile converts a definition into a domain configuration and validates it.
func Compile(def *dto.StoryDefinition) (*domain.TickConfiguration, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("story missing name")
	}

	cfg := &domain.TickConfiguration{
		Name:    def.Name,
		Debug:   def.Debug,
		Answers: def.Answers,
	}

	if def.Machine != nil {
		id := def.Machine.ID
		if id == "" {
			id = domain.RootStateID
		}
		cfg.Machine = compileState(id, def.Machine)
	}

	seen := make(map[string]struct{}, len(def.Actions))
	for _, a := range def.Actions {
		if a.Name == "" {
			return nil, &domain.ConfigurationError{Story: def.Name, Err: fmt.Errorf("action missing name")}
		}
		if _, dup := seen[a.Name]; dup {
			return nil, &domain.ConfigurationError{Story: def.Name, Err: fmt.Errorf("%w: %q", domain.ErrDuplicateAction, a.Name)}
		}
		seen[a.Name] = struct{}{}

		cfg.Actions = append(cfg.Actions, domain.TickAction{
			Name:           a.Name,
			AnswerID:       a.Answer,
			Handler:        a.Handler,
			Preconditions:  a.Preconditions,
			Postconditions: a.Postconditions,
			Silent:         a.Silent,
			Final:          a.Final,
			Reentrant:      a.Reentrant,
		})
	}

	for _, c := range def.Contexts {
		if c.Name == "" {
			return nil, &domain.ConfigurationError{Story: def.Name, Err: fmt.Errorf("context missing name")}
		}
		cfg.Contexts = append(cfg.Contexts, domain.TickContext{Name: c.Name, EntityRole: c.Entity})
	}

	if _, err := statemachine.New(cfg.Name, cfg.Machine); err != nil {
		return nil, err
	}
	return cfg, nil
}

func compileState(id string, def *dto.StateDefinition) *domain.State {
	s := domain.NewState(id)
	if def == nil {
		return s
	}
	s.Initial = def.Initial
	for _, event := range slices.Sorted(maps.Keys(def.Transitions)) {
		s.On(event, def.Transitions[event])
	}
	for _, childID := range slices.Sorted(maps.Keys(def.States)) {
		s.AddChild(compileState(childID, def.States[childID]))
	}
	return s
}

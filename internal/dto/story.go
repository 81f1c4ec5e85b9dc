// Package dto holds the on-disk shape of a story definition.
// It uses "mapstructure" tags so YAML and JSON sources decode through the same generic map.
package dto

// StoryDefinition is the root of a story file.
type StoryDefinition struct {
	Name     string              `json:"name" mapstructure:"name"`
	Debug    bool                `json:"debug,omitempty" mapstructure:"debug"`
	Machine  *StateDefinition    `json:"machine" mapstructure:"machine"`
	Actions  []ActionDefinition  `json:"actions" mapstructure:"actions"`
	Contexts []ContextDefinition `json:"contexts,omitempty" mapstructure:"contexts"`
	Answers  map[string]string   `json:"answers,omitempty" mapstructure:"answers"`
}

// StateDefinition is one node of the state tree. Nested states are identified by
// their key; ID is only read on the machine root and defaults to "root".
type StateDefinition struct {
	ID          string                      `json:"id,omitempty" mapstructure:"id"`
	Initial     string                      `json:"initial,omitempty" mapstructure:"initial"`
	Transitions map[string]string           `json:"transitions,omitempty" mapstructure:"transitions"`
	States      map[string]*StateDefinition `json:"states,omitempty" mapstructure:"states"`
}

// ActionDefinition describes one tick action.
type ActionDefinition struct {
	Name           string   `json:"name" mapstructure:"name"`
	Answer         string   `json:"answer,omitempty" mapstructure:"answer"`
	Handler        string   `json:"handler,omitempty" mapstructure:"handler"`
	Preconditions  []string `json:"preconditions,omitempty" mapstructure:"preconditions"`
	Postconditions []string `json:"postconditions,omitempty" mapstructure:"postconditions"`
	Silent         bool     `json:"silent,omitempty" mapstructure:"silent"`
	Final          bool     `json:"final,omitempty" mapstructure:"final"`
	Reentrant      bool     `json:"reentrant,omitempty" mapstructure:"reentrant"`
}

// ContextDefinition declares a context variable, optionally bound to an entity role.
// A bare string in the source is shorthand for {name: <string>}.
type ContextDefinition struct {
	Name   string `json:"name" mapstructure:"name"`
	Entity string `json:"entity,omitempty" mapstructure:"entity"`
}

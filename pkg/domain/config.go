package domain

// TickConfiguration is the static description of a tick story.
// It is built once per load and shared read-only by every turn.
type TickConfiguration struct {
	Name string `json:"name" yaml:"name"`

	// Machine is the root of the hierarchical state graph.
	Machine *State `json:"machine" yaml:"machine"`

	Actions  []TickAction  `json:"actions" yaml:"actions"`
	Contexts []TickContext `json:"contexts,omitempty" yaml:"contexts,omitempty"`

	// Answers is the catalog of response templates keyed by answer id.
	Answers map[string]string `json:"answers,omitempty" yaml:"answers,omitempty"`

	// Debug makes every answer visible and enables context tracing.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Action looks up an action by name.
func (c *TickConfiguration) Action(name string) (TickAction, bool) {
	for _, a := range c.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return TickAction{}, false
}

// HasSingleAction reports whether the story declares exactly one action.
// Single-action stories are allowed to loop on their own state.
func (c *TickConfiguration) HasSingleAction() bool {
	return len(c.Actions) == 1
}

// EntityBindings returns the declared contexts bound to an entity role.
func (c *TickConfiguration) EntityBindings() []TickContext {
	var bound []TickContext
	for _, tc := range c.Contexts {
		if tc.EntityRole != "" {
			bound = append(bound, tc)
		}
	}
	return bound
}

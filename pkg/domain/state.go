package domain

// State is a node of the hierarchical state graph.
// Leaf states have no nested States; group states may declare an Initial child.
type State struct {
	ID string `json:"id" yaml:"id"`

	// Initial is the id of the default child entered when this state is targeted.
	Initial string `json:"initial,omitempty" yaml:"initial,omitempty"`

	// Transitions maps an event (intent) name to the target state id.
	Transitions map[string]string `json:"transitions,omitempty" yaml:"transitions,omitempty"`

	// States holds the nested children keyed by id.
	States map[string]*State `json:"states,omitempty" yaml:"states,omitempty"`
}

// NewState creates a leaf state with no transitions.
func NewState(id string) *State {
	return &State{
		ID:          id,
		Transitions: make(map[string]string),
		States:      make(map[string]*State),
	}
}

// IsLeaf reports whether the state has no nested states.
func (s *State) IsLeaf() bool {
	return len(s.States) == 0
}

// AddChild nests child under s and returns s for chaining.
func (s *State) AddChild(child *State) *State {
	if s.States == nil {
		s.States = make(map[string]*State)
	}
	s.States[child.ID] = child
	return s
}

// On declares a transition from s to target on event and returns s for chaining.
func (s *State) On(event, target string) *State {
	if s.Transitions == nil {
		s.Transitions = make(map[string]string)
	}
	s.Transitions[event] = target
	return s
}

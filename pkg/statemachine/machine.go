package statemachine

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/tickstory/pkg/domain"
)

// Machine answers structural queries over a validated hierarchical state graph.
// It is immutable after New and safe for concurrent readers.
type Machine struct {
	root        *domain.State
	states      map[string]*domain.State
	parents     map[string]*domain.State
	transitions map[string]struct{}
}

// New indexes the graph rooted at root and validates it.
// It fails with a *domain.ConfigurationError when two states share an id, a
// nested state's id differs from its key, a transition targets its own source
// or an unknown state, or an initial pointer does not name a direct child.
// The graph is only read, never modified.
func New(name string, root *domain.State) (*Machine, error) {
	if root == nil {
		return nil, &domain.ConfigurationError{Story: name, Err: domain.ErrMissingMachine}
	}

	m := &Machine{
		root:        root,
		states:      make(map[string]*domain.State),
		parents:     make(map[string]*domain.State),
		transitions: make(map[string]struct{}),
	}

	if err := m.index(name, root, nil); err != nil {
		return nil, err
	}
	if err := m.validate(name); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Machine) index(name string, s *domain.State, parent *domain.State) error {
	if _, dup := m.states[s.ID]; dup {
		return &domain.ConfigurationError{Story: name, StateID: s.ID, Err: domain.ErrDuplicateState}
	}
	m.states[s.ID] = s
	if parent != nil {
		m.parents[s.ID] = parent
	}

	for event := range s.Transitions {
		m.transitions[event] = struct{}{}
	}

	for _, childID := range slices.Sorted(maps.Keys(s.States)) {
		child := s.States[childID]
		if child == nil {
			return &domain.ConfigurationError{Story: name, StateID: childID, Err: domain.ErrMissingMachine}
		}
		if child.ID != childID {
			return &domain.ConfigurationError{Story: name, StateID: childID, Err: fmt.Errorf("%w: %q", domain.ErrStateKeyMismatch, child.ID)}
		}
		if err := m.index(name, child, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) validate(name string) error {
	for _, id := range slices.Sorted(maps.Keys(m.states)) {
		s := m.states[id]

		for _, event := range slices.Sorted(maps.Keys(s.Transitions)) {
			target := s.Transitions[event]
			if target == s.ID {
				return &domain.ConfigurationError{
					Story:   name,
					StateID: s.ID,
					Err:     fmt.Errorf("%w: event %q", domain.ErrSelfLoop, event),
				}
			}
			if _, ok := m.states[target]; !ok {
				return &domain.ConfigurationError{
					Story:   name,
					StateID: s.ID,
					Err:     fmt.Errorf("%w: event %q -> %q", domain.ErrUnknownTarget, event, target),
				}
			}
		}

		if s.Initial != "" {
			if _, ok := s.States[s.Initial]; !ok {
				return &domain.ConfigurationError{
					Story:   name,
					StateID: s.ID,
					Err:     fmt.Errorf("%w: %q", domain.ErrInvalidInitial, s.Initial),
				}
			}
		}
	}
	return nil
}

// Root returns the root state.
func (m *Machine) Root() *domain.State {
	return m.root
}

// State returns the state with the given id, or nil.
// domain.RootStateID resolves to the root unless a real state uses that id.
func (m *Machine) State(id string) *domain.State {
	if s, ok := m.states[id]; ok {
		return s
	}
	if id == domain.RootStateID {
		return m.root
	}
	return nil
}

// Parent returns the direct structural parent of id, or nil for the root and unknown ids.
func (m *Machine) Parent(id string) *domain.State {
	s := m.State(id)
	if s == nil {
		return nil
	}
	return m.parents[s.ID]
}

// Initial follows initial pointers from id down to a leaf.
// A group without an explicit initial enters its first child in id order.
// Returns nil for unknown ids.
func (m *Machine) Initial(id string) *domain.State {
	s := m.State(id)
	if s == nil {
		return nil
	}
	for !s.IsLeaf() {
		next := s.Initial
		if next == "" {
			next = slices.Sorted(maps.Keys(s.States))[0]
		}
		s = s.States[next]
	}
	return s
}

// Next resolves event against the transitions declared directly on stateID.
// There is no bubbling to ancestors. Returns nil when absent.
func (m *Machine) Next(stateID, event string) *domain.State {
	s := m.State(stateID)
	if s == nil {
		return nil
	}
	target, ok := s.Transitions[event]
	if !ok {
		return nil
	}
	return m.states[target]
}

// LeafStates returns the ids of every state without nested states, sorted.
func (m *Machine) LeafStates() []string {
	var leaves []string
	for id, s := range m.states {
		if s.IsLeaf() {
			leaves = append(leaves, id)
		}
	}
	slices.Sort(leaves)
	return leaves
}

// Transitions returns the union of all event names declared in the tree, sorted.
func (m *Machine) Transitions() []string {
	return slices.Sorted(maps.Keys(m.transitions))
}

// ContainsTransition reports whether event is declared anywhere in the tree.
func (m *Machine) ContainsTransition(event string) bool {
	_, ok := m.transitions[event]
	return ok
}

// Ancestors returns the path from the root down to id (inclusive), or nil for unknown ids.
func (m *Machine) Ancestors(id string) []*domain.State {
	s := m.State(id)
	if s == nil {
		return nil
	}
	var path []*domain.State
	for cur := s; cur != nil; cur = m.parents[cur.ID] {
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

// Walk visits every state depth-first with children in id order.
// depth is 0 for the root.
func (m *Machine) Walk(fn func(s *domain.State, depth int)) {
	var visit func(s *domain.State, depth int)
	visit = func(s *domain.State, depth int) {
		fn(s, depth)
		for _, childID := range slices.Sorted(maps.Keys(s.States)) {
			visit(s.States[childID], depth+1)
		}
	}
	visit(m.root, 0)
}

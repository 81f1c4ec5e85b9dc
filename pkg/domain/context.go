package domain

import (
	"maps"
	"slices"
)

// TickContext declares a context variable of the story.
type TickContext struct {
	Name string `json:"name" yaml:"name"`

	// EntityRole, when set, binds the context to an extracted entity role.
	// The processor copies the entity value into the context at the start of a turn.
	EntityRole string `json:"entity_role,omitempty" yaml:"entity_role,omitempty"`
}

// Contexts holds the accumulated context values of a conversation.
// A present key with a nil value is an explicitly cleared context.
type Contexts map[string]*string

// Value returns a pointer to v, for building Contexts literals.
func Value(v string) *string {
	return &v
}

// Get returns the value of name and whether it is set (present and non-null).
func (c Contexts) Get(name string) (string, bool) {
	v, ok := c[name]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Has reports whether name is set to a non-null value.
func (c Contexts) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Set stores value under name.
func (c Contexts) Set(name, value string) {
	c[name] = Value(value)
}

// Clear marks name as explicitly null.
func (c Contexts) Clear(name string) {
	c[name] = nil
}

// Clone returns a deep copy so callers can mutate it without aliasing.
func (c Contexts) Clone() Contexts {
	out := make(Contexts, len(c))
	for k, v := range c {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = Value(*v)
	}
	return out
}

// Merge copies every entry of delta into c. Values from delta win on conflicts.
func (c Contexts) Merge(delta Contexts) {
	for k, v := range delta {
		if v == nil {
			c[k] = nil
			continue
		}
		c[k] = Value(*v)
	}
}

// Names returns the keys in sorted order.
func (c Contexts) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// Plain flattens the contexts to a string map, dropping nulls.
// Used for template rendering and logging.
func (c Contexts) Plain() map[string]string {
	out := make(map[string]string, len(c))
	for k, v := range c {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

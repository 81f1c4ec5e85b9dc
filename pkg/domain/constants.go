package domain

const (
	// SubObjectiveKey is the reserved context key a handler can set to open a
	// nested sub-dialogue. The processor pops it out of the contexts and pushes
	// its value onto the objectives stack.
	SubObjectiveKey = "SOUS-OBJECTIF"

	// RootStateID is the reserved token resolving to the machine's own root.
	RootStateID = "root"

	// NegationPrefix marks a precondition that requires the context to be unset.
	NegationPrefix = "!"
)

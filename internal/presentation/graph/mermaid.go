package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/statemachine"
)

// rootNode is the id of the root, drawn only when it declares transitions.
const rootNode = "__root__"

// Overlay contains session data to highlight on the graph.
type Overlay struct {
	CurrentState string
	Objectives   []string
	RanHandlers  []string
}

// OverlayFrom builds an overlay from a session.
func OverlayFrom(s domain.TickSession) *Overlay {
	return &Overlay{
		CurrentState: s.CurrentState,
		Objectives:   s.ObjectivesStack,
		RanHandlers:  s.RanHandlers,
	}
}

// GenerateMermaid produces a Mermaid flowchart of the story machine.
// Groups become subgraphs. Leaves are shaped after their action:
// - Initial of the root: ((Circle))
// - Silent: [[Subroutine]]
// - Final: ([Stadium])
// - Without action: [/Parallelogram/]
// - Default: [Rectangle]
// Transitions declared on the root leave from a {{hexagon}} root node.
func GenerateMermaid(cfg *domain.TickConfiguration, m *statemachine.Machine, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	rootInitial := ""
	if s := m.Initial(m.Root().ID); s != nil {
		rootInitial = s.ID
	}
	root := m.Root()

	var open []int
	m.Walk(func(s *domain.State, depth int) {
		if s == root {
			return
		}
		for len(open) > 0 && open[len(open)-1] >= depth {
			open = open[:len(open)-1]
			sb.WriteString(indent(len(open)) + "end\n")
		}

		if !s.IsLeaf() {
			fmt.Fprintf(&sb, "%ssubgraph %s [\"%s\"]\n", indent(len(open)), sanitizeID(s.ID), s.ID)
			open = append(open, depth)
			return
		}

		opener, closer := "[", "]"
		action, ok := cfg.Action(s.ID)
		switch {
		case s.ID == rootInitial:
			opener, closer = "((", "))"
		case !ok:
			opener, closer = "[/", "/]"
		case action.Silent:
			opener, closer = "[[", "]]"
		case action.Final:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "%s%s%s\"%s\"%s\n", indent(len(open)), sanitizeID(s.ID), opener, s.ID, closer)
	})
	for len(open) > 0 {
		open = open[:len(open)-1]
		sb.WriteString(indent(len(open)) + "end\n")
	}

	if len(root.Transitions) > 0 {
		fmt.Fprintf(&sb, "    %s{{\"%s\"}}\n", rootNode, root.ID)
	}

	m.Walk(func(s *domain.State, _ int) {
		from := sanitizeID(s.ID)
		if s == root {
			from = rootNode
		}
		for _, event := range slices.Sorted(maps.Keys(s.Transitions)) {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, strings.ReplaceAll(event, "\"", "'"), sanitizeID(s.Transitions[event]))
		}
	})

	if overlay != nil {
		sb.WriteString("\n    %% Session overlay\n")
		sb.WriteString("    classDef ran fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef objective fill:#fff3e0,stroke:#e65100,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.RanHandlers {
			if m.State(id) != nil && !seen[id] && id != overlay.CurrentState {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s ran;\n", sanitizeID(id))
			}
		}
		for _, id := range overlay.Objectives {
			if m.State(id) != nil && !seen[id] && id != overlay.CurrentState {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s objective;\n", sanitizeID(id))
			}
		}
		if overlay.CurrentState != "" && m.State(overlay.CurrentState) != nil {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.CurrentState))
		}
	}

	return sb.String()
}

func indent(level int) string {
	return strings.Repeat("    ", level+1)
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, id)
}

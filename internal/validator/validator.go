// Package validator lints a compiled story for problems the state machine
// cannot see on its own: objectives without actions, unknown answers or
// handlers, and preconditions nothing can satisfy.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/statemachine"
)

// Severity ranks an Issue.
type Severity string

const (
	// SeverityError marks a problem that makes some turn fail.
	SeverityError Severity = "error"
	// SeverityWarning marks a likely mistake.
	SeverityWarning Severity = "warning"
)

// Issue is one lint finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Subject, i.Message)
}

// Options tunes the checks.
type Options struct {
	// Handlers lists the registered handler names. Nil skips the handler check.
	Handlers []string
}

// Lint returns every issue found in cfg, errors first, then by subject.
func Lint(cfg *domain.TickConfiguration, m *statemachine.Machine, opts Options) []Issue {
	var issues []Issue
	add := func(sev Severity, subject, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	actions := make(map[string]domain.TickAction, len(cfg.Actions))
	for _, a := range cfg.Actions {
		actions[a.Name] = a
	}

	// Every state a transition can land on is pursued as an objective and needs an action.
	for _, id := range objectives(m) {
		if _, ok := actions[id]; !ok {
			add(SeverityError, id, "objective has no action with the same name")
		}
	}

	reachable := reachableStates(m)
	for _, id := range m.LeafStates() {
		if _, ok := reachable[id]; ok {
			continue
		}
		if _, ok := actions[id]; ok {
			continue
		}
		add(SeverityWarning, id, "state is unreachable")
	}

	produced := make(map[string]struct{})
	for _, a := range cfg.Actions {
		for _, p := range a.Postconditions {
			produced[p] = struct{}{}
		}
	}
	for _, tc := range cfg.EntityBindings() {
		produced[tc.Name] = struct{}{}
	}

	for _, a := range cfg.Actions {
		if m.State(a.Name) == nil {
			add(SeverityWarning, a.Name, "action has no state: no transition can follow it")
		}
		if a.AnswerID != "" && cfg.Answers != nil {
			if _, ok := cfg.Answers[a.AnswerID]; !ok {
				add(SeverityError, a.Name, "answer %q is not in the catalog", a.AnswerID)
			}
		}
		if a.Handler != "" && opts.Handlers != nil && !slices.Contains(opts.Handlers, a.Handler) {
			add(SeverityError, a.Name, "handler %q is not registered", a.Handler)
		}
		for _, cond := range a.Preconditions {
			if strings.HasPrefix(cond, domain.NegationPrefix) {
				continue
			}
			if _, ok := produced[cond]; !ok {
				add(SeverityWarning, a.Name, "precondition %q is never produced", cond)
			}
		}
	}

	slices.SortStableFunc(issues, func(a, b Issue) int {
		if a.Severity != b.Severity {
			if a.Severity == SeverityError {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Subject, b.Subject)
	})
	return issues
}

// Validate runs Lint and returns an error listing the error-level issues.
func Validate(cfg *domain.TickConfiguration, m *statemachine.Machine, opts Options) error {
	var errs []string
	for _, issue := range Lint(cfg, m, opts) {
		if issue.Severity == SeverityError {
			errs = append(errs, issue.Subject+": "+issue.Message)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
	}
	return nil
}

// objectives returns the leaves reached through transitions, sorted.
func objectives(m *statemachine.Machine) []string {
	set := make(map[string]struct{})
	m.Walk(func(s *domain.State, _ int) {
		for _, target := range s.Transitions {
			if leaf := m.Initial(target); leaf != nil {
				set[leaf.ID] = struct{}{}
			}
		}
	})
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// reachableStates crawls transitions from the initial leaf of the root.
func reachableStates(m *statemachine.Machine) map[string]struct{} {
	visited := make(map[string]struct{})
	start := m.Initial(domain.RootStateID)
	if start == nil {
		return visited
	}

	queue := []string{start.ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		for _, target := range m.State(current).Transitions {
			if leaf := m.Initial(target); leaf != nil {
				queue = append(queue, leaf.ID)
			}
		}
	}
	return visited
}

package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *TickSession
		new      *TickSession
		wantDiff *SessionDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &TickSession{
				CurrentState:    "A",
				Contexts:        Contexts{"city": Value("Paris")},
				ObjectivesStack: []string{"B"},
				RanHandlers:     []string{"A"},
			},
			wantDiff: &SessionDiff{
				CurrentState:    &[]string{"A"}[0],
				Contexts:        Contexts{"city": Value("Paris")},
				ObjectivesStack: []string{"B"},
				RanHandlers:     []string{"A"},
			},
		},
		{
			name: "No Changes",
			old: &TickSession{
				CurrentState:    "A",
				Contexts:        Contexts{"city": Value("Paris")},
				ObjectivesStack: []string{"B"},
			},
			new: &TickSession{
				CurrentState:    "A",
				Contexts:        Contexts{"city": Value("Paris")},
				ObjectivesStack: []string{"B"},
			},
			wantDiff: nil,
		},
		{
			name: "Context Added & Modified",
			old: &TickSession{
				CurrentState: "A",
				Contexts:     Contexts{"a": Value("1"), "b": Value("old")},
			},
			new: &TickSession{
				CurrentState: "A",
				Contexts:     Contexts{"a": Value("1"), "b": Value("new"), "c": Value("x")},
			},
			wantDiff: &SessionDiff{
				Contexts: Contexts{"b": Value("new"), "c": Value("x")},
			},
		},
		{
			name: "Stack Popped",
			old: &TickSession{
				CurrentState:    "A",
				ObjectivesStack: []string{"B", "C"},
			},
			new: &TickSession{
				CurrentState:    "B",
				ObjectivesStack: []string{"B"},
				RanHandlers:     []string{"C"},
			},
			wantDiff: &SessionDiff{
				CurrentState:    &[]string{"B"}[0],
				ObjectivesStack: []string{"B"},
				RanHandlers:     []string{"C"},
			},
		},
		{
			name: "Context Deletion",
			old: &TickSession{
				Contexts: Contexts{"a": Value("1"), "b": Value("2")},
			},
			new: &TickSession{
				Contexts: Contexts{"a": Value("1")},
			},
			wantDiff: &SessionDiff{
				Contexts: Contexts{"b": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}
			if !reflect.DeepEqual(got.Contexts, tt.wantDiff.Contexts) {
				t.Errorf("Diff().Contexts = %v, want %v", got.Contexts, tt.wantDiff.Contexts)
			}
			if !reflect.DeepEqual(got.ObjectivesStack, tt.wantDiff.ObjectivesStack) {
				t.Errorf("Diff().ObjectivesStack = %v, want %v", got.ObjectivesStack, tt.wantDiff.ObjectivesStack)
			}
			if !reflect.DeepEqual(got.RanHandlers, tt.wantDiff.RanHandlers) {
				t.Errorf("Diff().RanHandlers = %v, want %v", got.RanHandlers, tt.wantDiff.RanHandlers)
			}
			if !equalPtr(got.CurrentState, tt.wantDiff.CurrentState) {
				t.Errorf("Diff().CurrentState = %v, want %v", got.CurrentState, tt.wantDiff.CurrentState)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &TickSession{Contexts: Contexts{"a": Value("1"), "b": Value("2")}}
		s2 := &TickSession{Contexts: Contexts{"a": Value("1")}}

		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
		if strings.Contains(string(bytes), `"current_state"`) {
			t.Errorf("JSON should not contain 'current_state' when unchanged, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

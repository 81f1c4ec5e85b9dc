package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/tickstory/pkg/domain"
)

// ErrEmptyInput is returned for lines without an intent.
var ErrEmptyInput = errors.New("input has no intent")

// ParseInput turns a line into a user action.
// It accepts a JSON object ({"intent": ..., "entities": {...}}) or the compact
// form "intent role=value role2=value2". Values may not contain spaces in the
// compact form.
func ParseInput(line string) (*domain.UserAction, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrEmptyInput
	}

	if strings.HasPrefix(line, "{") {
		var action domain.UserAction
		if err := json.Unmarshal([]byte(line), &action); err != nil {
			return nil, fmt.Errorf("invalid JSON action: %w", err)
		}
		if action.IntentName == "" {
			return nil, ErrEmptyInput
		}
		return &action, nil
	}

	fields := strings.Fields(line)
	action := &domain.UserAction{IntentName: fields[0]}
	if strings.Contains(action.IntentName, "=") {
		return nil, fmt.Errorf("%w: line starts with entity %q", ErrEmptyInput, action.IntentName)
	}
	for _, f := range fields[1:] {
		role, value, ok := strings.Cut(f, "=")
		if !ok || role == "" {
			return nil, fmt.Errorf("invalid entity %q: expected role=value", f)
		}
		if action.Entities == nil {
			action.Entities = make(map[string]string)
		}
		action.Entities[role] = value
	}
	return action, nil
}

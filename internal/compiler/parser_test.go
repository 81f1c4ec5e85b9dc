package compiler_test

import (
	"errors"
	"os"
	"testing"

	"github.com/aretw0/tickstory/internal/compiler"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_YAML(t *testing.T) {
	data, err := os.ReadFile("testdata/weather.yaml")
	require.NoError(t, err)

	cfg, err := compiler.NewParser().Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "weather", cfg.Name)
	assert.False(t, cfg.Debug)
	require.Len(t, cfg.Actions, 4)

	book, ok := cfg.Action("book")
	require.True(t, ok)
	assert.Equal(t, "confirm", book.AnswerID)
	assert.Equal(t, []string{"city", "weather"}, book.Preconditions)
	assert.True(t, book.Final, "weakly typed booleans are accepted")

	weather, _ := cfg.Action("fetch_weather")
	assert.True(t, weather.Silent)

	assert.Equal(t, []domain.TickContext{
		{Name: "city", EntityRole: "location"},
		{Name: "weather"},
	}, cfg.Contexts)
	assert.Contains(t, cfg.Answers["confirm"], "{{.city}}")

	m, err := statemachine.New(cfg.Name, cfg.Machine)
	require.NoError(t, err)
	assert.Equal(t, "start", m.Initial(domain.RootStateID).ID)
	assert.Equal(t, "booking", m.Next("start", "book").ID)
	assert.Equal(t, "book", m.Initial("booking").ID)
	assert.Equal(t, []string{"book", "done", "fetch_city", "fetch_weather", "start"}, m.LeafStates())
	assert.Equal(t, []string{"book", "restart"}, m.Transitions())
}

func TestParser_JSON(t *testing.T) {
	data := []byte(`{
		"name": "tiny",
		"debug": true,
		"machine": {"initial": "A", "states": {"A": {"transitions": {"go": "B"}}, "B": {}}},
		"actions": [{"name": "A"}, {"name": "B", "final": true}]
	}`)

	cfg, err := compiler.NewParser().Parse(data)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "B", cfg.Machine.States["A"].Transitions["go"])
	assert.Equal(t, domain.RootStateID, cfg.Machine.ID)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{
			name: "Self loop",
			data: "name: x\nmachine:\n  states:\n    A:\n      transitions: {again: A}\nactions: [{name: A}]\n",
			want: domain.ErrSelfLoop,
		},
		{
			name: "Duplicate action",
			data: "name: x\nmachine:\n  states: {A: {}}\nactions: [{name: A}, {name: A}]\n",
			want: domain.ErrDuplicateAction,
		},
		{
			name: "Missing machine",
			data: "name: x\nactions: [{name: A}]\n",
			want: domain.ErrMissingMachine,
		},
		{
			name: "Unknown target",
			data: "name: x\nmachine:\n  states:\n    A:\n      transitions: {go: nowhere}\n",
			want: domain.ErrUnknownTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.NewParser().Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var cfgErr *domain.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}

	t.Run("Unknown field", func(t *testing.T) {
		_, err := compiler.NewParser().Parse([]byte("name: x\nmachine: {states: {A: {}}}\nactoins: []\n"))
		assert.ErrorContains(t, err, "actoins")
	})

	t.Run("Missing name", func(t *testing.T) {
		_, err := compiler.NewParser().Parse([]byte("machine: {states: {A: {}}}\n"))
		assert.Error(t, err)
	})

	t.Run("Empty document", func(t *testing.T) {
		_, err := compiler.NewParser().Parse([]byte(""))
		assert.Error(t, err)
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		_, err := compiler.NewParser().Parse([]byte("name: [unclosed"))
		assert.Error(t, err)
	})
}

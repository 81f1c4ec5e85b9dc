package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/tickstory/internal/presentation/graph"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/dsl"
	"github.com/aretw0/tickstory/pkg/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingStory(t *testing.T) (*domain.TickConfiguration, *statemachine.Machine) {
	t.Helper()
	b := dsl.New("weather").Initial("start")
	b.State("start").On("book", "booking")
	b.State("booking").Initial("book")
	b.State("booking").Child("book")
	b.State("booking").Child("fetch-city")
	b.On("restart", "start")
	b.State("help")

	b.Step("start")
	b.Step("book").Final()
	b.Step("fetch-city").Silent()

	cfg, err := b.Build()
	require.NoError(t, err)
	m, err := statemachine.New(cfg.Name, cfg.Machine)
	require.NoError(t, err)
	return cfg, m
}

func TestGenerateMermaid(t *testing.T) {
	cfg, m := bookingStory(t)

	out := graph.GenerateMermaid(cfg, m, nil)

	for _, want := range []string{
		"graph TD\n",
		`    subgraph booking ["booking"]`,
		`        book(["book"])`,
		`        fetch_city[["fetch-city"]]`,
		`    help[/"help"/]`,
		`    start(("start"))`,
		`    start -- "book" --> booking`,
		`    __root__{{"root"}}`,
		`    __root__ -- "restart" --> start`,
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 1, strings.Count(out, "subgraph"))
	assert.Equal(t, 1, strings.Count(out, "    end\n"))
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	cfg, m := bookingStory(t)

	session := domain.NewSession()
	session.CurrentState = "fetch-city"
	session.Push("book")
	session.MarkRun("start")
	session.MarkRun("fetch-city")
	session.MarkRun("ghost")

	out := graph.GenerateMermaid(cfg, m, graph.OverlayFrom(session))

	assert.Contains(t, out, "class start ran;")
	assert.Contains(t, out, "class book objective;")
	assert.Contains(t, out, "class fetch_city current;")
	assert.NotContains(t, out, "fetch_city ran")
	assert.NotContains(t, out, "ghost")
}

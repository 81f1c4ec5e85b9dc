package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/tickstory"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/dsl"
	"github.com/aretw0/tickstory/pkg/registry"
	"github.com/aretw0/tickstory/pkg/runner"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *tickstory.Engine {
	t.Helper()
	b := dsl.New("weather").Initial("start")
	b.State("start").On("book", "book")
	b.Step("start")
	b.Step("book").Answer("confirm").Needs("city").Final()
	b.Step("fetch_city").Handler("lookup_city").Answer("looking").Produces("city").Silent()
	b.Context("city", "location")
	b.Answer("confirm", "Booked {{.city}}.").Answer("looking", "Looking up your city")

	handlers := registry.NewRegistry()
	handlers.Register("lookup_city", func(context.Context, domain.Contexts) (domain.Contexts, error) {
		return domain.Contexts{"city": domain.Value("Paris")}, nil
	})

	eng, err := tickstory.New(b.MustBuild(), tickstory.WithHandlers(handlers), tickstory.WithLogger(slogt.New(t)))
	require.NoError(t, err)
	return eng
}

func TestRunner_TextSession(t *testing.T) {
	eng := newEngine(t)
	input := strings.Join([]string{
		"/state",
		"book",
		"dance",
		"=oops",
		"/reset",
		"/bogus",
		"book location=Lyon",
		"quit",
		"book",
	}, "\n")

	var out bytes.Buffer
	r := runner.New(
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(input), &out, runner.WithPrompt(""))),
		runner.WithConversationID("t1"),
		runner.WithLogger(slogt.New(t)),
	)

	require.NoError(t, r.Run(context.Background(), eng))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, ">>> Conversation 't1' started.", lines[0])
	assert.Equal(t, ">>> No session yet.", lines[1])
	assert.Equal(t, "Booked Paris.", lines[2], "silent answers are not printed")
	assert.Equal(t, ">>> Story finished. Type /reset to start over.", lines[3])
	assert.Contains(t, lines[4], "next state not found")
	assert.Contains(t, lines[5], "input has no intent")
	assert.Equal(t, ">>> Conversation 't1' reset.", lines[6])
	assert.Contains(t, lines[7], "Unknown command")
	assert.Equal(t, "Booked Lyon.", lines[8])
	assert.Equal(t, ">>> Story finished. Type /reset to start over.", lines[9])
}

func TestRunner_Resumes(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()
	_, err := eng.HandleTurn(ctx, "t1", &domain.UserAction{IntentName: "book", Entities: map[string]string{"location": "Rome"}})
	require.NoError(t, err)

	var out bytes.Buffer
	r := runner.New(
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(""), &out, runner.WithPrompt(""))),
		runner.WithConversationID("t1"),
	)
	require.NoError(t, r.Run(ctx, eng))
	assert.Equal(t, ">>> Resuming conversation 't1' at 'book'.\n", out.String())
}

func TestRunner_StopOnFinal(t *testing.T) {
	eng := newEngine(t)

	var out bytes.Buffer
	r := runner.New(
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("book\nbook\n"), &out, runner.WithPrompt(""))),
		runner.WithStopOnFinal(true),
	)
	require.NoError(t, r.Run(context.Background(), eng))
	assert.Equal(t, 1, strings.Count(out.String(), "Booked Paris."))
	assert.NotContains(t, out.String(), "Error", "the second line is never read")
}

func TestRunner_JSONHandler(t *testing.T) {
	eng := newEngine(t)
	input := `{"intent": "book", "entities": {"location": "Oslo"}}` + "\n\n/state\n"

	var out bytes.Buffer
	r := runner.New(runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader(input), &out)))
	require.NoError(t, r.Run(context.Background(), eng))

	dec := json.NewDecoder(&out)

	var started map[string]string
	require.NoError(t, dec.Decode(&started))
	assert.Equal(t, "Conversation 'cli' started.", started["system"])

	var res tickstory.TurnResult
	require.NoError(t, dec.Decode(&res))
	assert.True(t, res.Final)
	assert.Equal(t, "cli", res.ConversationID)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Booked Oslo.", res.Messages[0].Text)

	var finished, state map[string]string
	require.NoError(t, dec.Decode(&finished))
	require.NoError(t, dec.Decode(&state))
	assert.Contains(t, state["system"], `"current_state":"book"`)
}

func TestRunner_ContextCancelled(t *testing.T) {
	eng := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.New(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("book\n"), &bytes.Buffer{})))
	assert.ErrorIs(t, r.Run(ctx, eng), context.Canceled)
}

func TestRunner_SanitizesActions(t *testing.T) {
	eng := newEngine(t)
	input := `{"intent": "book now"}` + "\n" + `{"intent": " book ", "entities": {"location": "Ri\u0007ga"}}` + "\n"

	var out bytes.Buffer
	r := runner.New(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(input), &out, runner.WithPrompt(""))))
	require.NoError(t, r.Run(context.Background(), eng))

	assert.Contains(t, out.String(), "invalid intent")
	assert.Contains(t, out.String(), "Booked Riga.")
}

package tickstory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tickstory"
	"github.com/aretw0/tickstory/pkg/adapters/memory"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/dsl"
	"github.com/aretw0/tickstory/pkg/registry"
	"github.com/aretw0/tickstory/pkg/responder"
	"github.com/aretw0/tickstory/pkg/solver"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherStory() *domain.TickConfiguration {
	b := dsl.New("weather").Initial("start")
	b.State("start").On("book", "book")
	b.Step("start").Answer("greet")
	b.Step("book").Answer("confirm").Needs("city").Final()
	b.Step("fetch_city").Handler("lookup_city").Produces("city").Silent()
	b.Context("city", "location")
	b.Answer("greet", "Where to?").Answer("confirm", "Booked {{.city}}.")
	return b.MustBuild()
}

func newEngine(t *testing.T, opts ...tickstory.Option) *tickstory.Engine {
	t.Helper()
	handlers := registry.NewRegistry()
	handlers.Register("lookup_city", func(_ context.Context, _ domain.Contexts) (domain.Contexts, error) {
		return domain.Contexts{"city": domain.Value("Paris")}, nil
	})
	base := []tickstory.Option{
		tickstory.WithHandlers(handlers),
		tickstory.WithPicker(solver.FirstPicker{}),
		tickstory.WithLogger(slogt.New(t)),
	}
	eng, err := tickstory.New(weatherStory(), append(base, opts...)...)
	require.NoError(t, err)
	return eng
}

func TestEngine_HandleTurn(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	res, err := eng.HandleTurn(ctx, "c1", &domain.UserAction{IntentName: "book"})
	require.NoError(t, err)

	assert.Equal(t, "c1", res.ConversationID)
	assert.True(t, res.Final)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, "fetch_city", res.Steps[0].Secondary)
	assert.Equal(t, "book", res.Steps[1].Secondary)
	assert.Equal(t, []string{"Booked Paris."}, responder.Visible(res.Messages))

	stored, err := eng.Session(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "book", stored.CurrentState)
	assert.Equal(t, res.Session.Contexts.Plain(), stored.Contexts.Plain())

	ids, err := eng.Conversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)
}

func TestEngine_EntitiesSkipHelpers(t *testing.T) {
	eng := newEngine(t)

	res, err := eng.HandleTurn(context.Background(), "c1", &domain.UserAction{
		IntentName: "book",
		Entities:   map[string]string{"location": "Lyon"},
	})
	require.NoError(t, err)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, []string{"Booked Lyon."}, responder.Visible(res.Messages))
}

func TestEngine_FailedTurnIsNotPersisted(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.HandleTurn(ctx, "c1", &domain.UserAction{IntentName: "dance"})
	require.ErrorIs(t, err, domain.ErrNextStateNotFound)

	var te *domain.TurnError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.PhaseResolvePrimary, te.Phase)

	_, err = eng.Session(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_Reset(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.HandleTurn(ctx, "c1", &domain.UserAction{IntentName: "book"})
	require.NoError(t, err)

	require.NoError(t, eng.Reset(ctx, "c1"))
	_, err = eng.Session(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, eng.Reset(ctx, "never-seen"))
}

func TestEngine_EmptyConversationID(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.HandleTurn(context.Background(), "", &domain.UserAction{IntentName: "book"})
	assert.ErrorIs(t, err, tickstory.ErrEmptyConversationID)
}

func TestEngine_ComposesHooks(t *testing.T) {
	var first, second int
	eng := newEngine(t,
		tickstory.WithHooks(domain.TickHooks{
			OnTurnEnd: func(context.Context, *domain.TurnEvent) { first++ },
		}),
		tickstory.WithHooks(domain.TickHooks{
			OnActionExecuted: func(context.Context, *domain.ActionEvent) { second++ },
		}),
	)

	_, err := eng.HandleTurn(context.Background(), "c1", &domain.UserAction{IntentName: "book"})
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestEngine_SharedStore(t *testing.T) {
	store := memory.NewStore()
	a := newEngine(t, tickstory.WithStore(store))
	b := newEngine(t, tickstory.WithStore(store))
	ctx := context.Background()

	_, err := a.HandleTurn(ctx, "c1", &domain.UserAction{IntentName: "book"})
	require.NoError(t, err)

	s, err := b.Session(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "book", s.CurrentState)
}

func TestNew_InvalidStory(t *testing.T) {
	_, err := tickstory.New(nil)
	assert.ErrorIs(t, err, domain.ErrMissingMachine)

	cfg := weatherStory()
	cfg.Machine.Initial = "nowhere"
	_, err = tickstory.New(cfg)
	var ce *domain.ConfigurationError
	assert.True(t, errors.As(err, &ce))

	cfg = weatherStory()
	cfg.Answers["broken"] = "{{.city"
	_, err = tickstory.New(cfg)
	assert.Error(t, err)
}

func TestNewFromLoader(t *testing.T) {
	loader, err := memory.NewLoader(weatherStory())
	require.NoError(t, err)
	ctx := context.Background()

	eng, err := tickstory.NewFromLoader(ctx, loader, "weather")
	require.NoError(t, err)
	assert.Equal(t, "weather", eng.Config().Name)
	assert.NotNil(t, eng.Machine().State("fetch_city"))

	_, err = tickstory.NewFromLoader(ctx, loader, "missing")
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
}

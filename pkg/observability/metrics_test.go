package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()
	base := domain.EventBase{Story: "weather"}

	hooks.OnActionExecuted(ctx, &domain.ActionEvent{EventBase: base, Action: "book", Mode: domain.DeliveryVisible})
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{EventBase: base, Steps: 3, Depth: 1, Duration: time.Millisecond})
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{EventBase: base, Steps: 1, Final: true})
	hooks.OnTurnError(ctx, &domain.TurnEvent{EventBase: base, Err: &domain.TurnError{
		Phase: domain.PhaseResolvePrimary,
		Err:   domain.ErrNextStateNotFound,
	}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("weather", "book", "visible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("weather", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("weather", "final")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("weather", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turnErrors.WithLabelValues("weather", "resolving_primary")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.depth.WithLabelValues("weather")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.chainLength))
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := domain.ComposeHooks(LoggingHooks(logger))

	ctx := context.Background()
	base := domain.EventBase{Story: "weather"}
	hooks.OnTurnStart(ctx, &domain.TurnEvent{EventBase: base, Intent: "book"})
	hooks.OnContexts(ctx, &domain.ContextsEvent{EventBase: base, Action: "fetch_city", Contexts: domain.Contexts{"city": domain.Value("Paris")}})
	hooks.OnTurnError(ctx, &domain.TurnEvent{EventBase: base, Err: domain.ErrNoCandidate})

	out := buf.String()
	assert.Contains(t, out, "msg=turn_start")
	assert.Contains(t, out, "intent=book")
	assert.Contains(t, out, "map[city:Paris]")
	assert.Equal(t, 3, strings.Count(out, "story=weather"))
}

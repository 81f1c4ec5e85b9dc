package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	conversationID := "contract-test-conversation-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession()
		session.CurrentState = "ask_city"
		session.Contexts.Set("city", "Paris")
		session.Contexts.Clear("date")
		session.Push("booking")
		session.MarkRun("greet")

		err := store.Save(ctx, conversationID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "ask_city", loaded.CurrentState)
		assert.Equal(t, []string{"booking"}, loaded.ObjectivesStack)
		assert.Equal(t, []string{"greet"}, loaded.RanHandlers)

		city, ok := loaded.Contexts.Get("city")
		assert.True(t, ok)
		assert.Equal(t, "Paris", city)

		date, present := loaded.Contexts["date"]
		assert.True(t, present, "explicitly cleared contexts survive a round trip")
		assert.Nil(t, date)
	})

	t.Run("Isolation", func(t *testing.T) {
		session := domain.NewSession()
		session.Contexts.Set("city", "Paris")
		require.NoError(t, store.Save(ctx, conversationID, session))

		// Mutating the caller's copy must not leak into the store.
		session.Contexts.Set("city", "Lyon")

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err)
		city, _ := loaded.Contexts.Get("city")
		assert.Equal(t, "Paris", city)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, conversationID, domain.NewSession())
		require.NoError(t, err)

		err = store.Delete(ctx, conversationID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession())
		_ = store.Save(ctx, id2, domain.NewSession())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		conversations, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, conversations, id1)
		assert.Contains(t, conversations, id2)
	})
}

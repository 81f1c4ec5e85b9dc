package middleware_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/aretw0/tickstory/pkg/adapters/memory"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/persistence/middleware"
	"github.com/aretw0/tickstory/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := rand.Read(k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.SessionStore, cfg middleware.EncryptionConfig) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	inner := memory.NewStore()
	store := encrypted(t, inner, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	original := domain.NewSession()
	original.CurrentState = "ask_card"
	original.Contexts.Set("secret", "my-secret-sauce")
	original.Push("checkout")
	require.NoError(t, store.Save(ctx, "c1", original))

	envelope, err := inner.Load(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, envelope.Contexts.Has("secret"))
	assert.True(t, envelope.Contexts.Has(middleware.EnvelopeKey))
	assert.Equal(t, middleware.EnvelopeState, envelope.CurrentState)
	assert.Empty(t, envelope.ObjectivesStack, "envelope leaks the session structure")

	loaded, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ask_card", loaded.CurrentState)
	assert.Equal(t, []string{"checkout"}, loaded.ObjectivesStack)
	v, _ := loaded.Contexts.Get("secret")
	assert.Equal(t, "my-secret-sauce", v)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	inner := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	before := encrypted(t, inner, middleware.EncryptionConfig{ActiveKey: oldKey})
	s := domain.NewSession()
	s.Contexts.Set("data", "old")
	require.NoError(t, before.Save(ctx, "c1", s))

	after := encrypted(t, inner, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := after.Load(ctx, "c1")
	require.NoError(t, err)
	v, _ := loaded.Contexts.Get("data")
	assert.Equal(t, "old", v)

	loaded.Contexts.Set("data", "new")
	require.NoError(t, after.Save(ctx, "c1", loaded))

	_, err = before.Load(ctx, "c1")
	assert.ErrorIs(t, err, middleware.ErrDecrypt)
}

func TestEncryptionMiddleware_EnvelopeBoundToConversation(t *testing.T) {
	inner := memory.NewStore()
	store := encrypted(t, inner, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice", domain.NewSession()))
	envelope, err := inner.Load(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, inner.Save(ctx, "mallory", envelope))

	_, err = store.Load(ctx, "mallory")
	assert.ErrorIs(t, err, middleware.ErrDecrypt)
}

func TestEncryptionMiddleware_RejectsPlainSessions(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, inner.Save(ctx, "plain", domain.NewSession()))

	store := encrypted(t, inner, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

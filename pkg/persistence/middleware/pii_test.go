package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/tickstory/pkg/adapters/memory"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	inner := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"password", "^ssn"})
	require.NoError(t, err)
	store := mw(inner)
	ctx := context.Background()

	session := domain.NewSession()
	session.Contexts.Set("username", "jdoe")
	session.Contexts.Set("user_password", "secret123")
	session.Contexts.Set("ssn_number", "999-99-9999")
	session.Contexts.Clear("password_hint")
	require.NoError(t, store.Save(ctx, "c1", session))

	v, _ := session.Contexts.Get("user_password")
	assert.Equal(t, "secret123", v, "caller's session must not be modified")

	stored, err := inner.Load(ctx, "c1")
	require.NoError(t, err)

	v, _ = stored.Contexts.Get("username")
	assert.Equal(t, "jdoe", v)
	v, _ = stored.Contexts.Get("user_password")
	assert.Equal(t, middleware.Mask, v)
	v, _ = stored.Contexts.Get("ssn_number")
	assert.Equal(t, middleware.Mask, v)

	hint, present := stored.Contexts["password_hint"]
	assert.True(t, present)
	assert.Nil(t, hint, "cleared contexts stay null")
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	inner := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"card"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	// Masking runs first, then the masked session is encrypted.
	store := middleware.Chain(inner, pii, enc)
	ctx := context.Background()

	session := domain.NewSession()
	session.Contexts.Set("card", "4111")
	require.NoError(t, store.Save(ctx, "c1", session))

	raw, err := inner.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, middleware.EnvelopeState, raw.CurrentState)

	loaded, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	v, _ := loaded.Contexts.Get("card")
	assert.Equal(t, middleware.Mask, v)
}

package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
)

// EnvelopeKey is the context holding the ciphertext inside an encrypted envelope.
const EnvelopeKey = "__encrypted__"

// EnvelopeState is the CurrentState of an encrypted envelope.
const EnvelopeState = "encrypted"

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

var (
	// ErrInvalidKey is returned for keys that are not KeySize bytes long.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")
	// ErrNotEncrypted is returned when the wrapped store holds a plain session.
	ErrNotEncrypted = errors.New("session is not an encrypted envelope")
	// ErrDecrypt is returned when no configured key opens the envelope.
	ErrDecrypt = errors.New("session could not be decrypted with any configured key")
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts every save.
	ActiveKey []byte

	// FallbackKeys are tried in order after ActiveKey, to read sessions
	// written before a key rotation.
	FallbackKeys [][]byte
}

// keyring holds one AEAD per key; the first one seals.
type keyring []cipher.AEAD

func newKeyring(cfg EncryptionConfig) (keyring, error) {
	keys := append([][]byte{cfg.ActiveKey}, cfg.FallbackKeys...)
	ring := make(keyring, 0, len(keys))
	for i, k := range keys {
		if len(k) != KeySize {
			if i == 0 {
				return nil, ErrInvalidKey
			}
			return nil, fmt.Errorf("fallback key %d: %w", i-1, ErrInvalidKey)
		}
		block, err := aes.NewCipher(k)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		ring = append(ring, aead)
	}
	return ring, nil
}

// seal returns nonce||ciphertext. The conversation id is authenticated so an
// envelope copied to another conversation fails to open.
func (r keyring) seal(plain []byte, conversationID string) ([]byte, error) {
	aead := r[0]
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, []byte(conversationID)), nil
}

func (r keyring) open(sealed []byte, conversationID string) ([]byte, error) {
	for _, aead := range r {
		n := aead.NonceSize()
		if len(sealed) < n {
			break
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], []byte(conversationID)); err == nil {
			return plain, nil
		}
	}
	return nil, ErrDecrypt
}

type encryptionStore struct {
	next ports.SessionStore
	keys keyring
}

// NewEncryptionMiddleware stores sessions as AES-GCM encrypted envelopes.
// The wrapped store only ever sees EnvelopeState and EnvelopeKey; loading a
// plain session fails with ErrNotEncrypted.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	keys, err := newKeyring(config)
	if err != nil {
		return nil, err
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionStore{next: next, keys: keys}
	}, nil
}

func (m *encryptionStore) Save(ctx context.Context, conversationID string, session domain.TickSession) error {
	plain, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	sealed, err := m.keys.seal(plain, conversationID)
	if err != nil {
		return fmt.Errorf("encrypt session: %w", err)
	}

	envelope := domain.NewSession()
	envelope.CurrentState = EnvelopeState
	envelope.Contexts.Set(EnvelopeKey, base64.StdEncoding.EncodeToString(sealed))
	return m.next.Save(ctx, conversationID, envelope)
}

func (m *encryptionStore) Load(ctx context.Context, conversationID string) (domain.TickSession, error) {
	envelope, err := m.next.Load(ctx, conversationID)
	if err != nil {
		return domain.TickSession{}, err
	}

	encoded, ok := envelope.Contexts.Get(EnvelopeKey)
	if !ok {
		return domain.TickSession{}, fmt.Errorf("conversation %q: %w", conversationID, ErrNotEncrypted)
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return domain.TickSession{}, fmt.Errorf("conversation %q: malformed envelope: %w", conversationID, err)
	}
	plain, err := m.keys.open(sealed, conversationID)
	if err != nil {
		return domain.TickSession{}, fmt.Errorf("conversation %q: %w", conversationID, err)
	}

	var session domain.TickSession
	if err := json.Unmarshal(plain, &session); err != nil {
		return domain.TickSession{}, fmt.Errorf("decode session: %w", err)
	}
	if session.Contexts == nil {
		session.Contexts = make(domain.Contexts)
	}
	return session, nil
}

func (m *encryptionStore) Delete(ctx context.Context, conversationID string) error {
	return m.next.Delete(ctx, conversationID)
}

func (m *encryptionStore) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces the session keys and their index.
const DefaultPrefix = "tickstory:session:"

// Sessions live under prefix+"data:" so no conversation id can collide with
// the index key.
const (
	dataSpace = "data:"
	indexName = "index"
)

// neverExpires scores index entries of sessions stored without a TTL.
const neverExpires = float64(1 << 53)

// Store keeps each session as a JSON string under prefix+"data:"+id. The
// sorted set prefix+"index" maps ids to their expiry in unix milliseconds so List can
// skip sessions Redis already evicted.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

var _ ports.SessionStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTTL expires sessions ttl after their last save. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock sets the time source used to score and prune the index.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New dials Redis at address.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient wraps an existing client. Close closes it.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying client so a Locker can share the connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) sessionKey(id string) string { return s.prefix + dataSpace + id }

func (s *Store) indexKey() string { return s.prefix + indexName }

func (s *Store) expiry() float64 {
	if s.ttl <= 0 {
		return neverExpires
	}
	return float64(s.now().Add(s.ttl).UnixMilli())
}

// Save writes the session and its index entry in one transaction.
func (s *Store) Save(ctx context.Context, conversationID string, session domain.TickSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", conversationID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(p backend.Pipeliner) error {
		p.Set(ctx, s.sessionKey(conversationID), data, s.ttl)
		p.ZAdd(ctx, s.indexKey(), backend.Z{Score: s.expiry(), Member: conversationID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %q: %w", conversationID, err)
	}
	return nil
}

// Load reads a session; a missing or expired key is domain.ErrSessionNotFound.
func (s *Store) Load(ctx context.Context, conversationID string) (domain.TickSession, error) {
	data, err := s.client.Get(ctx, s.sessionKey(conversationID)).Bytes()
	switch {
	case errors.Is(err, backend.Nil):
		return domain.TickSession{}, domain.ErrSessionNotFound
	case err != nil:
		return domain.TickSession{}, fmt.Errorf("redis load %q: %w", conversationID, err)
	}

	var session domain.TickSession
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.TickSession{}, fmt.Errorf("decode session %q: %w", conversationID, err)
	}
	if session.Contexts == nil {
		session.Contexts = make(domain.Contexts)
	}
	return session, nil
}

// Delete removes the session and its index entry. Unknown ids are not an error.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	_, err := s.client.TxPipelined(ctx, func(p backend.Pipeliner) error {
		p.Del(ctx, s.sessionKey(conversationID))
		p.ZRem(ctx, s.indexKey(), conversationID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %q: %w", conversationID, err)
	}
	return nil
}

// List drops index entries whose expiry has passed and returns the rest.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", now).Err(); err != nil {
		return nil, fmt.Errorf("redis prune index: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	return ids, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

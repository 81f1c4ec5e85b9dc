package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
)

// Mask replaces the value of every masked context.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the values of contexts whose
// name matches one of the patterns before they reach the wrapped store.
// Cleared (null) contexts stay null.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PII pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, conversationID string, session domain.TickSession) error {
	// The caller keeps using its session, so mask a copy.
	masked := session.Clone()
	for name, v := range masked.Contexts {
		if v != nil && m.matches(name) {
			masked.Contexts.Set(name, Mask)
		}
	}
	return m.next.Save(ctx, conversationID, masked)
}

func (m *piiMiddleware) matches(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, conversationID string) (domain.TickSession, error) {
	return m.next.Load(ctx, conversationID)
}

func (m *piiMiddleware) Delete(ctx context.Context, conversationID string) error {
	return m.next.Delete(ctx, conversationID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

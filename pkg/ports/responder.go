package ports

import (
	"context"

	"github.com/aretw0/tickstory/pkg/domain"
)

// Responder resolves an answer id to a deliverable message and delivers it.
// The processor only decides whether and in which mode delivery happens.
type Responder interface {
	Send(ctx context.Context, req domain.AnswerRequest) error
}

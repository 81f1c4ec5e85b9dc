package responder

import (
	"context"
	"sync"

	"github.com/aretw0/tickstory/pkg/domain"
)

// Recorder is a Sink that keeps delivered messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Deliver implements Sink.
func (r *Recorder) Deliver(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of everything delivered so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Drain returns the delivered messages and resets the recorder.
func (r *Recorder) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.messages
	r.messages = nil
	return out
}

// Visible returns the texts of the messages a user would see.
func Visible(msgs []Message) []string {
	var out []string
	for _, m := range msgs {
		if m.Mode != domain.DeliverySuppressed {
			out = append(out, m.Text)
		}
	}
	return out
}

type recorderKey struct{}

// NewContext returns a context carrying r, for per-request collection.
func NewContext(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// FromContext returns the recorder stored by NewContext, if any.
func FromContext(ctx context.Context) (*Recorder, bool) {
	r, ok := ctx.Value(recorderKey{}).(*Recorder)
	return r, ok
}

// ContextSink delivers to the recorder carried by ctx and drops the message
// when there is none.
func ContextSink(ctx context.Context, msg Message) error {
	if r, ok := FromContext(ctx); ok {
		return r.Deliver(ctx, msg)
	}
	return nil
}

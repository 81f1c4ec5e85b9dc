package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/tickstory/internal/logging"
	"github.com/go-chi/chi/v5"
)

// SubscriberBuffer is the number of turn events a slow stream may lag behind.
const SubscriberBuffer = 10

// Hub fans turn results out to the event streams open on each conversation.
type Hub struct {
	logger *slog.Logger

	mu     sync.Mutex
	topics map[string]map[*subscription]struct{}
}

type subscription struct {
	events chan []byte
}

// NewHub creates a hub. A nil logger discards drop warnings.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{logger: logger, topics: make(map[string]map[*subscription]struct{})}
}

// Subscribe opens a stream on a conversation. The returned function closes it
// and must be called exactly once.
func (h *Hub) Subscribe(conversationID string) (<-chan []byte, func()) {
	sub := &subscription{events: make(chan []byte, SubscriberBuffer)}

	h.mu.Lock()
	topic := h.topics[conversationID]
	if topic == nil {
		topic = make(map[*subscription]struct{})
		h.topics[conversationID] = topic
	}
	topic[sub] = struct{}{}
	h.mu.Unlock()

	return sub.events, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(topic, sub)
		if len(h.topics[conversationID]) == 0 {
			delete(h.topics, conversationID)
		}
		close(sub.events)
	}
}

// Publish delivers event to every stream of the conversation and returns how
// many received it. A stream with a full buffer misses the event.
func (h *Hub) Publish(conversationID string, event []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for sub := range h.topics[conversationID] {
		select {
		case sub.events <- event:
			delivered++
		default:
			h.logger.Warn("event stream lagging, event dropped", "conversation", conversationID)
		}
	}
	return delivered
}

// Subscribers returns the number of open streams of a conversation.
func (h *Hub) Subscribers(conversationID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[conversationID])
}

// SubscribeEvents handles GET /conversations/{id}/events.
// A "ping" event confirms the stream, then each successful turn of the
// conversation arrives as a "turn" event carrying the TurnResult.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	events, closeStream := s.Hub.Subscribe(id)
	defer closeStream()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")

	logger := s.Logger.With("conversation", id, "request_id", RequestID(r.Context()))
	logger.Debug("event stream opened")
	writeEvent(w, flusher, "ping", []byte("connected"))

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("event stream closed")
			return
		case data, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, flusher, "turn", data)
		}
	}
}

func writeEvent(w http.ResponseWriter, f http.Flusher, name string, data []byte) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	f.Flush()
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/tickstory"
	"github.com/aretw0/tickstory/internal/logging"
	"github.com/aretw0/tickstory/internal/presentation/graph"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/runner"
	"github.com/aretw0/tickstory/pkg/statemachine"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id, generated when the client sends none.
const RequestIDHeader = "X-Request-Id"

// MaxBodySize bounds turn request bodies.
const MaxBodySize = 64 << 10

// Engine defines what the server needs from a tickstory engine.
type Engine interface {
	HandleTurn(ctx context.Context, conversationID string, action *domain.UserAction) (*tickstory.TurnResult, error)
	Session(ctx context.Context, conversationID string) (domain.TickSession, error)
	Reset(ctx context.Context, conversationID string) error
	Conversations(ctx context.Context) ([]string, error)
	Machine() *statemachine.Machine
	Config() *domain.TickConfiguration
}

// Server exposes an Engine over HTTP.
type Server struct {
	Engine Engine
	Hub    *Hub
	Logger *slog.Logger

	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.Logger = l
		}
	}
}

// WithMetricsHandler serves h on GET /metrics, typically promhttp.HandlerFor.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// TurnRequest is the body of POST /conversations/{id}/turns.
// An empty intent resumes a pending silent chain.
type TurnRequest struct {
	Intent   string            `json:"intent"`
	Entities map[string]string `json:"entities,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Phase     string `json:"phase,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine: engine,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Hub = NewHub(s.Logger)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/graph", s.GetGraph)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", s.ListConversations)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/turns", s.PostTurn)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

type requestIDKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostTurn handles POST /conversations/{id}/turns.
func (s *Server) PostTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logger := s.Logger.With("request_id", RequestID(r.Context()), "conversation", id)

	var body TurnRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logger.Warn("PostTurn: invalid request body", "error", err)
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	action, err := sanitizeTurn(body)
	if err != nil {
		logger.Warn("PostTurn: input rejected", "error", err)
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	res, err := s.Engine.HandleTurn(r.Context(), id, action)
	if err != nil {
		logger.Info("PostTurn: turn failed", "error", err)
		s.writeError(w, r, statusFor(err), err)
		return
	}
	logger.Debug("PostTurn: turn done", "state", res.Session.CurrentState, "final", res.Final)

	if data, err := json.Marshal(res); err == nil {
		s.Hub.Publish(id, data)
	}
	s.writeJSON(w, http.StatusOK, res)
}

func sanitizeTurn(body TurnRequest) (*domain.UserAction, error) {
	if strings.TrimSpace(body.Intent) == "" {
		if len(body.Entities) > 0 {
			return nil, errors.New("entities require an intent")
		}
		return nil, nil
	}
	return runner.NewSanitizer().Action(&domain.UserAction{IntentName: body.Intent, Entities: body.Entities})
}

// GetSession handles GET /conversations/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.Engine.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /conversations/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListConversations handles GET /conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Conversations(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"conversations": ids})
}

// GetGraph handles GET /graph. With ?conversation=id the session is overlaid.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.Overlay
	if id := r.URL.Query().Get("conversation"); id != "" {
		session, err := s.Engine.Session(r.Context(), id)
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
		overlay = graph.OverlayFrom(session)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.Engine.Config(), s.Engine.Machine(), overlay))
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"story":   s.Engine.Config().Name,
		"version": strings.TrimSpace(tickstory.Version),
	})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var turnErr *domain.TurnError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, tickstory.ErrEmptyConversationID):
		return http.StatusBadRequest
	case errors.As(err, &turnErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())}
	var turnErr *domain.TurnError
	if errors.As(err, &turnErr) {
		resp.Phase = string(turnErr.Phase)
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

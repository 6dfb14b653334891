package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nholik/progress-sentinel/internal/metrics"
	"github.com/nholik/progress-sentinel/internal/progress"
	"github.com/rs/zerolog"
)

// SourceHTTP names the HTTP ingress.
const SourceHTTP = "http"

const maxEventBytes = 1 << 20

// EventRequest is the JSON body accepted by POST /v1/events.
type EventRequest struct {
	ID       string         `json:"id"`
	Document string         `json:"document"`
	Before   map[string]any `json:"before,omitempty"`
	After    map[string]any `json:"after"`
}

type eventResponse struct {
	Status  string `json:"status"`
	EventID string `json:"event_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HTTPSource receives update events pushed over HTTP.
type HTTPSource struct {
	logger  zerolog.Logger
	pattern progress.Pattern
	metrics *metrics.Metrics
	opts    options

	mu      sync.RWMutex
	handler Handler
}

// NewHTTPSource constructs an HTTP ingress for documents matching pattern.
func NewHTTPSource(logger zerolog.Logger, pattern progress.Pattern, m *metrics.Metrics, opts ...Option) *HTTPSource {
	return &HTTPSource{
		logger:  logger.With().Str("source", SourceHTTP).Logger(),
		pattern: pattern,
		metrics: m,
		opts:    newOptions(opts),
	}
}

// Name implements Source.
func (s *HTTPSource) Name() string {
	return SourceHTTP
}

// Run accepts events until ctx is canceled. Requests arriving before Run get 503.
// The started callback fires only after the handler is installed.
func (s *HTTPSource) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("http source: handler is required")
	}
	s.setHandler(handler)
	defer s.setHandler(nil)
	s.opts.started()

	s.logger.Info().Str("pattern", s.pattern.String()).Msg("accepting change events")
	<-ctx.Done()
	return nil
}

// Routes returns the ingress routes, to be mounted under /v1.
func (s *HTTPSource) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(CorrelationID)
	r.Post("/events", s.handleEvent)
	return r
}

func (s *HTTPSource) setHandler(handler Handler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

func (s *HTTPSource) currentHandler() Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

func (s *HTTPSource) handleEvent(w http.ResponseWriter, r *http.Request) {
	handler := s.currentHandler()
	if handler == nil {
		writeEventJSON(w, http.StatusServiceUnavailable, eventResponse{Status: "unavailable", Error: "source not running"})
		return
	}

	var req EventRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxEventBytes))
	if err := decoder.Decode(&req); err != nil {
		writeEventJSON(w, http.StatusBadRequest, eventResponse{Status: "rejected", Error: "invalid JSON body"})
		return
	}
	if req.After == nil {
		writeEventJSON(w, http.StatusBadRequest, eventResponse{Status: "rejected", Error: "after is required"})
		return
	}

	document := RelativeDocumentPath(strings.TrimSpace(req.Document))
	key, ok := s.pattern.Match(document)
	if !ok {
		writeEventJSON(w, http.StatusUnprocessableEntity, eventResponse{
			Status: "rejected",
			Error:  "document does not match " + s.pattern.String(),
		})
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = CorrelationIDFrom(r.Context())
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.metrics.IncEventsReceived(SourceHTTP)

	// The invocation runs to completion even if the caller disconnects.
	handler(context.WithoutCancel(r.Context()), Event{
		ID:         id,
		Source:     SourceHTTP,
		Document:   document,
		Key:        key,
		After:      req.After,
		ReceivedAt: time.Now().UTC(),
	})

	writeEventJSON(w, http.StatusOK, eventResponse{Status: "completed", EventID: id})
}

func writeEventJSON(w http.ResponseWriter, status int, payload eventResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

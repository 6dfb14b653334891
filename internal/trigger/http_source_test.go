package trigger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nholik/progress-sentinel/internal/progress"
	"github.com/rs/zerolog"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []Event
}

func (h *recordingHandler) handle(_ context.Context, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHandler) snapshot() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

func startHTTPSource(t *testing.T) (*HTTPSource, *recordingHandler) {
	t.Helper()
	source := NewHTTPSource(zerolog.Nop(), progress.MustParsePattern(progress.DefaultPattern), nil)
	recorder := &recordingHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- source.Run(ctx, recorder.handle) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(time.Second)
	for source.currentHandler() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("http source did not start")
		}
		time.Sleep(time.Millisecond)
	}
	return source, recorder
}

func postEvent(t *testing.T, handler http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHTTPSourceDeliversEvent(t *testing.T) {
	source, recorder := startHTTPSource(t)

	body := `{"id":"evt-1","document":"projects/p/databases/(default)/documents/users/u1/mountingProgress/panel-a",
		"before":{"todayProgress":1},"after":{"todayProgress":5,"cumulativeProgress":"40"}}`
	rec := postEvent(t, source.Routes(), body, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp eventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "completed" || resp.EventID != "evt-1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	events := recorder.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Key != (progress.Key{UserID: "u1", ItemName: "panel-a"}) {
		t.Fatalf("unexpected key %+v", event.Key)
	}
	if event.Document != "users/u1/mountingProgress/panel-a" {
		t.Fatalf("unexpected document %q", event.Document)
	}
	if event.After["todayProgress"] != float64(5) {
		t.Fatalf("unexpected after state %v", event.After)
	}
	if event.Source != SourceHTTP {
		t.Fatalf("unexpected source %q", event.Source)
	}
}

func TestHTTPSourceUsesCorrelationIDWhenEventIDMissing(t *testing.T) {
	source, recorder := startHTTPSource(t)

	rec := postEvent(t, source.Routes(),
		`{"document":"users/u1/mountingProgress/panel-a","after":{}}`,
		map[string]string{CorrelationHeader: "corr-9"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(CorrelationHeader); got != "corr-9" {
		t.Fatalf("expected correlation id echoed, got %q", got)
	}
	if events := recorder.snapshot(); len(events) != 1 || events[0].ID != "corr-9" {
		t.Fatalf("expected event id from correlation header, got %+v", events)
	}
}

func TestHTTPSourceRejectsBadRequests(t *testing.T) {
	source, recorder := startHTTPSource(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"document":`, http.StatusBadRequest},
		{"missing after", `{"document":"users/u1/mountingProgress/panel-a"}`, http.StatusBadRequest},
		{"unmatched document", `{"document":"users/u1/other/panel-a","after":{}}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postEvent(t, source.Routes(), tt.body, nil)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	if events := recorder.snapshot(); len(events) != 0 {
		t.Fatalf("expected no events delivered, got %d", len(events))
	}
}

func TestHTTPSourceUnavailableBeforeRun(t *testing.T) {
	source := NewHTTPSource(zerolog.Nop(), progress.MustParsePattern(progress.DefaultPattern), nil)

	rec := postEvent(t, source.Routes(), `{"document":"users/u1/mountingProgress/a","after":{}}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHTTPSourceRepeatedEventsEachDelivered(t *testing.T) {
	source, recorder := startHTTPSource(t)

	body := `{"document":"users/u1/mountingProgress/panel-a","after":{"todayProgress":5}}`
	for i := 0; i < 2; i++ {
		if rec := postEvent(t, source.Routes(), body, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	events := recorder.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID == events[1].ID {
		t.Fatalf("expected distinct event ids, got %q twice", events[0].ID)
	}
}

func TestHTTPSourceRunRequiresHandler(t *testing.T) {
	source := NewHTTPSource(zerolog.Nop(), progress.MustParsePattern(progress.DefaultPattern), nil)
	if err := source.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func TestHTTPSourceOnStartedAfterHandlerInstalled(t *testing.T) {
	var source *HTTPSource
	startedCh := make(chan int, 1)
	source = NewHTTPSource(zerolog.Nop(), progress.MustParsePattern(progress.DefaultPattern), nil,
		WithOnStarted(func() {
			rec := postEvent(t, source.Routes(), `{"document":"users/u1/mountingProgress/a","after":{}}`, nil)
			startedCh <- rec.Code
		}))
	recorder := &recordingHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- source.Run(ctx, recorder.handle) }()
	defer func() {
		cancel()
		<-done
	}()

	select {
	case code := <-startedCh:
		if code != http.StatusOK {
			t.Fatalf("expected 200 from started callback, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("started callback not invoked")
	}
	if events := recorder.snapshot(); len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestHTTPSourceOnStartedSkippedWithoutHandler(t *testing.T) {
	called := false
	source := NewHTTPSource(zerolog.Nop(), progress.MustParsePattern(progress.DefaultPattern), nil,
		WithOnStarted(func() { called = true }))
	if err := source.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
	if called {
		t.Fatalf("started callback invoked for a source that never ran")
	}
}

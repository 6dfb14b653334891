package healthcheck

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandlerHealthy(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkStarted("http")
	tracker.RecordDispatch("sent")
	tracker.RecordDispatch("sent")
	tracker.RecordDispatch("delivery_failed")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	HealthHandler(tracker)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.LastEventTime == nil {
		t.Fatalf("expected last event time to be set")
	}
	if payload.Source != "http" {
		t.Fatalf("expected source http, got %q", payload.Source)
	}
	if payload.Dispatches["sent"] != 2 || payload.Dispatches["delivery_failed"] != 1 {
		t.Fatalf("unexpected dispatch counts: %v", payload.Dispatches)
	}
	if payload.LastOutcome != "delivery_failed" {
		t.Fatalf("unexpected last outcome %q", payload.LastOutcome)
	}
}

func TestHealthHandlerUnhealthyAfterStop(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkStarted("firestore")
	tracker.MarkStopped()

	rec := httptest.NewRecorder()
	HealthHandler(tracker)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	tracker := NewTracker()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler := ReadyHandler(tracker)
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", rec.Code)
	}

	tracker.MarkStarted("http")
	rec = httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after ready, got %d", rec.Code)
	}
}

func TestNilTracker(t *testing.T) {
	var tracker *Tracker
	tracker.RecordDispatch("sent")

	rec := httptest.NewRecorder()
	ReadyHandler(tracker)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for nil tracker, got %d", rec.Code)
	}
}

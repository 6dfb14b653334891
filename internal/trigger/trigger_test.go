package trigger

import (
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/nholik/progress-sentinel/internal/progress"
	"github.com/rs/zerolog"
)

func TestRelativeDocumentPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"projects/p/databases/(default)/documents/users/u1/mountingProgress/a", "users/u1/mountingProgress/a"},
		{"/users/u1/mountingProgress/a/", "users/u1/mountingProgress/a"},
		{"users/u1/mountingProgress/a", "users/u1/mountingProgress/a"},
	}
	for _, tt := range tests {
		if got := RelativeDocumentPath(tt.in); got != tt.want {
			t.Fatalf("RelativeDocumentPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFirestoreEventFromChange(t *testing.T) {
	source := NewFirestoreSource(zerolog.Nop(), "proj", progress.MustParsePattern(progress.DefaultPattern), nil)
	path := "projects/proj/databases/(default)/documents/users/u1/mountingProgress/panel-a"
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	data := map[string]any{"todayProgress": int64(3)}

	tests := []struct {
		name   string
		kind   firestore.DocumentChangeKind
		path   string
		wantOK bool
	}{
		{"modified", firestore.DocumentModified, path, true},
		{"added", firestore.DocumentAdded, path, false},
		{"removed", firestore.DocumentRemoved, path, false},
		{"outside pattern", firestore.DocumentModified, "projects/proj/databases/(default)/documents/teams/t1/mountingProgress/a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := source.eventFromChange(tt.kind, tt.path, data, updated)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if event.Key != (progress.Key{UserID: "u1", ItemName: "panel-a"}) {
				t.Fatalf("unexpected key %+v", event.Key)
			}
			if event.Source != SourceFirestore || event.ID == "" {
				t.Fatalf("unexpected event metadata %+v", event)
			}
			if !event.ReceivedAt.Equal(updated) {
				t.Fatalf("unexpected received time %s", event.ReceivedAt)
			}
			if event.After["todayProgress"] != int64(3) {
				t.Fatalf("unexpected after state %v", event.After)
			}
		})
	}
}

func TestFirestoreEventFromChangeEachChangeDistinct(t *testing.T) {
	source := NewFirestoreSource(zerolog.Nop(), "proj", progress.MustParsePattern(progress.DefaultPattern), nil)
	path := "projects/proj/databases/(default)/documents/users/u1/mountingProgress/panel-a"
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first, ok := source.eventFromChange(firestore.DocumentModified, path, map[string]any{"todayProgress": int64(3)}, updated)
	if !ok {
		t.Fatalf("expected first change delivered")
	}
	second, ok := source.eventFromChange(firestore.DocumentModified, path, map[string]any{"todayProgress": int64(4)}, updated.Add(time.Second))
	if !ok {
		t.Fatalf("expected second change delivered")
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct event ids, got %q twice", first.ID)
	}
	if first.After["todayProgress"] != int64(3) || second.After["todayProgress"] != int64(4) {
		t.Fatalf("unexpected after states %v, %v", first.After, second.After)
	}
}

func TestOptionsStarted(t *testing.T) {
	newOptions(nil).started()
	newOptions([]Option{nil}).started()

	calls := 0
	newOptions([]Option{WithOnStarted(func() { calls++ })}).started()
	if calls != 1 {
		t.Fatalf("expected started callback once, got %d", calls)
	}
}

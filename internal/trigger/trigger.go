// Package trigger delivers progress-document update events to a handler.
//
// A Source invokes its Handler once per update. Handlers return no value:
// the source treats every invocation as completed.
package trigger

import (
	"context"
	"strings"
	"time"

	"github.com/nholik/progress-sentinel/internal/progress"
)

// Event is one update to a progress document.
type Event struct {
	ID         string
	Source     string
	Document   string
	Key        progress.Key
	After      map[string]any
	ReceivedAt time.Time
}

// Handler processes one event.
type Handler func(ctx context.Context, event Event)

// Source produces events until its context is canceled.
type Source interface {
	Name() string
	Run(ctx context.Context, handler Handler) error
}

// Option configures a Source.
type Option func(*options)

type options struct {
	onStarted func()
}

// WithOnStarted registers fn to run once the source is able to deliver events.
func WithOnStarted(fn func()) Option {
	return func(o *options) {
		o.onStarted = fn
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o options) started() {
	if o.onStarted != nil {
		o.onStarted()
	}
}

const documentsMarker = "/documents/"

// RelativeDocumentPath strips a projects/.../databases/.../documents/ prefix
// from a full document resource name.
func RelativeDocumentPath(path string) string {
	if idx := strings.Index(path, documentsMarker); idx >= 0 {
		return path[idx+len(documentsMarker):]
	}
	return strings.Trim(path, "/")
}

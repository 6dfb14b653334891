package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/nholik/progress-sentinel/internal/metrics"
	"github.com/nholik/progress-sentinel/internal/progress"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

// SourceFirestore names the Firestore listener.
const SourceFirestore = "firestore"

// FirestoreSource is a latest-state change feed over a collection group.
//
// Each snapshot reports a document's current state, so several writes landing
// between two snapshots surface as one modification carrying the final values.
// Writes made while the listener reconnects are likewise replayed only as their
// final state. Deployments that need one dispatch per write should feed the
// HTTP ingress from a per-write trigger such as Eventarc or a Cloud Functions
// relay.
//
// Documents present when listening starts arrive as additions and are skipped,
// as are creations and deletions.
type FirestoreSource struct {
	logger    zerolog.Logger
	projectID string
	pattern   progress.Pattern
	metrics   *metrics.Metrics
	opts      options
}

// NewFirestoreSource constructs a listener for documents matching pattern.
func NewFirestoreSource(logger zerolog.Logger, projectID string, pattern progress.Pattern, m *metrics.Metrics, opts ...Option) *FirestoreSource {
	return &FirestoreSource{
		logger:    logger.With().Str("source", SourceFirestore).Logger(),
		projectID: projectID,
		pattern:   pattern,
		metrics:   m,
		opts:      newOptions(opts),
	}
}

// Name implements Source.
func (s *FirestoreSource) Name() string {
	return SourceFirestore
}

// Run listens until ctx is canceled. The started callback fires when the
// first snapshot arrives.
func (s *FirestoreSource) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("firestore source: handler is required")
	}

	client, err := firestore.NewClient(ctx, s.projectID)
	if err != nil {
		return fmt.Errorf("create firestore client: %w", err)
	}
	defer client.Close()

	collection := s.pattern.CollectionID()
	it := client.CollectionGroup(collection).Snapshots(ctx)
	defer it.Stop()

	s.logger.Info().
		Str("project_id", s.projectID).
		Str("collection_group", collection).
		Str("pattern", s.pattern.String()).
		Msg("listening for document updates")

	started := false
	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, iterator.Done) {
				return nil
			}
			return fmt.Errorf("firestore snapshot: %w", err)
		}
		if !started {
			started = true
			s.opts.started()
		}

		for _, change := range snap.Changes {
			if change.Doc == nil || change.Doc.Ref == nil {
				continue
			}
			event, ok := s.eventFromChange(change.Kind, change.Doc.Ref.Path, change.Doc.Data(), change.Doc.UpdateTime)
			if !ok {
				continue
			}
			s.metrics.IncEventsReceived(SourceFirestore)
			handler(context.WithoutCancel(ctx), event)
		}
	}
}

func (s *FirestoreSource) eventFromChange(kind firestore.DocumentChangeKind, path string, data map[string]any, updated time.Time) (Event, bool) {
	if kind != firestore.DocumentModified {
		return Event{}, false
	}

	document := RelativeDocumentPath(path)
	key, ok := s.pattern.Match(document)
	if !ok {
		s.logger.Debug().Str("document", document).Msg("ignoring update outside document pattern")
		return Event{}, false
	}

	received := updated.UTC()
	if updated.IsZero() {
		received = time.Now().UTC()
	}

	return Event{
		ID:         uuid.NewString(),
		Source:     SourceFirestore,
		Document:   document,
		Key:        key,
		After:      data,
		ReceivedAt: received,
	}, true
}

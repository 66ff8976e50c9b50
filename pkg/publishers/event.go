package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/babel-client/pkg/babel"
)

// Event is the payload published downstream for one newly observed annotation.
type Event struct {
	ID           string            `json:"id"`
	TargetID     string            `json:"target_id"`
	TargetURI    string            `json:"target_uri"`
	FeedID       string            `json:"feed_id"`
	AnnotationID string            `json:"annotation_id"`
	Annotation   *babel.Annotation `json:"annotation,omitempty"`
	ObservedAt   time.Time         `json:"observed_at"`
}

// NewEvent constructs an Event for a feed item of the given target.
// Annotation is nil for unhydrated feeds.
func NewEvent(targetID, targetURI string, item babel.FeedItem) Event {
	return Event{
		ID:           uuid.NewString(),
		TargetID:     targetID,
		TargetURI:    targetURI,
		FeedID:       babel.TargetFeedID(targetURI),
		AnnotationID: item.ID,
		Annotation:   item.Annotation,
		ObservedAt:   time.Now().UTC(),
	}
}

// attributes are the routing attributes attached by queue and topic sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_id":      e.ID,
		"target_id":     e.TargetID,
		"annotation_id": e.AnnotationID,
	}
}

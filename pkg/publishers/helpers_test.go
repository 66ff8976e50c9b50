package publishers

import "github.com/samvad-hq/babel-client/pkg/babel"

func sampleEvent() Event {
	return NewEvent("story-1", "http://example.com/story/1", babel.FeedItem{
		ID: "ann-1",
		Annotation: &babel.Annotation{
			ID:          "ann-1",
			AnnotatedBy: "alice",
			HasTarget:   &babel.Target{URI: "http://example.com/story/1"},
			HasBody:     &babel.Body{Format: "text/plain", Type: "Text", Chars: "nice"},
		},
	})
}

package babel

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Body is the content of an annotation.
type Body struct {
	Format         string         `json:"format,omitempty"`
	Type           string         `json:"type,omitempty"`
	Chars          string         `json:"chars,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
	URI            string         `json:"uri,omitempty"`
	AsReferencedBy string         `json:"asReferencedBy,omitempty"`
}

// Target is the resource an annotation is about.
type Target struct {
	URI            string `json:"uri,omitempty"`
	Fragment       string `json:"fragment,omitempty"`
	AsReferencedBy string `json:"asReferencedBy,omitempty"`
}

// Annotation is both the submitted payload and the stored representation
// returned by the service. ID and any other server-assigned fields are only
// populated on values decoded from a response; unrecognized fields land in Extra.
type Annotation struct {
	ID          string  `json:"_id,omitempty"`
	HasBody     *Body   `json:"hasBody,omitempty"`
	HasTarget   *Target `json:"hasTarget,omitempty"`
	AnnotatedBy string  `json:"annotatedBy,omitempty"`
	MotivatedBy string  `json:"motivatedBy,omitempty"`
	AnnotatedAt string  `json:"annotatedAt,omitempty"`

	Extra map[string]any `json:"-"`
}

var annotationFields = map[string]struct{}{
	"_id": {}, "hasBody": {}, "hasTarget": {}, "annotatedBy": {}, "motivatedBy": {}, "annotatedAt": {},
}

type annotationAlias Annotation

// MarshalJSON merges Extra under the known fields; known fields win on conflict.
func (a Annotation) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(annotationAlias(a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return raw, nil
	}
	doc := make(map[string]any, len(a.Extra)+6)
	for k, v := range a.Extra {
		doc[k] = v
	}
	var known map[string]any
	if err := json.Unmarshal(raw, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		doc[k] = v
	}
	return json.Marshal(doc)
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var alias annotationAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*a = Annotation(alias)
	for k, v := range all {
		if _, ok := annotationFields[k]; ok {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		if a.Extra == nil {
			a.Extra = make(map[string]any)
		}
		a.Extra[k] = val
	}
	return nil
}

// FeedItem is one entry of a feed: a bare annotation id on plain feeds, or
// the full annotation on hydrated feeds. ID is set in both cases.
type FeedItem struct {
	ID         string
	Annotation *Annotation
}

func (f FeedItem) MarshalJSON() ([]byte, error) {
	if f.Annotation != nil {
		return json.Marshal(f.Annotation)
	}
	return json.Marshal(f.ID)
}

func (f *FeedItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty feed item")
	}
	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*f = FeedItem{ID: id}
		return nil
	case '{':
		var ann Annotation
		if err := json.Unmarshal(data, &ann); err != nil {
			return err
		}
		*f = FeedItem{ID: ann.ID, Annotation: &ann}
		return nil
	default:
		return fmt.Errorf("feed item must be a string or an object, got %s", data)
	}
}

// Feed is an ordered list of annotations for one feed key.
type Feed struct {
	FeedID      string     `json:"feed_id,omitempty"`
	FeedLength  int        `json:"feed_length"`
	Annotations []FeedItem `json:"annotations"`
}

// FeedsResult is the merged, hydrated response of GetFeeds.
type FeedsResult struct {
	FeedLength int    `json:"feed_length"`
	Feeds      []Feed `json:"feeds"`
}

// AnnotationsResult is the response of GetAnnotations.
type AnnotationsResult struct {
	Count       int          `json:"count"`
	Annotations []Annotation `json:"annotations"`
}

// FeedCount is the result of GetTargetFeedCount.
type FeedCount struct {
	Count      int
	DeltaToken int64
}

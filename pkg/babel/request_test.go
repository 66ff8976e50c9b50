package babel

import (
	"encoding/json"
	"testing"
)

func TestFingerprintIsStableMD5(t *testing.T) {
	// md5("http://foo/1")
	const want = "f71812011b7d50b7313b11936ad79933"
	for i := 0; i < 3; i++ {
		if got := Fingerprint("http://foo/1"); got != want {
			t.Fatalf("Fingerprint = %s, want %s", got, want)
		}
	}
	if Fingerprint("http://foo/2") == want {
		t.Fatalf("different targets must not share a fingerprint")
	}
}

func TestTargetFeedIDUsesFingerprint(t *testing.T) {
	target := "http://foo/1"
	if got := TargetFeedID(target); got != "targets:"+Fingerprint(target)+":activity" {
		t.Fatalf("TargetFeedID = %s", got)
	}
	if got := targetFeedPath(target, true); got != "/feeds/targets/"+Fingerprint(target)+"/activity/annotations/hydrate" {
		t.Fatalf("targetFeedPath = %s", got)
	}
}

func TestFilterValuesOmitsZeroFields(t *testing.T) {
	if got := (Filter{}).Values().Encode(); got != "" {
		t.Fatalf("empty filter encoded as %q", got)
	}
	got := Filter{Q: "hello world", Offset: 5, HasBodyURI: "http://b"}.Values().Encode()
	if got != "hasBody.uri=http%3A%2F%2Fb&offset=5&q=hello+world" {
		t.Fatalf("encoded = %q", got)
	}
}

func TestFilterKnownFieldsOverrideExtra(t *testing.T) {
	got := Filter{AnnotatedBy: "alice", Extra: map[string]string{"annotatedBy": "mallory"}}.Values().Get("annotatedBy")
	if got != "alice" {
		t.Fatalf("annotatedBy = %q", got)
	}
}

func TestAnnotationJSONKeepsExtra(t *testing.T) {
	in := Annotation{
		HasBody:     &Body{Format: "text/plain", Type: "Text"},
		HasTarget:   &Target{URI: "http://foo/1"},
		AnnotatedBy: "alice",
		Extra:       map[string]any{"private": true, "annotatedBy": "ignored"},
	}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc["annotatedBy"] != "alice" || doc["private"] != true {
		t.Fatalf("unexpected document %v", doc)
	}
	if _, ok := doc["_id"]; ok {
		t.Fatalf("empty id must be omitted")
	}
}

func TestFeedItemRejectsOtherJSON(t *testing.T) {
	var item FeedItem
	if err := json.Unmarshal([]byte(`42`), &item); err == nil {
		t.Fatalf("expected error for numeric feed item")
	}
}

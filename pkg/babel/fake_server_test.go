package babel

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeBabel is an in-memory stand-in for the service. Feeds are only
// materialized by synchronous writes, mirroring the async projection.
type fakeBabel struct {
	mu          sync.Mutex
	token       string
	seq         int
	annotations []Annotation
	feeds       map[string][]Annotation // keyed by target fingerprint
	requests    []*http.Request
}

func newFakeBabel(t *testing.T, token string) (*fakeBabel, *httptest.Server) {
	t.Helper()
	f := &fakeBabel{token: token, feeds: map[string][]Annotation{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeBabel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	if r.Header.Get("Authorization") != "Bearer "+f.token {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid Persona token"})
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/annotations":
		f.create(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/annotations":
		f.query(w, r)
	case strings.HasPrefix(r.URL.Path, "/feeds/targets/"):
		f.targetFeed(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no route"})
	}
}

func (f *fakeBabel) create(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var ann Annotation
	if err := json.Unmarshal(raw, &ann); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	f.seq++
	ann.ID = fmt.Sprintf("ann-%d", f.seq)
	f.annotations = append(f.annotations, ann)
	if r.Header.Get("X-Ingest-Synchronously") == "true" {
		key := Fingerprint(ann.HasTarget.URI)
		f.feeds[key] = append(f.feeds[key], ann)
	}
	writeJSON(w, http.StatusOK, ann)
}

func (f *fakeBabel) query(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("annotatedBy")
	out := AnnotationsResult{Annotations: []Annotation{}}
	for _, a := range f.annotations {
		if by != "" && a.AnnotatedBy != by {
			continue
		}
		out.Annotations = append(out.Annotations, a)
	}
	out.Count = len(out.Annotations)
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeBabel) targetFeed(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/feeds/targets/"), "/")
	anns, ok := f.feeds[parts[0]]
	if !ok {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "feed not found"})
		return
	}
	if r.Method == http.MethodHead {
		w.Header().Set("X-Feed-New-Items", fmt.Sprint(len(anns)))
		w.WriteHeader(http.StatusOK)
		return
	}
	hydrate := strings.HasSuffix(r.URL.Path, "/hydrate")
	items := make([]any, 0, len(anns))
	for _, a := range anns {
		if hydrate {
			items = append(items, a)
		} else {
			items = append(items, a.ID)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"feed_length": len(anns), "annotations": items})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

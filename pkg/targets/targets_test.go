package targets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samvad-hq/babel-client/pkg/babel"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write targets file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeFile(t, "targets.yaml", `
targets:
  - id: reading-list
    uri: "http://lists.example.com/123"
    hydrate: true
  - id: module
    uri: http://modules.example.com/abc
    enabled: false
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(reg.All()))
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "reading-list" {
		t.Fatalf("expected only reading-list enabled, got %#v", enabled)
	}
	tgt, ok := reg.ByID("reading-list")
	if !ok {
		t.Fatalf("expected reading-list to be loaded")
	}
	if tgt.URI != "http://lists.example.com/123" || !tgt.Hydrate {
		t.Fatalf("unexpected target %#v", tgt)
	}
	if tgt.FeedID() != babel.TargetFeedID("http://lists.example.com/123") {
		t.Fatalf("FeedID = %s", tgt.FeedID())
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "targets.json", `{"targets":[{"id":"a","uri":"http://a"}]}`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if _, ok := reg.ByID("a"); !ok {
		t.Fatalf("expected target a")
	}
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"missing uri":  "targets:\n  - id: a\n",
		"missing id":   "targets:\n  - uri: http://a\n",
		"duplicate id": "targets:\n  - id: a\n    uri: http://a\n  - id: a\n    uri: http://b\n",
		"empty":        "targets: []\n",
		"bad uri":      "targets:\n  - id: a\n    uri: \"http://a b/%zz\"\n",
		"padded uri":   "targets:\n  - id: a\n    uri: \" http://a \"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadRegistry(writeFile(t, "targets.yaml", content)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestValidateKeepsURIAsWritten(t *testing.T) {
	if err := (Target{ID: "a", URI: "http://a/1 "}).Validate(); err == nil {
		t.Fatalf("expected whitespace error")
	}
	reg, err := NewRegistry([]Target{{ID: " a ", URI: "http://a/1?x=1"}})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	tgt, ok := reg.ByID("a")
	if !ok || tgt.URI != "http://a/1?x=1" {
		t.Fatalf("unexpected target %#v", tgt)
	}
	if tgt.FeedID() != babel.TargetFeedID("http://a/1?x=1") {
		t.Fatalf("FeedID = %s", tgt.FeedID())
	}
}

func TestResolveFallsBackToRawTarget(t *testing.T) {
	reg, err := NewRegistry([]Target{{ID: "story", URI: "http://example.com/story", Hydrate: true}})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if got := reg.Resolve("story"); got.URI != "http://example.com/story" || !got.Hydrate {
		t.Fatalf("Resolve(story) = %#v", got)
	}
	if got := reg.Resolve("http://other/1"); got.URI != "http://other/1" {
		t.Fatalf("Resolve(raw) = %#v", got)
	}
	var none *Registry
	if got := none.Resolve("http://other/2"); got.URI != "http://other/2" {
		t.Fatalf("nil Resolve = %#v", got)
	}
}

func TestNilRegistryIsEmpty(t *testing.T) {
	var reg *Registry
	if len(reg.All()) != 0 || len(reg.Enabled()) != 0 {
		t.Fatalf("nil registry should be empty")
	}
	if _, ok := reg.ByID("a"); ok {
		t.Fatalf("nil registry should not find targets")
	}
}

// Package targets loads the list of Babel targets the relay watches.
package targets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samvad-hq/babel-client/pkg/babel"
	"gopkg.in/yaml.v3"
)

// Target is a watched resource. URI is the raw target string the service
// fingerprints, so it is kept exactly as written.
type Target struct {
	ID      string `json:"id" yaml:"id"`
	URI     string `json:"uri" yaml:"uri"`
	Hydrate bool   `json:"hydrate" yaml:"hydrate"`
	Enabled *bool  `json:"enabled" yaml:"enabled"`
}

// FeedID returns the service feed id of the target's activity feed.
func (t Target) FeedID() string { return babel.TargetFeedID(t.URI) }

// EnabledValue returns enabled flag defaulting to true.
func (t Target) EnabledValue() bool {
	if t.Enabled == nil {
		return true
	}
	return *t.Enabled
}

// Validate checks that required fields are present.
func (t Target) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.URI, validation.Required, validation.By(parsableURI)),
	)
}

func parsableURI(value interface{}) error {
	s, _ := value.(string)
	if s != strings.TrimSpace(s) {
		return errors.New("must not have leading or trailing whitespace")
	}
	if _, err := url.Parse(s); err != nil {
		return fmt.Errorf("must be a valid URI: %w", err)
	}
	return nil
}

type fileFormat struct {
	Targets []Target `json:"targets" yaml:"targets"`
}

// Registry is the set of targets loaded from a targets file.
type Registry struct {
	mu      sync.RWMutex
	targets []Target
	idx     map[string]Target
}

// NewRegistry builds a registry from in-memory targets, applying the same
// normalization and validation as LoadRegistry.
func NewRegistry(list []Target) (*Registry, error) {
	reg := &Registry{
		targets: make([]Target, 0, len(list)),
		idx:     make(map[string]Target, len(list)),
	}
	for i := range list {
		t := sanitizeTarget(list[i])
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		if _, exists := reg.idx[t.ID]; exists {
			return nil, fmt.Errorf("duplicate target id %q", t.ID)
		}
		reg.targets = append(reg.targets, t)
		reg.idx[t.ID] = t
	}
	return reg, nil
}

// LoadRegistry loads targets from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("targets file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	parsed, err := parseTargets(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Targets) == 0 {
		return nil, errors.New("targets file contains no targets entries")
	}
	return NewRegistry(parsed.Targets)
}

type unmarshalFn func([]byte, any) error

func parseTargets(data []byte, ext string) (fileFormat, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out fileFormat
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}
	return fileFormat{}, errors.New("targets file format not recognized (expected YAML or JSON)")
}

func sanitizeTarget(t Target) Target {
	t.ID = strings.TrimSpace(t.ID)
	if t.Enabled == nil {
		def := true
		t.Enabled = &def
	}
	return t
}

// All returns all configured targets in file order.
func (r *Registry) All() []Target {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Enabled returns targets that are enabled.
func (r *Registry) Enabled() []Target {
	all := r.All()
	out := make([]Target, 0, len(all))
	for _, t := range all {
		if t.EnabledValue() {
			out = append(out, t)
		}
	}
	return out
}

// Resolve returns the registered target with the given id, or an ad hoc
// target whose URI is ref when no id matches.
func (r *Registry) Resolve(ref string) Target {
	if t, ok := r.ByID(ref); ok {
		return t
	}
	return Target{ID: ref, URI: ref}
}

// ByID returns the target by id.
func (r *Registry) ByID(id string) (Target, bool) {
	if r == nil {
		return Target{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Target{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.idx[id]
	return t, ok
}

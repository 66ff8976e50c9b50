// Package storage keeps the relay's local state: which annotations were
// already published and the delta token of each polled feed.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks relayed annotation IDs and per-feed delta tokens.
type Store interface {
	Close() error
	SeenAnnotation(id string) (bool, error)
	MarkAnnotation(id string) error
	// DeltaToken returns the token saved for feedID, or 0 if none.
	DeltaToken(feedID string) (int64, error)
	SetDeltaToken(feedID string, token int64) error
}

// Supported backend types.
const (
	TypeBBolt = "bbolt"
	TypeNone  = "none"
)

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	AnnotationTTL   time.Duration
	CleanupInterval time.Duration
}

const (
	defaultAnnotationTTL   = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.AnnotationTTL <= 0 {
		opts.AnnotationTTL = defaultAnnotationTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore remembers nothing, so every pass relays the whole feed.
type noopStore struct{}

func (noopStore) Close() error                        { return nil }
func (noopStore) SeenAnnotation(string) (bool, error) { return false, nil }
func (noopStore) MarkAnnotation(string) error         { return nil }
func (noopStore) DeltaToken(string) (int64, error)    { return 0, nil }
func (noopStore) SetDeltaToken(string, int64) error   { return nil }

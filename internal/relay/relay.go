// Package relay polls babel target feeds and forwards newly seen annotations
// to the configured publishers.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/babel-client/internal/logger"
	"github.com/samvad-hq/babel-client/internal/storage"
	"github.com/samvad-hq/babel-client/pkg/babel"
	"github.com/samvad-hq/babel-client/pkg/publishers"
	"github.com/samvad-hq/babel-client/pkg/targets"
)

// Service relays babel target feeds to publishers.
type Service struct {
	feeds     FeedReader
	publisher EventPublisher
	store     storage.Store
	token     string
	log       logger.Logger
	now       func() time.Time
}

// NewService wires a relay. A nil store relays every item on every pass.
func NewService(feeds FeedReader, pub EventPublisher, store storage.Store, token string, log logger.Logger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if store == nil {
		store, _ = storage.NewStore(storage.TypeNone, "", storage.Options{})
	}
	return &Service{
		feeds:     feeds,
		publisher: pub,
		store:     store,
		token:     token,
		log:       log,
		now:       time.Now,
	}
}

// Result summarizes one relay pass.
type Result struct {
	Targets   int
	Skipped   int
	Items     int
	Published int
}

// Run executes one relay pass over targets. Feeds that do not exist yet are
// skipped; all other failures are joined into the returned error.
func (s *Service) Run(ctx context.Context, list []targets.Target) (Result, error) {
	var res Result
	if s == nil || s.feeds == nil || s.publisher == nil {
		return res, fmt.Errorf("relay service is not initialized")
	}
	if len(list) == 0 {
		return res, fmt.Errorf("no targets configured for relay")
	}

	var errs []error
	for _, t := range list {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res.Targets++
		tr, err := s.runTarget(ctx, t)
		res.Items += tr.Items
		res.Published += tr.Published
		res.Skipped += tr.Skipped
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("target relay failed", "target_error", map[string]any{
				"target_id": t.ID,
				"error":     err.Error(),
			})
		}
	}
	return res, errors.Join(errs...)
}

func (s *Service) runTarget(ctx context.Context, t targets.Target) (Result, error) {
	var res Result
	feedID := t.FeedID()
	passStarted := s.now().Unix()

	since, err := s.store.DeltaToken(feedID)
	if err != nil {
		return res, fmt.Errorf("read delta token for target %s: %w", t.ID, err)
	}
	if since > 0 {
		count, err := s.feeds.GetTargetFeedCount(ctx, t.URI, s.token, since)
		switch {
		case errors.Is(err, babel.ErrNotFound):
			s.logNotMaterialized(t)
			res.Skipped++
			return res, nil
		case err != nil:
			return res, fmt.Errorf("count feed for target %s: %w", t.ID, err)
		case count.Count == 0:
			s.log.DebugObj("target feed unchanged", "target_result", map[string]any{
				"target_id":   t.ID,
				"delta_token": since,
			})
			return res, nil
		}
	}

	feed, err := s.feeds.GetTargetFeed(ctx, t.URI, s.token, t.Hydrate)
	if errors.Is(err, babel.ErrNotFound) {
		s.logNotMaterialized(t)
		res.Skipped++
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("read feed for target %s: %w", t.ID, err)
	}

	var errs []error
	for _, item := range feed.Annotations {
		res.Items++
		published, err := s.relayItem(ctx, t, item)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if published {
			res.Published++
		}
	}
	if len(errs) > 0 {
		return res, fmt.Errorf("relay target %s: %w", t.ID, errors.Join(errs...))
	}

	if err := s.store.SetDeltaToken(feedID, passStarted); err != nil {
		return res, fmt.Errorf("save delta token for target %s: %w", t.ID, err)
	}
	s.log.InfoObj("target relay completed", "target_result", map[string]any{
		"target_id":   t.ID,
		"feed_id":     feedID,
		"feed_length": feed.FeedLength,
		"published":   res.Published,
	})
	return res, nil
}

// relayItem publishes an unseen feed item and marks it once a sink accepted it.
func (s *Service) relayItem(ctx context.Context, t targets.Target, item babel.FeedItem) (bool, error) {
	if item.ID == "" {
		return false, nil
	}
	seen, err := s.store.SeenAnnotation(item.ID)
	if err != nil {
		return false, fmt.Errorf("check annotation %s: %w", item.ID, err)
	}
	if seen {
		return false, nil
	}

	delivered, pubErr := s.publisher.Publish(ctx, publishers.NewEvent(t.ID, t.URI, item))
	if delivered == 0 {
		if pubErr == nil {
			pubErr = errors.New("no publisher accepted the event")
		}
		return false, fmt.Errorf("publish annotation %s: %w", item.ID, pubErr)
	}
	if pubErr != nil {
		s.log.WarnObj("annotation partially published", "publish_error", map[string]any{
			"target_id":     t.ID,
			"annotation_id": item.ID,
			"delivered":     delivered,
			"error":         pubErr.Error(),
		})
	}
	if err := s.store.MarkAnnotation(item.ID); err != nil {
		return true, fmt.Errorf("mark annotation %s: %w", item.ID, err)
	}
	return true, nil
}

func (s *Service) logNotMaterialized(t targets.Target) {
	s.log.InfoObj("target feed not found yet", "target_result", map[string]any{
		"target_id": t.ID,
		"feed_id":   t.FeedID(),
	})
}

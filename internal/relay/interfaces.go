package relay

import (
	"context"

	"github.com/samvad-hq/babel-client/pkg/babel"
	"github.com/samvad-hq/babel-client/pkg/publishers"
)

// FeedReader is the subset of *babel.Client the relay polls with.
type FeedReader interface {
	GetTargetFeed(ctx context.Context, target, token string, hydrate bool) (*babel.Feed, error)
	GetTargetFeedCount(ctx context.Context, target, token string, deltaToken int64) (*babel.FeedCount, error)
}

// EventPublisher fans annotation events out downstream and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

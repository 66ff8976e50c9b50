package relay

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samvad-hq/babel-client/pkg/babel"
)

// AwaitPolicy bounds how long AwaitFeed keeps polling a feed that does not exist yet.
type AwaitPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultAwaitPolicy suits feeds materialized by asynchronous ingestion.
func DefaultAwaitPolicy() AwaitPolicy {
	return AwaitPolicy{
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  time.Minute,
	}
}

func (p AwaitPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = p.MaxElapsedTime
	return backoff.WithContext(b, ctx)
}

// AwaitFeed reads the target feed, retrying while the service reports it as
// not found. Any other error stops the retries immediately.
func AwaitFeed(ctx context.Context, feeds FeedReader, target, token string, hydrate bool, policy AwaitPolicy) (*babel.Feed, error) {
	op := func() (*babel.Feed, error) {
		feed, err := feeds.GetTargetFeed(ctx, target, token, hydrate)
		if err != nil && !babel.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return feed, err
	}

	feed, err := backoff.RetryWithData(op, policy.backOff(ctx))
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, err
	}
	return feed, nil
}

package babel

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// GetTargetFeed returns the activity feed of target. With hydrate set the
// feed items carry full annotations, otherwise only their ids.
//
// A feed the service has not materialized yet yields a KindNotFound error;
// callers poll again later.
func (c *Client) GetTargetFeed(ctx context.Context, target, token string, hydrate bool) (feed *Feed, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_target_feed", start, err) }()

	if err = requireArg(target, "Missing target"); err != nil {
		return nil, err
	}
	if err = requireArg(token, "Missing token"); err != nil {
		return nil, err
	}

	rc := call{
		method:   http.MethodGet,
		path:     targetFeedPath(target, hydrate),
		token:    token,
		notFound: true,
	}
	var out Feed
	if err = c.do(ctx, rc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTargetFeedCount returns the number of feed items for target, read from
// the service's X-Feed-New-Items header. A positive deltaToken restricts the
// count to items newer than the token.
func (c *Client) GetTargetFeedCount(ctx context.Context, target, token string, deltaToken int64) (count *FeedCount, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_target_feed_count", start, err) }()

	if err = requireArg(target, "Missing target"); err != nil {
		return nil, err
	}
	if err = requireArg(token, "Missing token"); err != nil {
		return nil, err
	}

	rc := call{
		method:   http.MethodHead,
		path:     feedCountPath(target, deltaToken),
		token:    token,
		notFound: true,
	}
	resp, err := c.execute(ctx, rc)
	if err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(resp.Header().Get(headerFeedNewItems))
	if raw == "" {
		err = &Error{Kind: KindDecode, Method: rc.method, Path: rc.path, Err: fmt.Errorf("missing %s header", headerFeedNewItems)}
		return nil, err
	}
	n, convErr := strconv.Atoi(raw)
	if convErr != nil {
		err = &Error{Kind: KindDecode, Method: rc.method, Path: rc.path, Err: fmt.Errorf("invalid %s header %q: %w", headerFeedNewItems, raw, convErr)}
		return nil, err
	}
	return &FeedCount{Count: n, DeltaToken: deltaToken}, nil
}

// GetFeeds returns a merged, hydrated view of several feeds, one sub-feed per id.
func (c *Client) GetFeeds(ctx context.Context, feedIDs []string, token string) (result *FeedsResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_feeds", start, err) }()

	ids := make([]string, 0, len(feedIDs))
	for _, id := range feedIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		err = validationError("Missing feed ids")
		return nil, err
	}
	if err = requireArg(token, "Missing token"); err != nil {
		return nil, err
	}

	rc := call{
		method:   http.MethodGet,
		path:     feedsPath(ids),
		token:    token,
		notFound: true,
	}
	var out FeedsResult
	if err = c.do(ctx, rc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

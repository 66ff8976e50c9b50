// Package babel is a client for the Babel annotation and feed service.
//
// It maps typed calls onto the service's REST endpoints and classifies every
// response into either a decoded value or a *Error whose Kind tells callers
// how to react:
//
//	client, err := babel.New("babel", "3001", babel.WithLogger(log))
//	feed, err := client.GetTargetFeed(ctx, "http://foo/1", token, true)
//	if babel.IsRetryable(err) {
//	    // feed not materialized yet, poll again later
//	}
//
// The client never retries on its own. Feed materialization on the service
// is asynchronous, so a NotFound right after a write is expected unless the
// write used Synchronously().
package babel

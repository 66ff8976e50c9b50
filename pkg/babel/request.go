package babel

import (
	"crypto/md5" //nolint:gosec // feed keys are md5 digests on the service side
	"encoding/hex"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	headerAccept       = "Accept"
	headerAuth         = "Authorization"
	headerContentType  = "Content-Type"
	headerUserAgent    = "User-Agent"
	headerIngestSync   = "X-Ingest-Synchronously"
	headerFeedNewItems = "X-Feed-New-Items"

	mimeJSON = "application/json"

	annotationsPath   = "/annotations"
	hydratedFeedsPath = "/feeds/annotations/hydrate"
)

// Fingerprint returns the feed key the service derives from a target URI:
// the lowercase hex MD5 of the raw string.
func Fingerprint(target string) string {
	sum := md5.Sum([]byte(target))
	return hex.EncodeToString(sum[:])
}

// TargetFeedID returns the feed id of a target's activity feed, as accepted by GetFeeds.
func TargetFeedID(target string) string {
	return "targets:" + Fingerprint(target) + ":activity"
}

func targetFeedPath(target string, hydrate bool) string {
	p := "/feeds/targets/" + Fingerprint(target) + "/activity/annotations"
	if hydrate {
		p += "/hydrate"
	}
	return p
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func feedCountPath(target string, deltaToken int64) string {
	q := url.Values{}
	if deltaToken > 0 {
		q.Set("delta_token", strconv.FormatInt(deltaToken, 10))
	}
	return withQuery(targetFeedPath(target, false), q)
}

func feedsPath(feedIDs []string) string {
	q := url.Values{}
	q.Set("feed_ids", strings.Join(feedIDs, ","))
	return withQuery(hydratedFeedsPath, q)
}

// Filter narrows GetAnnotations. Zero values are omitted from the query.
// Extra is passed through verbatim for query options the service adds later.
type Filter struct {
	HasTarget   string
	AnnotatedBy string
	HasBodyURI  string
	HasBodyType string
	// Q is a text search on hasBody.chars; the service then ignores HasTarget and AnnotatedBy.
	Q      string
	Limit  int
	Offset int
	Extra  map[string]string
}

// Values encodes f as query parameters.
func (f Filter) Values() url.Values {
	q := url.Values{}
	for k, v := range f.Extra {
		if k == "" {
			continue
		}
		q.Set(k, v)
	}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("hasTarget", f.HasTarget)
	set("annotatedBy", f.AnnotatedBy)
	set("hasBody.uri", f.HasBodyURI)
	set("hasBody.type", f.HasBodyType)
	set("q", f.Q)
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

func annotationsQueryPath(f Filter) string {
	return withQuery(annotationsPath, f.Values())
}

// call is one fully built request, ready for the transport.
type call struct {
	method  string
	path    string
	token   string
	body    []byte
	headers map[string]string
	// notFound marks endpoints where 404 means "feed not materialized yet".
	notFound bool
}

func (c *Client) headersFor(rc call) map[string]string {
	h := map[string]string{
		headerAccept: mimeJSON,
		headerAuth:   "Bearer " + rc.token,
	}
	if c.userAgent != "" {
		h[headerUserAgent] = c.userAgent
	}
	if rc.method == http.MethodPost || len(rc.body) > 0 {
		h[headerContentType] = mimeJSON
	}
	for k, v := range rc.headers {
		h[k] = v
	}
	return h
}

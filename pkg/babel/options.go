package babel

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samvad-hq/babel-client/pkg/httpclient"
)

const defaultTimeout = 30 * time.Second

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	http       httpclient.Client
	timeout    time.Duration
	log        Logger
	metricsReg prometheus.Registerer
	userAgent  string
}

// WithHTTPClient injects the transport. When unset, a resty-backed transport
// is built on first use.
func WithHTTPClient(h httpclient.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.http = h
	})
}

// WithTimeout sets the per-request timeout of the default transport.
// It has no effect together with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger sets the logger used for operation diagnostics. Default: discard.
func WithLogger(l Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.log = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// CreateOption tunes a single CreateAnnotation call.
type CreateOption func(*createConfig)

type createConfig struct {
	synchronous bool
}

// Synchronously asks the service to update feed projections before replying,
// so reads issued right after the call observe the new annotation.
func Synchronously() CreateOption {
	return func(c *createConfig) { c.synchronous = true }
}

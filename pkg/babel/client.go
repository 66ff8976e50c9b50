package babel

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/babel-client/pkg/httpclient"
)

// Client talks to one Babel service. It is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	log       Logger
	obs       *observer

	httpOnce sync.Once
	http     httpclient.Client
}

// New creates a Client for http://host:port. No network access happens here.
func New(host, port string, opts ...Option) (*Client, error) {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	if host == "" || port == "" {
		return nil, configError("Both babelHost and babelPort must be specified")
	}
	return newClient("http://"+host+":"+port, opts)
}

// NewWithBaseURL creates a Client for a full base URL such as https://babel.example.com.
func NewWithBaseURL(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, configError("Babel base URL must be specified")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Message: fmt.Sprintf("Invalid Babel base URL %q", baseURL), Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, configError(fmt.Sprintf("Babel base URL must be an absolute http or https URL, got %q", baseURL))
	}
	return newClient(baseURL, opts)
}

func newClient(baseURL string, opts []Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		if o != nil {
			o.apply(cfg)
		}
	}

	log := ensureLogger(cfg.log)
	obs := &observer{log: log}
	if cfg.metricsReg != nil {
		m, err := newClientMetrics(cfg.metricsReg)
		if err != nil {
			return nil, &Error{Kind: KindConfig, Message: "Unable to register Babel client metrics", Err: err}
		}
		obs.metrics = m
	}

	return &Client{
		baseURL:   baseURL,
		userAgent: cfg.userAgent,
		timeout:   cfg.timeout,
		log:       log,
		obs:       obs,
		http:      cfg.http,
	}, nil
}

// BaseURL returns the service root the client sends requests to.
func (c *Client) BaseURL() string { return c.baseURL }

// transport returns the injected transport or builds the default one once.
func (c *Client) transport() httpclient.Client {
	c.httpOnce.Do(func() {
		if c.http == nil {
			c.http = httpclient.NewRestyClient(c.timeout)
		}
	})
	return c.http
}

package proxy

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

// checkProxyTimeout is the timeout for checking if the proxy is reachable.
// We use a short timeout here because this is just a connectivity check,
// not an actual request through the proxy.
const checkProxyTimeout = 2 * time.Second

// Client builds HTTP clients that route through the configured proxy and
// decorate every request with the session's User-Agent, cookie, and headers.
//
// Design decision: We don't connect to the proxy in the constructor because:
//  1. It allows creating the client before the proxy service is reachable
//  2. It separates object creation from network operations
//  3. It allows for better testing with mock proxies
type Client struct {
	// proxyURL is the parsed proxy endpoint, or nil for direct connections.
	proxyURL *url.URL

	// timeout is the per-request timeout for HTTP clients created by this client.
	timeout time.Duration

	// retries is the number of times a failed request is retried.
	retries int

	// userAgent is sent with every request.
	userAgent string

	// cookie is a raw cookie string added to every request, or empty.
	cookie string

	// headers are custom headers added to every request.
	headers map[string]string

	// logger records retry activity. Never nil.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithCookie sets a raw cookie string added to every request.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) Option {
	return func(c *Client) { c.cookie = cookie }
}

// WithHeaders sets custom headers added to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) { c.headers = headers }
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// WithLogger sets the logger used for retry and connectivity messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new proxy client.
//
// rawURL is the proxy endpoint in http(s)://[apikey:@]host:port form; an
// empty string configures a direct client. The timeout applies to whole
// requests made by HTTP clients this client creates.
//
// This function validates the proxy URL but does not verify that the proxy
// is actually reachable. Call CheckConnection() to verify.
func NewClient(rawURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	c := &Client{
		timeout: timeout,
		logger:  slog.Default(),
	}

	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, ErrInvalidProxyURL
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, ErrInvalidProxyURL
		}
		c.proxyURL = u
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ProxyURL returns the configured proxy URL, or empty string for direct mode.
func (c *Client) ProxyURL() string {
	if c.proxyURL == nil {
		return ""
	}
	return c.proxyURL.String()
}

// CheckConnection verifies that the proxy endpoint accepts TCP connections.
// It returns a Status indicating the result of the check. Direct clients
// always report StatusDirect.
//
// The check deliberately stops at the TCP layer: anti-bot proxies charge
// per request, so we avoid burning a billable request just to probe.
func (c *Client) CheckConnection(ctx context.Context) Status {
	if c.proxyURL == nil {
		return StatusDirect
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	host := c.proxyURL.Host
	if c.proxyURL.Port() == "" {
		if c.proxyURL.Scheme == "https" {
			host = net.JoinHostPort(c.proxyURL.Hostname(), "443")
		} else {
			host = net.JoinHostPort(c.proxyURL.Hostname(), "80")
		}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return StatusTimeout
		}
		return StatusCannotConnect
	}
	defer conn.Close() //nolint:errcheck // Probe connection, nothing written

	return StatusOK
}

// NewHTTPClient creates an HTTP client configured for the proxy.
//
// Design decisions:
//   - TLS verification is disabled because anti-bot proxies terminate TLS
//     and re-sign responses with their own certificate
//   - Cookies are enabled via a cookie jar so the lookup site's session
//     survives the landing-page fetch and the form submission
//   - Redirect limit is 10 to prevent redirect loops while allowing the
//     lookup form's redirect to the detail page
//   - Failed requests are retried by a wrapping transport before the
//     caller sees an error
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: c.proxyFunc(),
		// The proxy re-signs upstream TLS with its own certificate, so
		// verification against the public roots cannot succeed.
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: c.proxyURL != nil, //nolint:gosec // Required for TLS-terminating proxies
		},
		// Connection pool settings
		// We use smaller values than defaults because each connection holds
		// a billable proxy session
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	var rt http.RoundTripper = transport
	if c.retries > 0 {
		rt = &retryTransport{
			base:    rt,
			retries: c.retries,
			logger:  c.logger,
		}
	}
	rt = &decoratingTransport{
		base:      rt,
		userAgent: c.userAgent,
		cookie:    c.cookie,
		headers:   c.headers,
	}

	// The public suffix list keeps the jar from leaking cookies across
	// unrelated registrable domains.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: rt,
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// proxyFunc returns the transport proxy selector for this client.
func (c *Client) proxyFunc() func(*http.Request) (*url.URL, error) {
	if c.proxyURL == nil {
		return nil
	}
	return http.ProxyURL(c.proxyURL)
}

// decoratingTransport wraps an http.RoundTripper to inject the configured
// User-Agent, cookie, and custom headers into every request, including
// redirects and subrequests.
type decoratingTransport struct {
	base      http.RoundTripper
	userAgent string
	cookie    string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *decoratingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}

	// Append to existing Cookie header or set new one
	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}

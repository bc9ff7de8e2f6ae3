package proxy

import "errors"

// Proxy connectivity errors.
//
// Design decision: We define specific error types rather than wrapping all errors
// generically. This allows callers to handle different failure modes appropriately
// (e.g., retry on timeout, but fail fast on a malformed proxy URL).
var (
	// ErrInvalidProxyURL is returned when the proxy URL cannot be parsed or
	// uses a scheme other than http or https. Forwarding proxies of the
	// anti-bot kind are plain HTTP CONNECT proxies.
	ErrInvalidProxyURL = errors.New("invalid proxy URL: expected http(s)://[apikey:@]host:port")

	// ErrProxyCannotConnect is returned when we cannot establish a TCP
	// connection to the proxy address. The service may be down or the
	// address may be wrong.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy")

	// ErrProxyTimeout is returned when the connection to the proxy times out.
	ErrProxyTimeout = errors.New("timeout connecting to proxy")
)

// Status represents the result of checking the proxy connection.
type Status int

const (
	// StatusOK indicates the proxy accepted a TCP connection.
	StatusOK Status = iota

	// StatusDirect indicates no proxy is configured; requests go out directly.
	StatusDirect

	// StatusCannotConnect indicates we could not establish a connection.
	StatusCannotConnect

	// StatusTimeout indicates the connection attempt timed out.
	StatusTimeout
)

// String returns a human-readable description of the proxy status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusDirect:
		return "direct (no proxy)"
	case StatusCannotConnect:
		return "cannot connect"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error returns the appropriate error for this status, or nil if reachable.
func (s Status) Error() error {
	switch s {
	case StatusOK, StatusDirect:
		return nil
	case StatusCannotConnect:
		return ErrProxyCannotConnect
	case StatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown proxy status")
	}
}

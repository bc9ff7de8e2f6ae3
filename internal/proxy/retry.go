package proxy

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// retryBaseDelay is the delay before the first retry. Each subsequent
// attempt doubles it. The values are small because the anti-bot proxy
// already queues requests on its side.
const retryBaseDelay = 500 * time.Millisecond

// retryTransport wraps an http.RoundTripper and retries failed requests.
//
// A request is retried on transport errors and on response codes that
// indicate a transient upstream problem (429 and 5xx). Responses the
// lookup site produces deliberately, like a 404 for an unknown
// certificate, pass through untouched.
//
// Design decision: Retrying lives in the transport rather than in each
// caller because:
//  1. Every request in a run shares the same retry policy
//  2. Redirect subrequests issued by http.Client get retried too
//  3. Callers keep the plain one-shot http.Client API
type retryTransport struct {
	base    http.RoundTripper
	retries int
	logger  *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Requests whose body cannot be replayed are sent exactly once.
	if req.Body != nil && req.GetBody == nil {
		return t.base.RoundTrip(req)
	}

	var (
		resp *http.Response
		err  error
	)

	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			// Requests with a body need a fresh copy per attempt.
			if req.Body != nil {
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return nil, bodyErr
				}
				req.Body = body
			}

			delay := retryBaseDelay << (attempt - 1)
			t.logger.Debug("retrying request",
				"url", req.URL.String(),
				"attempt", attempt,
				"delay", delay.String(),
			)

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		resp, err = t.base.RoundTrip(req)
		if err != nil {
			if errors.Is(err, req.Context().Err()) && req.Context().Err() != nil {
				return nil, err
			}
			continue
		}
		if !retryableStatus(resp.StatusCode) || attempt == t.retries {
			// Out of attempts: the caller sees the last response so the
			// status code stays visible in its error path.
			return resp, nil
		}

		// Drain and close so the underlying connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // Best effort drain
		_ = resp.Body.Close()                                       //nolint:errcheck // Best effort close
	}

	return nil, err
}

// retryableStatus reports whether a response code warrants a retry.
func retryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

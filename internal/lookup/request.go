package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// BuildRequest builds the HTTP request that submits the given certificate
// identifier through the discovered form.
//
// POST forms carry the fields urlencoded in the body; GET forms carry them
// in the query string, mirroring how a browser submits each kind.
func (f *Form) BuildRequest(ctx context.Context, identifier string) (*http.Request, error) {
	values := url.Values{}
	for name, vals := range f.Hidden {
		for _, v := range vals {
			values.Add(name, v)
		}
	}
	values.Set(f.InputName, identifier)

	if f.Method == http.MethodGet {
		u, err := url.Parse(f.Action)
		if err != nil {
			return nil, fmt.Errorf("invalid form action: %w", err)
		}
		q := u.Query()
		for name, vals := range values {
			for _, v := range vals {
				q.Add(name, v)
			}
		}
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build lookup request: %w", err)
		}
		return req, nil
	}

	req, err := http.NewRequestWithContext(ctx, f.Method, f.Action, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

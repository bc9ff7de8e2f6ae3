package lookup

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
)

func TestFormBuildRequest(t *testing.T) {
	t.Parallel()

	t.Run("POST form encodes fields in the body", func(t *testing.T) {
		t.Parallel()

		form := &Form{
			Action:    "https://www.cgccards.com/certlookup",
			Method:    "POST",
			InputName: "certNumber",
			Hidden: url.Values{
				"__RequestVerificationToken": {"tok123"},
				"lookup":                     {"verify"},
			},
		}

		req, err := form.BuildRequest(context.Background(), "4383977001")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if req.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", req.Method)
		}
		if got := req.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %q", got)
		}

		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatal(err)
		}
		values, err := url.ParseQuery(string(body))
		if err != nil {
			t.Fatal(err)
		}
		if got := values.Get("certNumber"); got != "4383977001" {
			t.Errorf("expected identifier in body, got %q", got)
		}
		if got := values.Get("__RequestVerificationToken"); got != "tok123" {
			t.Errorf("expected hidden token in body, got %q", got)
		}
		if got := values.Get("lookup"); got != "verify" {
			t.Errorf("expected submit button pair in body, got %q", got)
		}
	})

	t.Run("POST request body is replayable for retries", func(t *testing.T) {
		t.Parallel()

		form := &Form{
			Action:    "https://example.com/lookup",
			Method:    "POST",
			InputName: "cert",
			Hidden:    url.Values{},
		}

		req, err := form.BuildRequest(context.Background(), "1")
		if err != nil {
			t.Fatal(err)
		}
		if req.GetBody == nil {
			t.Fatal("expected GetBody to be set for form submissions")
		}
		body, err := req.GetBody()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "cert=1" {
			t.Errorf("expected replayed body 'cert=1', got %q", data)
		}
	})

	t.Run("GET form encodes fields in the query", func(t *testing.T) {
		t.Parallel()

		form := &Form{
			Action:    "https://example.com/lookup?site=1",
			Method:    "GET",
			InputName: "cert",
			Hidden:    url.Values{"token": {"t"}},
		}

		req, err := form.BuildRequest(context.Background(), "42")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if req.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", req.Method)
		}
		if req.Body != nil {
			t.Error("expected no body on GET submission")
		}

		q := req.URL.Query()
		if got := q.Get("cert"); got != "42" {
			t.Errorf("expected identifier in query, got %q", got)
		}
		if got := q.Get("token"); got != "t" {
			t.Errorf("expected hidden field in query, got %q", got)
		}
		if got := q.Get("site"); got != "1" {
			t.Errorf("expected existing query preserved, got %q", got)
		}
	})
}

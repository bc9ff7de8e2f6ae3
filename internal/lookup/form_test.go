package lookup

import (
	"errors"
	"strings"
	"testing"
)

const landingPage = `<!DOCTYPE html>
<html>
<body>
  <header><form action="/search"><input type="text" name="q"></form></header>
  <form action="/certlookup" method="post">
    <input type="hidden" name="__RequestVerificationToken" value="tok123">
    <input type="tel" name="certNumber" placeholder="Enter certificate number">
    <button type="submit" name="lookup" value="verify">Look Up</button>
  </form>
</body>
</html>`

func TestDiscoverForm(t *testing.T) {
	t.Parallel()

	t.Run("finds the tel input and enclosing form", func(t *testing.T) {
		t.Parallel()

		form, err := DiscoverForm(strings.NewReader(landingPage), "https://www.cgccards.com/", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if form.Action != "https://www.cgccards.com/certlookup" {
			t.Errorf("expected resolved action, got %q", form.Action)
		}
		if form.Method != "POST" {
			t.Errorf("expected POST method, got %q", form.Method)
		}
		if form.InputName != "certNumber" {
			t.Errorf("expected input name 'certNumber', got %q", form.InputName)
		}
		if got := form.Hidden.Get("__RequestVerificationToken"); got != "tok123" {
			t.Errorf("expected hidden token captured, got %q", got)
		}
		if got := form.Hidden.Get("lookup"); got != "verify" {
			t.Errorf("expected lookup button value captured, got %q", got)
		}
	})

	t.Run("form without method defaults to POST", func(t *testing.T) {
		t.Parallel()

		page := `<form action="/go"><input type="tel" name="cert"></form>`
		form, err := DiscoverForm(strings.NewReader(page), "https://example.com/", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if form.Method != "POST" {
			t.Errorf("expected POST default, got %q", form.Method)
		}
	})

	t.Run("form without action submits to the landing URL", func(t *testing.T) {
		t.Parallel()

		page := `<form method="get"><input type="tel" name="cert"></form>`
		form, err := DiscoverForm(strings.NewReader(page), "https://example.com/lookup", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if form.Action != "https://example.com/lookup" {
			t.Errorf("expected landing URL action, got %q", form.Action)
		}
		if form.Method != "GET" {
			t.Errorf("expected GET method, got %q", form.Method)
		}
	})

	t.Run("custom input selector", func(t *testing.T) {
		t.Parallel()

		page := `<form action="/x"><input type="text" id="cert-input" name="serial"></form>`
		form, err := DiscoverForm(strings.NewReader(page), "https://example.com/", "#cert-input")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if form.InputName != "serial" {
			t.Errorf("expected input name 'serial', got %q", form.InputName)
		}
	})

	t.Run("page without lookup input returns ErrFormNotFound", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><p>maintenance</p></body></html>`
		_, err := DiscoverForm(strings.NewReader(page), "https://example.com/", "")
		if !errors.Is(err, ErrFormNotFound) {
			t.Errorf("expected ErrFormNotFound, got %v", err)
		}
	})

	t.Run("input outside any form returns ErrFormNotFound", func(t *testing.T) {
		t.Parallel()

		// Note: the HTML parser hoists stray inputs into body, not form.
		page := `<html><body><div><input type="tel" name="cert"></div></body></html>`
		_, err := DiscoverForm(strings.NewReader(page), "https://example.com/", "")
		if !errors.Is(err, ErrFormNotFound) {
			t.Errorf("expected ErrFormNotFound, got %v", err)
		}
	})

	t.Run("nameless input returns ErrNoInputName", func(t *testing.T) {
		t.Parallel()

		page := `<form action="/x"><input type="tel"></form>`
		_, err := DiscoverForm(strings.NewReader(page), "https://example.com/", "")
		if !errors.Is(err, ErrNoInputName) {
			t.Errorf("expected ErrNoInputName, got %v", err)
		}
		if !errors.Is(err, ErrFormNotFound) {
			t.Errorf("expected ErrNoInputName to count as ErrFormNotFound, got %v", err)
		}
	})
}

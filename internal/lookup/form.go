package lookup

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Form discovery errors.
var (
	// ErrFormNotFound is returned when the landing page contains no
	// recognizable lookup form. This is fatal for a run: without the
	// form no identifier can be resolved.
	ErrFormNotFound = errors.New("lookup form not found on landing page")

	// ErrNoInputName is returned when the lookup input has no name
	// attribute, which would make the submission field unnameable. It
	// wraps ErrFormNotFound: a form whose input cannot be named is as
	// unusable as no form at all, and callers treat both as fatal.
	ErrNoInputName = fmt.Errorf("%w: lookup input has no name attribute", ErrFormNotFound)
)

// defaultInputSelector matches the certificate number input on the
// landing page. The site renders it as a tel-type input so mobile
// browsers show a numeric keypad.
const defaultInputSelector = `input[type="tel"]`

// submitButtonName is the name of the submit button whose value must be
// included in the form submission. The site's backend dispatches on it.
const submitButtonName = "lookup"

// Form describes the certificate lookup form discovered on the landing page.
type Form struct {
	// Action is the absolute URL the form submits to.
	Action string

	// Method is the HTTP method, uppercased. Defaults to POST when the
	// form does not declare one, since certificate lookups mutate
	// server-side session state on this site.
	Method string

	// InputName is the name of the certificate number field.
	InputName string

	// Hidden holds hidden input name/value pairs that must accompany
	// every submission (CSRF tokens and the like).
	Hidden url.Values
}

// DiscoverForm parses the landing page HTML and locates the certificate
// lookup form.
//
// The inputSelector chooses the lookup input; when empty the default
// tel-type input selector is used. baseURL resolves a relative form
// action; it should be the URL the landing page was fetched from.
//
// Returns ErrFormNotFound when no matching input or enclosing form
// exists on the page.
func DiscoverForm(body io.Reader, baseURL string, inputSelector string) (*Form, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse landing page: %w", err)
	}

	if inputSelector == "" {
		inputSelector = defaultInputSelector
	}

	input := doc.Find(inputSelector).First()
	if input.Length() == 0 {
		return nil, ErrFormNotFound
	}

	form := input.Closest("form")
	if form.Length() == 0 {
		return nil, ErrFormNotFound
	}

	inputName, ok := input.Attr("name")
	if !ok || inputName == "" {
		return nil, ErrNoInputName
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid landing URL: %w", err)
	}

	action := base.String()
	if raw, ok := form.Attr("action"); ok && strings.TrimSpace(raw) != "" {
		ref, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid form action %q: %w", raw, err)
		}
		action = base.ResolveReference(ref).String()
	}

	method := "POST"
	if raw, ok := form.Attr("method"); ok && strings.TrimSpace(raw) != "" {
		method = strings.ToUpper(strings.TrimSpace(raw))
	}

	hidden := url.Values{}
	form.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		value, _ := s.Attr("value")
		hidden.Set(name, value)
	})

	// The site's backend dispatches on the clicked button's value, so a
	// named lookup button rides along as if it had been clicked.
	form.Find(`button[name], input[type="submit"][name]`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name != submitButtonName {
			return
		}
		value, _ := s.Attr("value")
		hidden.Set(name, value)
	})

	return &Form{
		Action:    action,
		Method:    method,
		InputName: inputName,
		Hidden:    hidden,
	}, nil
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/certsnap/certsnap/internal/lookup"
	"github.com/certsnap/certsnap/internal/media"
	"github.com/certsnap/certsnap/internal/model"
)

// LookupStep submits the certificate lookup form for the record's
// identifier and keeps the detail page response for the parse step.
type LookupStep struct {
	// client performs the submission through the run's proxied transport.
	client *http.Client

	// form is the lookup form discovered once on the landing page.
	form *lookup.Form

	// maxBodySize caps how much of the detail page is read.
	maxBodySize int64

	// pageBody and pageURL hold the fetched detail page for the parse
	// step. pageURL is the final URL after redirects, which is what
	// relative media URLs must resolve against.
	pageBody []byte
	pageURL  string
}

// NewLookupStep creates the form-submission step.
func NewLookupStep(client *http.Client, form *lookup.Form, maxBodySize int64) *LookupStep {
	return &LookupStep{
		client:      client,
		form:        form,
		maxBodySize: maxBodySize,
	}
}

// Name returns the step name.
func (s *LookupStep) Name() string {
	return "lookup"
}

// Do submits the form and buffers the detail page.
func (s *LookupStep) Do(ctx context.Context, record *model.ResultRecord) error {
	record.State = model.StateRequested

	req, err := s.form.BuildRequest(ctx, record.Identifier)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only response body

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	// One byte past the cap so a too-large page is detected instead of
	// silently truncated and parsed lossily.
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read detail page: %w", err)
	}
	if int64(len(body)) > s.maxBodySize {
		return fmt.Errorf("detail page exceeds %d byte limit", s.maxBodySize)
	}

	s.pageBody = body
	s.pageURL = resp.Request.URL.String()
	return nil
}

// ParseStep extracts media references from the detail page fetched by the
// lookup step.
type ParseStep struct {
	// source is the lookup step holding the page to parse.
	source *LookupStep

	// selector is the media container selector.
	selector string

	// logger warns when a page yields no references.
	logger *slog.Logger

	// refs holds the extracted references for the fetch step.
	refs []model.MediaReference
}

// NewParseStep creates the detail-page parsing step.
func NewParseStep(source *LookupStep, selector string, logger *slog.Logger) *ParseStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStep{
		source:   source,
		selector: selector,
		logger:   logger,
	}
}

// Name returns the step name.
func (s *ParseStep) Name() string {
	return "parse"
}

// Do parses the buffered detail page and records the reference URLs.
// A page without media is valid output, not an error.
func (s *ParseStep) Do(_ context.Context, record *model.ResultRecord) error {
	refs, err := lookup.ExtractMediaReferences(
		bytes.NewReader(s.source.pageBody), s.source.pageURL, s.selector)
	if err != nil {
		return err
	}

	if len(refs) == 0 {
		s.logger.Warn("no media found on detail page",
			"identifier", record.Identifier,
			"url", s.source.pageURL,
		)
	}

	s.refs = refs
	for _, ref := range refs {
		record.AddReference(ref.URL)
	}

	record.State = model.StateParsed
	return nil
}

// FetchStep downloads the parsed references into the media store.
type FetchStep struct {
	// source is the parse step holding the references.
	source *ParseStep

	// fetcher performs the downloads.
	fetcher *media.Fetcher
}

// NewFetchStep creates the media download step.
func NewFetchStep(source *ParseStep, fetcher *media.Fetcher) *FetchStep {
	return &FetchStep{
		source:  source,
		fetcher: fetcher,
	}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do downloads every reference, reserving indices of failed downloads.
func (s *FetchStep) Do(ctx context.Context, record *model.ResultRecord) error {
	stored, err := s.fetcher.FetchAll(ctx, record.Identifier, s.source.refs)
	for _, sm := range stored {
		record.AddStored(sm)
	}
	if err != nil {
		return err
	}

	record.State = model.StateResolved
	return nil
}

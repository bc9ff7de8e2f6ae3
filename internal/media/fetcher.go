package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/certsnap/certsnap/internal/model"
)

// Fetcher downloads media references and hands the bytes to a Store.
type Fetcher struct {
	// client performs the downloads. It should be the run's proxied client
	// so media requests pass the same anti-bot layer as the lookups.
	client *http.Client

	// store receives the downloaded bytes.
	store *Store

	// maxBodySize caps how many bytes a single download may occupy.
	maxBodySize int64

	// logger records per-file failures. Never nil.
	logger *slog.Logger
}

// NewFetcher creates a fetcher writing into the given store.
func NewFetcher(client *http.Client, store *Store, maxBodySize int64, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:      client,
		store:       store,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// FetchAll downloads the references for one identifier in index order and
// returns the successfully stored files.
//
// A failed download is logged and skipped, but its index stays reserved:
// the next reference keeps its own index, so filenames always match
// positions in the reference list and gaps on disk mark failures. Only a
// canceled context aborts the remaining downloads.
func (f *Fetcher) FetchAll(ctx context.Context, identifier string, refs []model.MediaReference) ([]model.StoredMedia, error) {
	stored := make([]model.StoredMedia, 0, len(refs))

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		sm, err := f.fetchOne(ctx, identifier, ref)
		if err != nil {
			f.logger.Warn("media download failed",
				"identifier", identifier,
				"index", ref.Index,
				"url", ref.URL,
				"error", err.Error(),
			)
			continue
		}
		stored = append(stored, sm)
	}

	return stored, nil
}

// fetchOne downloads a single reference and writes it to the store.
func (f *Fetcher) fetchOne(ctx context.Context, identifier string, ref model.MediaReference) (model.StoredMedia, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return model.StoredMedia{}, fmt.Errorf("failed to build media request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return model.StoredMedia{}, fmt.Errorf("media request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only response body

	if resp.StatusCode != http.StatusOK {
		return model.StoredMedia{}, fmt.Errorf("media request returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	ext := Extension(ref.URL, contentType)

	// Buffer the body so the EXIF probe does not need a second fetch.
	// The limit is one byte past the cap so an oversized body is
	// distinguishable from one that exactly fits.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return model.StoredMedia{}, fmt.Errorf("failed to read media body: %w", err)
	}
	if int64(len(data)) > f.maxBodySize {
		return model.StoredMedia{}, fmt.Errorf("media body exceeds %d byte limit", f.maxBodySize)
	}

	path, size, err := f.store.Write(identifier, ref.Index, ext, bytes.NewReader(data))
	if err != nil {
		return model.StoredMedia{}, err
	}

	sm := model.StoredMedia{
		Identifier:  identifier,
		Index:       ref.Index,
		Path:        path,
		URL:         ref.URL,
		ContentType: contentType,
		Size:        size,
	}

	if exifCapable(ext) {
		sm.EXIF = ExtractImageMetadata(data)
	}

	return sm, nil
}

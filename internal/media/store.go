package media

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// defaultExtension is used when neither the URL path nor the response
// Content-Type reveals the media type. Certificate scans are JPEGs in
// practice, so this is the safe guess.
const defaultExtension = ".jpg"

// contentTypeExtensions maps common media MIME types to file extensions.
// We keep our own small table instead of relying on mime.ExtensionsByType
// alone because that function's answer order is platform dependent.
var contentTypeExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/tiff":      ".tif",
	"image/bmp":       ".bmp",
	"image/svg+xml":   ".svg",
	"application/pdf": ".pdf",
}

// Store writes downloaded media into a directory tree rooted at Root.
type Store struct {
	// Root is the base directory for all identifiers.
	Root string
}

// NewStore creates a store rooted at the given directory.
// The root itself is not created until the first write.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Path returns the file path for the given identifier, sequence index and
// extension: <root>/<identifier>/image_<index><ext>.
func (s *Store) Path(identifier string, index int, ext string) string {
	return filepath.Join(s.Root, identifier, fmt.Sprintf("image_%d%s", index, ext))
}

// Write stores the content read from r at the path for identifier/index/ext,
// creating the identifier directory on first use. It returns the final path
// and the number of bytes written.
func (s *Store) Write(identifier string, index int, ext string, r io.Reader) (string, int64, error) {
	dir := filepath.Join(s.Root, identifier)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", 0, fmt.Errorf("failed to create media directory: %w", err)
	}

	path := s.Path(identifier, index, ext)
	f, err := os.Create(path) //nolint:gosec // Path is derived from the configured storage root
	if err != nil {
		return "", 0, fmt.Errorf("failed to create media file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()       //nolint:errcheck,gosec // Write already failed
		os.Remove(path) //nolint:errcheck,gosec // Best effort cleanup of the partial file
		return "", 0, fmt.Errorf("failed to write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close media file: %w", err)
	}

	return path, n, nil
}

// Extension picks the file extension for a media asset.
// The URL path's extension wins; otherwise the response Content-Type is
// mapped; otherwise the default .jpg is used.
func Extension(mediaURL, contentType string) string {
	if u, err := url.Parse(mediaURL); err == nil {
		if ext := filepath.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}

	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if ext, ok := contentTypeExtensions[mediaType]; ok {
				return ext
			}
		}
	}

	return defaultExtension
}

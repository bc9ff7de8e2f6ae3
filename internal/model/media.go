package model

import "time"

// MediaReference is a resolved absolute URL to an image or document
// discovered on a certificate's detail page.
//
// A reference belongs to exactly one certificate identifier and its Index
// records the 1-based position of first appearance on the page. The index
// is significant: it drives stable output columns and the local filename
// of the downloaded artifact.
type MediaReference struct {
	// URL is the absolute URL of the media asset. Relative URLs found in
	// the page markup are resolved against the detail page address before
	// a MediaReference is created.
	URL string `json:"url"`

	// Index is the 1-based position of first appearance on the detail page.
	Index int `json:"index"`

	// SourceTag is the HTML tag the URL was taken from ("a" or "img").
	SourceTag string `json:"source_tag,omitempty"`

	// SourceAttr is the attribute the URL was taken from ("href" or "src").
	SourceAttr string `json:"source_attr,omitempty"`
}

// StoredMedia records a media reference that was downloaded and written to
// the local store. It persists beyond the run as a durable filesystem
// artifact; the struct mirrors what the run-history database stores.
//
// Invariant: Index equals the Index of the MediaReference the file came
// from. A failed download reserves its index, so indices of later files
// never shift when an earlier fetch fails.
type StoredMedia struct {
	// Identifier is the certificate identifier the file belongs to.
	Identifier string `json:"identifier"`

	// Index is the 1-based sequence index within the identifier.
	Index int `json:"index"`

	// Path is the local filesystem path the content was written to.
	Path string `json:"path"`

	// URL is the media reference URL the content was fetched from.
	URL string `json:"url"`

	// ContentType is the MIME type declared by the server, if any.
	ContentType string `json:"content_type,omitempty"`

	// Size is the number of bytes written.
	Size int64 `json:"size"`

	// EXIF holds capture metadata extracted from the image, if present.
	EXIF *ImageMetadata `json:"exif,omitempty"`
}

// ImageMetadata is the subset of EXIF data certsnap records for archival
// purposes. Extraction is best effort: most certificate scans carry no
// EXIF at all, and a missing or malformed block is not an error.
type ImageMetadata struct {
	// CameraMake is the camera or scanner manufacturer.
	CameraMake string `json:"camera_make,omitempty"`

	// CameraModel is the camera or scanner model.
	CameraModel string `json:"camera_model,omitempty"`

	// Software is the software tag, often the editing or scanning program.
	Software string `json:"software,omitempty"`

	// CapturedAt is the original capture timestamp, if present.
	CapturedAt time.Time `json:"captured_at,omitempty"`
}

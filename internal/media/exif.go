package media

import (
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/certsnap/certsnap/internal/model"
)

// exifCapableExtensions lists file extensions whose formats can carry EXIF.
// Probing other formats is a waste: PNG and GIF have no EXIF segment.
var exifCapableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// exifTimestampLayout is the timestamp format EXIF uses for DateTime tags.
const exifTimestampLayout = "2006:01:02 15:04:05"

// ExtractImageMetadata probes image bytes for the EXIF fields certsnap
// archives. It returns nil when the image carries no EXIF block or none of
// the interesting tags; EXIF parse failures are treated the same way
// because a corrupt metadata block does not make the stored file useless.
func ExtractImageMetadata(data []byte) *model.ImageMetadata {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	var meta model.ImageMetadata
	found := false

	// DateTimeOriginal is the capture moment; DateTimeDigitized and
	// DateTime are digitization and file modification times. Collect all
	// three and pick the most specific one afterwards.
	timestamps := make(map[string]time.Time)

	for _, entry := range entries {
		value := strings.TrimSpace(entry.Formatted)
		if value == "" {
			continue
		}

		switch entry.TagName {
		case "Make":
			meta.CameraMake = value
			found = true
		case "Model":
			meta.CameraModel = value
			found = true
		case "Software", "ProcessingSoftware":
			if meta.Software == "" {
				meta.Software = value
				found = true
			}
		case "DateTimeOriginal", "DateTimeDigitized", "DateTime":
			if ts, err := time.ParseInLocation(exifTimestampLayout, value, time.Local); err == nil {
				timestamps[entry.TagName] = ts
			}
		}
	}

	for _, tag := range []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"} {
		if ts, ok := timestamps[tag]; ok {
			meta.CapturedAt = ts
			found = true
			break
		}
	}

	if !found {
		return nil
	}
	return &meta
}

// exifCapable reports whether the extension belongs to an EXIF-carrying format.
func exifCapable(ext string) bool {
	return exifCapableExtensions[strings.ToLower(ext)]
}

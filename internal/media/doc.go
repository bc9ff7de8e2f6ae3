// Package media downloads certificate media and stores it on disk.
//
// Files land under <root>/<identifier>/image_<index>.<ext>, one directory
// per certificate, with the index taken from the media reference. A failed
// download keeps its index reserved: indices are positions in the detail
// page's reference list, so the URL-to-filename mapping stays stable and a
// gap on disk marks a failure.
//
// Downloaded JPEG and TIFF files are probed for EXIF capture metadata.
// Extraction is best effort; certificate scans usually carry none.
package media

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigFile verifies YAML parsing of the .certsnap file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, ".certsnap")
		content := `site:
  imagesSelector: "div.cert-media"
  cookie: "session=abc"
  headers:
    Accept-Language: "en-US"
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cf.Site.ImagesSelector != "div.cert-media" {
			t.Errorf("expected imagesSelector 'div.cert-media', got %q", cf.Site.ImagesSelector)
		}
		if cf.Site.Cookie != "session=abc" {
			t.Errorf("expected cookie 'session=abc', got %q", cf.Site.Cookie)
		}
		if cf.Site.Headers["Accept-Language"] != "en-US" {
			t.Errorf("expected Accept-Language header, got %v", cf.Site.Headers)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".certsnap")
		if err := os.WriteFile(path, []byte("site: [broken"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error, got nil")
		}
	})
}

// TestFileMerge verifies that file values override the base site config
// only when set.
func TestFileMerge(t *testing.T) {
	t.Parallel()

	base := SiteConfig{
		ImagesSelector: "div.certlookup-images-item",
		Headers:        map[string]string{"X-Base": "1"},
	}

	t.Run("empty file keeps base values", func(t *testing.T) {
		t.Parallel()

		cf := &File{}
		got := cf.Merge(base)
		if got.ImagesSelector != base.ImagesSelector {
			t.Errorf("expected base selector kept, got %q", got.ImagesSelector)
		}
	})

	t.Run("file values override and extend", func(t *testing.T) {
		t.Parallel()

		cf := &File{Site: SiteConfig{
			ImagesSelector: "div.other",
			Headers:        map[string]string{"X-Extra": "2"},
		}}
		got := cf.Merge(base)
		if got.ImagesSelector != "div.other" {
			t.Errorf("expected overridden selector, got %q", got.ImagesSelector)
		}
		if got.Headers["X-Base"] != "1" || got.Headers["X-Extra"] != "2" {
			t.Errorf("expected merged headers, got %v", got.Headers)
		}
	})
}

// TestFindConfigFile verifies the explicit-path branch; the cwd and home
// fallbacks depend on the environment and are not asserted here.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "conf.yaml")
		if err := os.WriteFile(path, []byte("site: {}\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

package lookup

import (
	"strings"
	"testing"

	"github.com/certsnap/certsnap/internal/model"
)

const detailPage = `<!DOCTYPE html>
<html>
<body>
  <div class="certlookup-images-item">
    <a href="/media/cert/4383977001/front_full.jpg">
      <img src="/media/cert/4383977001/front_thumb.jpg">
    </a>
  </div>
  <div class="certlookup-images-item">
    <a href="/media/cert/4383977001/back_full.jpg">
      <img src="/media/cert/4383977001/back_thumb.jpg">
    </a>
  </div>
  <div class="certlookup-images-item">
    <img src="https://cdn.example.com/slab.jpg">
  </div>
  <img src="/media/banner.jpg">
</body>
</html>`

func TestExtractMediaReferences(t *testing.T) {
	t.Parallel()

	const selector = "div.certlookup-images-item"
	const pageURL = "https://www.cgccards.com/certlookup/4383977001"

	t.Run("prefers anchor href over img src and resolves URLs", func(t *testing.T) {
		t.Parallel()

		refs, err := ExtractMediaReferences(strings.NewReader(detailPage), pageURL, selector)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []model.MediaReference{
			{URL: "https://www.cgccards.com/media/cert/4383977001/front_full.jpg", Index: 1, SourceTag: "a", SourceAttr: "href"},
			{URL: "https://www.cgccards.com/media/cert/4383977001/back_full.jpg", Index: 2, SourceTag: "a", SourceAttr: "href"},
			{URL: "https://cdn.example.com/slab.jpg", Index: 3, SourceTag: "img", SourceAttr: "src"},
		}

		if len(refs) != len(want) {
			t.Fatalf("expected %d references, got %d: %v", len(want), len(refs), refs)
		}
		for i, ref := range refs {
			if ref != want[i] {
				t.Errorf("reference %d = %+v, want %+v", i, ref, want[i])
			}
		}
	})

	t.Run("elements outside the container are ignored", func(t *testing.T) {
		t.Parallel()

		refs, err := ExtractMediaReferences(strings.NewReader(detailPage), pageURL, selector)
		if err != nil {
			t.Fatal(err)
		}
		for _, ref := range refs {
			if strings.Contains(ref.URL, "banner") {
				t.Errorf("expected banner image outside container to be skipped, got %q", ref.URL)
			}
		}
	})

	t.Run("duplicate URLs are kept first-seen", func(t *testing.T) {
		t.Parallel()

		page := `
<div class="m"><a href="/a.jpg">x</a></div>
<div class="m"><a href="/b.jpg">x</a></div>
<div class="m"><a href="/a.jpg">x</a></div>`
		refs, err := ExtractMediaReferences(strings.NewReader(page), "https://example.com/", "div.m")
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 2 {
			t.Fatalf("expected 2 unique references, got %d", len(refs))
		}
		if refs[0].URL != "https://example.com/a.jpg" || refs[1].URL != "https://example.com/b.jpg" {
			t.Errorf("expected first-seen order, got %v", refs)
		}
	})

	t.Run("non-fetchable schemes are skipped", func(t *testing.T) {
		t.Parallel()

		page := `
<div class="m"><a href="javascript:void(0)">x</a></div>
<div class="m"><a href="data:image/png;base64,AAAA">x</a></div>
<div class="m"><a href="mailto:support@example.com">x</a></div>
<div class="m"><a href="/real.jpg">x</a></div>`
		refs, err := ExtractMediaReferences(strings.NewReader(page), "https://example.com/", "div.m")
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 1 {
			t.Fatalf("expected 1 reference, got %d: %v", len(refs), refs)
		}
		if refs[0].URL != "https://example.com/real.jpg" {
			t.Errorf("expected only the real media URL, got %q", refs[0].URL)
		}
	})

	t.Run("lightbox anchor falls back to the img src", func(t *testing.T) {
		t.Parallel()

		page := `
<div class="m"><a href="javascript:void(0)"><img src="/real.jpg"></a></div>
<div class="m"><a href="/full.jpg"><img src="/full_thumb.jpg"></a></div>`
		refs, err := ExtractMediaReferences(strings.NewReader(page), "https://example.com/", "div.m")
		if err != nil {
			t.Fatal(err)
		}

		want := []model.MediaReference{
			{URL: "https://example.com/real.jpg", Index: 1, SourceTag: "img", SourceAttr: "src"},
			{URL: "https://example.com/full.jpg", Index: 2, SourceTag: "a", SourceAttr: "href"},
		}
		if len(refs) != len(want) {
			t.Fatalf("expected %d references, got %d: %v", len(want), len(refs), refs)
		}
		for i, ref := range refs {
			if ref != want[i] {
				t.Errorf("reference %d = %+v, want %+v", i, ref, want[i])
			}
		}
	})

	t.Run("empty container yields empty list without error", func(t *testing.T) {
		t.Parallel()

		page := `<div class="m"><p>no images</p></div>`
		refs, err := ExtractMediaReferences(strings.NewReader(page), "https://example.com/", "div.m")
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 0 {
			t.Errorf("expected no references, got %v", refs)
		}
	})

	t.Run("page without container yields empty list without error", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><p>certificate not found</p></body></html>`
		refs, err := ExtractMediaReferences(strings.NewReader(page), "https://example.com/", "div.m")
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 0 {
			t.Errorf("expected no references, got %v", refs)
		}
	})
}

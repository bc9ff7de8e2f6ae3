package lookup

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/certsnap/certsnap/internal/model"
)

// skippedSchemes are URL schemes that never point at downloadable media.
var skippedSchemes = map[string]bool{
	"data":       true,
	"javascript": true,
	"mailto":     true,
	"tel":        true,
}

// ExtractMediaReferences parses a certificate detail page and returns the
// media URLs found inside the configured container elements.
//
// Within each container anchor hrefs are preferred over image srcs: the
// site wraps the full-resolution scan in a link around a thumbnail img,
// and the link is the asset worth archiving. The first candidate that
// resolves to a fetchable URL wins, so a javascript: lightbox anchor
// falls through to the thumbnail src instead of masking it. Relative
// URLs are resolved against pageURL. URLs are deduplicated first-seen,
// so the reference order follows document order.
func ExtractMediaReferences(body io.Reader, pageURL string, containerSelector string) ([]model.MediaReference, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	var refs []model.MediaReference
	seen := make(map[string]bool)

	doc.Find(containerSelector).Each(func(_ int, container *goquery.Selection) {
		for _, cand := range containerCandidates(container) {
			resolved, ok := resolveMediaURL(base, cand.raw)
			if !ok {
				continue
			}
			if !seen[resolved] {
				seen[resolved] = true
				refs = append(refs, model.MediaReference{
					URL:        resolved,
					Index:      len(refs) + 1,
					SourceTag:  cand.tag,
					SourceAttr: cand.attr,
				})
			}
			return
		}
	})

	return refs, nil
}

// mediaCandidate is one possible URL source inside a container element.
type mediaCandidate struct {
	raw  string
	tag  string
	attr string
}

// containerCandidates lists a container's possible media URLs in
// preference order: anchor hrefs first, then image srcs. The caller
// takes the first fetchable one, so an anchor carrying only a
// javascript: handler does not hide the img underneath it.
func containerCandidates(container *goquery.Selection) []mediaCandidate {
	var cands []mediaCandidate
	container.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			cands = append(cands, mediaCandidate{raw: strings.TrimSpace(href), tag: "a", attr: "href"})
		}
	})
	container.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
			cands = append(cands, mediaCandidate{raw: strings.TrimSpace(src), tag: "img", attr: "src"})
		}
	})
	return cands
}

// resolveMediaURL resolves raw against base and reports whether the result
// is a fetchable http(s) URL.
func resolveMediaURL(base *url.URL, raw string) (string, bool) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if skippedSchemes[strings.ToLower(ref.Scheme)] {
		return "", false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}

package config

// SiteConfig holds site-specific tuning loaded from the .certsnap file.
// These settings exist because lookup sites occasionally change their
// markup or require extra request decoration; adjusting the config file
// beats patching selectors in code.
type SiteConfig struct {
	// ImagesSelector overrides the detail-page media container selector.
	ImagesSelector string `yaml:"imagesSelector,omitempty"`

	// FormSelector overrides the landing-page lookup input selector.
	// Defaults to the tel-type input the site currently uses.
	FormSelector string `yaml:"formSelector,omitempty"`

	// Cookie is an HTTP cookie sent with every request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers added to every request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .certsnap configuration file.
type File struct {
	// Site holds the lookup-site tuning.
	Site SiteConfig `yaml:"site,omitempty"`
}

// Merge applies non-empty values from the file's site section onto the
// given SiteConfig and returns the result.
func (cf *File) Merge(base SiteConfig) SiteConfig {
	result := base

	if cf.Site.ImagesSelector != "" {
		result.ImagesSelector = cf.Site.ImagesSelector
	}
	if cf.Site.FormSelector != "" {
		result.FormSelector = cf.Site.FormSelector
	}
	if cf.Site.Cookie != "" {
		result.Cookie = cf.Site.Cookie
	}
	if len(cf.Site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range cf.Site.Headers {
			result.Headers[k] = v
		}
	}

	return result
}

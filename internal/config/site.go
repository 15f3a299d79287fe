package config

// File is the structure of the .webstitch configuration file.
type File struct {
	// Defaults apply to every site without a specific entry.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps a host name to its site-specific configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// SiteConfig holds per-site settings. Sites differ wildly in markup, so
// the selectors that locate content and next links are the main thing
// configured here; cookies and headers cover sites behind authentication.
type SiteConfig struct {
	// ContentSelector overrides the CSS selector for the content fragment.
	ContentSelector string `yaml:"contentSelector,omitempty"`

	// NextSelector overrides the CSS selector for the next-page anchor.
	NextSelector string `yaml:"nextSelector,omitempty"`

	// NextAttr overrides the attribute holding the next-page URL.
	NextAttr string `yaml:"nextAttr,omitempty"`

	// Cookie is an HTTP cookie to send when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxChapters overrides the global chapter cap for this site.
	// Zero means use the global value.
	MaxChapters int `yaml:"maxChapters,omitempty"`
}

// ForHost returns the site configuration for host, merged over Defaults.
// Fields left empty in the site entry inherit the default entry's values.
func (f *File) ForHost(host string) SiteConfig {
	if f == nil {
		return SiteConfig{}
	}

	merged := f.Defaults
	// Copy the headers map so merging never mutates the Defaults entry.
	if len(merged.Headers) > 0 {
		headers := make(map[string]string, len(merged.Headers))
		for name, value := range merged.Headers {
			headers[name] = value
		}
		merged.Headers = headers
	}

	site, ok := f.Sites[host]
	if !ok {
		return merged
	}

	if site.ContentSelector != "" {
		merged.ContentSelector = site.ContentSelector
	}
	if site.NextSelector != "" {
		merged.NextSelector = site.NextSelector
	}
	if site.NextAttr != "" {
		merged.NextAttr = site.NextAttr
	}
	if site.Cookie != "" {
		merged.Cookie = site.Cookie
	}
	if site.MaxChapters != 0 {
		merged.MaxChapters = site.MaxChapters
	}
	if len(site.Headers) > 0 {
		if merged.Headers == nil {
			merged.Headers = make(map[string]string, len(site.Headers))
		}
		for name, value := range site.Headers {
			merged.Headers[name] = value
		}
	}

	return merged
}

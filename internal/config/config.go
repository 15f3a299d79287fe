package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These are chosen for polite crawling of ordinary web servers; all of them
// can be overridden via CLI flags or the .webstitch config file.
const (
	// DefaultTimeout is the per-request timeout. 30 seconds is generous for
	// slow origins while still letting a stalled page fail in finite time.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency bounds in-flight fetch+extract operations.
	// A chapter chain is discovered link by link, so high values rarely
	// help; 8 leaves headroom without hammering the origin.
	DefaultConcurrency = 8

	// DefaultMaxChapters caps pages per run. This prevents runaway chains
	// on sites whose "next" links never end. Override with --max-chapters.
	DefaultMaxChapters = 200

	// DefaultContentSelector picks the content fragment of a page.
	// <main> is the HTML5 landmark most documentation sites use.
	DefaultContentSelector = "main"

	// DefaultNextSelector picks the anchor carrying the next-page link.
	// rel="next" is the standard pagination hint.
	DefaultNextSelector = `a[rel="next"]`

	// DefaultUserAgent identifies webstitch in HTTP requests.
	// A descriptive User-Agent lets operators identify crawler traffic.
	DefaultUserAgent = "webstitch/1.0 (+https://github.com/nao1215/webstitch)"

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB covers any realistic HTML page while bounding memory use.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultOutputFile is where the stitched document is written.
	DefaultOutputFile = "stitched.html"

	// AppName is the application name used for XDG directory paths.
	AppName = "webstitch"
)

// Config holds all options for one webstitch invocation.
// It is populated from CLI flags and the optional config file, validated
// once, and passed through the application by value reference rather than
// global state.
type Config struct {
	// StartURL is the first page of the chain.
	StartURL string

	// Concurrency is the maximum number of in-flight fetch+extract
	// operations.
	Concurrency int

	// MaxChapters caps pages per run. 0 means unlimited.
	MaxChapters int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// ContentSelector is the CSS selector for the content fragment.
	ContentSelector string

	// NextSelector is the CSS selector for the next-page anchor.
	// Empty disables chain following.
	NextSelector string

	// NextAttr is the attribute on the next-page anchor holding the URL.
	// Empty means "href".
	NextAttr string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// 0 means use DefaultMaxBodySize.
	MaxBodySize int64

	// ProxyURL routes requests through a proxy when set.
	ProxyURL string

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport switches the run summary to JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport switches the run summary to Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// OutputFile is the path the stitched HTML document is written to.
	OutputFile string

	// ReportFile, when set, writes the run summary there instead of stdout.
	ReportFile string

	// ConfigFilePath is the explicit path to the .webstitch config file.
	// Empty means search the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// SaveToArchive enables archiving the completed run to the database.
	SaveToArchive bool

	// DBDir is the directory holding the archive database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig creates a Config with all defaults applied.
//
// Design decision: We use a constructor rather than relying on zero values
// because most defaults are non-zero (timeout, selectors, concurrency).
// The constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		Concurrency:     DefaultConcurrency,
		MaxChapters:     DefaultMaxChapters,
		Timeout:         DefaultTimeout,
		ContentSelector: DefaultContentSelector,
		NextSelector:    DefaultNextSelector,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		OutputFile:      DefaultOutputFile,
		SaveToArchive:   true,
		DBDir:           XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for webstitch.
// On Linux: ~/.local/share/webstitch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webstitch.
// On Linux: ~/.config/webstitch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns a sentinel error describing
// the first problem found. It is called once after flag parsing, before any
// crawling begins, so bad configurations fail fast with a clear message.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxChapters < 0 {
		return ErrInvalidMaxChapters
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.ContentSelector == "" {
		return ErrNoContentSelector
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

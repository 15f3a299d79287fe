package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and support errors.Is for
// programmatic handling while still reading well in CLI output.
var (
	// ErrNoStartURL is returned when no start URL was provided.
	ErrNoStartURL = errors.New("no start URL specified: provide the first page of the chain")

	// ErrInvalidConcurrency is returned when the concurrency limit is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxChapters is returned when the chapter cap is negative.
	// Use 0 for an unlimited chain.
	ErrInvalidMaxChapters = errors.New("invalid max chapters: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body size cap is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoContentSelector is returned when the content selector is empty.
	ErrNoContentSelector = errors.New("no content selector specified")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are requested. Only one summary format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)

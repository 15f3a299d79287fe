package model

import "time"

// StitchReport summarizes one completed crawl run.
// It is the unit the report writers render and the archive database stores.
type StitchReport struct {
	// StartURL is the URL the chain started from.
	StartURL string `json:"start_url"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total wall-clock duration of the crawl.
	Elapsed time.Duration `json:"elapsed"`

	// Results holds every reported chapter result in sequence order,
	// successes and failures both.
	Results []ChapterResult `json:"results"`
}

// NewStitchReport creates a report for the given start URL with the
// started-at timestamp set to now.
func NewStitchReport(startURL string) *StitchReport {
	return &StitchReport{
		StartURL:  startURL,
		StartedAt: time.Now(),
	}
}

// Chapters returns the successfully extracted chapters in sequence order.
// Failed pages are omitted; they remain visible via Failures.
func (r *StitchReport) Chapters() []*Chapter {
	chapters := make([]*Chapter, 0, len(r.Results))
	for _, res := range r.Results {
		if res.OK() {
			chapters = append(chapters, res.Chapter)
		}
	}
	return chapters
}

// Failures returns the results that ended in a fetch or extract error.
func (r *StitchReport) Failures() []ChapterResult {
	failures := make([]ChapterResult, 0)
	for _, res := range r.Results {
		if !res.OK() {
			failures = append(failures, res)
		}
	}
	return failures
}

// SuccessCount returns the number of successfully extracted chapters.
func (r *StitchReport) SuccessCount() int {
	count := 0
	for _, res := range r.Results {
		if res.OK() {
			count++
		}
	}
	return count
}

// FailureCount returns the number of failed pages.
func (r *StitchReport) FailureCount() int {
	return len(r.Results) - r.SuccessCount()
}

// Complete reports whether every crawled page yielded a chapter.
func (r *StitchReport) Complete() bool {
	return r.FailureCount() == 0
}

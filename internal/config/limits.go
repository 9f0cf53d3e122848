package config

import "time"

const (
	// MaxTitleLength is the maximum length of an article title in bytes,
	// matching MediaWiki's own page title limit.
	MaxTitleLength = 255

	// MaxTopN bounds the limit parameter of ranking endpoints.
	MaxTopN = 100

	// MaxPageviewDays bounds a single pageview request. The per-article
	// pageview data only goes back to mid-2015 anyway.
	MaxPageviewDays = 730

	// MaxRevisionBound caps max_revisions so a single request cannot page
	// through the full history of the largest articles.
	MaxRevisionBound = 50000

	// PageviewChunkDays is the size of each independently fetched (and
	// independently failing) pageview subrange.
	PageviewChunkDays = 90

	// MaxRevisionAge bounds max_age_days.
	MaxRevisionAge = 20 * 365 * 24 * time.Hour
)

package wiki

import (
	"context"
	"time"

	"wikidash/internal/domain/models/wiki"
)

// RevisionQuery bounds a revision history fetch. Zero values mean unbounded.
type RevisionQuery struct {
	Title        string
	MaxRevisions int           // keep only the most recent N revisions
	MaxAge       time.Duration // keep only revisions newer than now-MaxAge
}

// RevisionFetcher produces the complete, oldest-first revision sequence
// satisfying a query, or fails. It never returns a truncated sequence.
type RevisionFetcher interface {
	Fetch(ctx context.Context, q RevisionQuery) ([]wiki.Revision, error)
}

// PageviewFetcher returns one sample per day in range. Upstream failures on
// subranges are flagged in the series instead of failing the call.
type PageviewFetcher interface {
	Fetch(ctx context.Context, title string, r wiki.DateRange) (*wiki.PageviewSeries, error)
}

// ArticleContent is the current markup of an article
type ArticleContent struct {
	Title  string
	Markup string
	Format wiki.MarkupFormat
}

// ContentFetcher retrieves the current article markup for citation extraction
type ContentFetcher interface {
	FetchContent(ctx context.Context, title string) (*ArticleContent, error)
}

// SummaryFetcher retrieves the article intro and creation metadata
type SummaryFetcher interface {
	FetchSummary(ctx context.Context, title string) (*wiki.ArticleSummary, error)
	FetchMetadata(ctx context.Context, title string) (*wiki.ArticleMetadata, error)
}

// GeoResolver maps anonymous editor IPs to countries. It never fails: lookups
// that cannot be answered come back as explicit unresolved estimates.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) wiki.CountryEstimate
	ResolveAll(ctx context.Context, ips []string) (wiki.CountryMap, bool)
}

// SummaryConverter turns the extract HTML of an article intro into the
// text format served to clients
type SummaryConverter interface {
	Convert(ctx context.Context, html string) (string, error)
	Name() string
}

package wiki

import (
	"context"

	"wikidash/internal/domain/models/wiki"
)

// AnalysisService runs one derivation pipeline per request kind
type AnalysisService interface {
	// Article returns summary, metadata and recent pageviews (partial allowed)
	Article(ctx context.Context, req *AnalysisRequest) (*wiki.ArticleView, error)

	// EditCount breaks the revision count down by editor kind
	EditCount(ctx context.Context, req *AnalysisRequest) (*wiki.EditCountView, error)

	// EditTimeline counts revisions per calendar day
	EditTimeline(ctx context.Context, req *AnalysisRequest) (*wiki.TimelineView, error)

	// RevertTimeline counts reverting revisions per calendar day
	RevertTimeline(ctx context.Context, req *AnalysisRequest) (*wiki.TimelineView, error)

	// TopContributors ranks editors by revision count
	TopContributors(ctx context.Context, req *AnalysisRequest) (*wiki.RankingView, error)

	// TopReverters ranks editors by revert count
	TopReverters(ctx context.Context, req *AnalysisRequest) (*wiki.RankingView, error)

	// CoEditors lists handoff pairs among the top contributors
	CoEditors(ctx context.Context, req *AnalysisRequest) (*wiki.CoEditorView, error)

	// Citations returns the citation domain breakdown (partial allowed)
	Citations(ctx context.Context, req *AnalysisRequest) (*wiki.CitationView, error)

	// Pageviews returns the daily view series (partial allowed)
	Pageviews(ctx context.Context, req *AnalysisRequest) (*wiki.PageviewView, error)

	// Countries geolocates anonymous editors (revisions strict, geolocation partial)
	Countries(ctx context.Context, req *AnalysisRequest) (*wiki.CountryView, error)
}

// Gap policies for pageview series
const (
	GapsReport      = "report"
	GapsInterpolate = "interpolate"
)

// AnalysisRequest carries the query parameters shared by every request kind.
// Zero values fall back to configured defaults.
type AnalysisRequest struct {
	Title        string `json:"title"`
	Limit        int    `json:"limit,omitempty"`         // top-N for rankings
	Timezone     string `json:"timezone,omitempty"`      // IANA zone for day buckets
	MaxRevisions int    `json:"max_revisions,omitempty"` // revision-count bound
	MaxAgeDays   int    `json:"max_age_days,omitempty"`  // revision-age bound
	Start        string `json:"start,omitempty"`         // YYYY-MM-DD, pageviews
	End          string `json:"end,omitempty"`           // YYYY-MM-DD, pageviews
	Gaps         string `json:"gaps,omitempty"`          // GapsReport or GapsInterpolate
}

// Pipeline runs the analysis behind one request kind and returns its view
type Pipeline func(ctx context.Context, req *AnalysisRequest) (any, error)

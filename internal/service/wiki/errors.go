package wiki

import (
	"errors"

	"wikidash/internal/domain"
	"wikidash/internal/service/wiki/external"
)

// Upstream source names used in errors, logs and incomplete markers
const (
	sourceRevisions   = "revisions"
	sourcePageviews   = "pageviews"
	sourceContent     = "content"
	sourceSummary     = "summary"
	sourceMetadata    = "metadata"
	sourceGeolocation = "geolocation"
)

// classify maps an upstream client error onto the domain taxonomy.
// A missing page is ArticleNotFound, anything else the retry policy gave up
// on is SourceUnavailable.
func classify(source, op, title string, err error) error {
	var srcErr *domain.SourceError
	switch {
	case errors.As(err, &srcErr):
		return err
	case errors.Is(err, external.ErrPageMissing):
		return domain.NewArticleNotFound(source, title)
	default:
		return domain.NewSourceUnavailable(source, op, err)
	}
}

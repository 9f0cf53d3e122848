package wiki

import (
	"context"

	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/endpoints"
)

// Pipelines maps every analysis kind to its service method. Both the HTTP
// server and the CLI dispatch through this table.
func Pipelines(svc wikiSvc.AnalysisService) map[endpoints.Kind]wikiSvc.Pipeline {
	return map[endpoints.Kind]wikiSvc.Pipeline{
		endpoints.KindArticle:      pipeline(svc.Article),
		endpoints.KindEdits:        pipeline(svc.EditCount),
		endpoints.KindEditors:      pipeline(svc.TopContributors),
		endpoints.KindCitations:    pipeline(svc.Citations),
		endpoints.KindEditTimeline: pipeline(svc.EditTimeline),
		endpoints.KindReverts:      pipeline(svc.RevertTimeline),
		endpoints.KindReverters:    pipeline(svc.TopReverters),
		endpoints.KindCoEditors:    pipeline(svc.CoEditors),
		endpoints.KindPageviews:    pipeline(svc.Pageviews),
		endpoints.KindCountries:    pipeline(svc.Countries),
	}
}

// pipeline erases the view type. A nil view pointer never escapes as a
// non-nil interface.
func pipeline[V any](fn func(context.Context, *wikiSvc.AnalysisRequest) (*V, error)) wikiSvc.Pipeline {
	return func(ctx context.Context, req *wikiSvc.AnalysisRequest) (any, error) {
		v, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

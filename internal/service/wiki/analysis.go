package wiki

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"wikidash/internal/config"
	"wikidash/internal/domain"
	models "wikidash/internal/domain/models/wiki"
	wikiSvc "wikidash/internal/domain/services/wiki"
)

// AnalysisOptions holds the defaults applied to zero-valued request fields
type AnalysisOptions struct {
	DefaultTopN         int
	DefaultTimezone     string
	DefaultPageviewDays int
	RequestTimeout      time.Duration // bounds one whole pipeline run, 0 = none
}

type analysisService struct {
	revisions wikiSvc.RevisionFetcher
	pageviews wikiSvc.PageviewFetcher
	content   wikiSvc.ContentFetcher
	summaries wikiSvc.SummaryFetcher
	geo       wikiSvc.GeoResolver
	extractor *CitationExtractor
	detector  RevertDetector
	opts      AnalysisOptions
	now       func() time.Time
	logger    *slog.Logger
}

// NewAnalysisService wires fetchers, detector and extractor into one
// pipeline per request kind
func NewAnalysisService(
	revisions wikiSvc.RevisionFetcher,
	pageviews wikiSvc.PageviewFetcher,
	content wikiSvc.ContentFetcher,
	summaries wikiSvc.SummaryFetcher,
	geo wikiSvc.GeoResolver,
	extractor *CitationExtractor,
	detector RevertDetector,
	opts AnalysisOptions,
	logger *slog.Logger,
) wikiSvc.AnalysisService {
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = 10
	}
	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = "UTC"
	}
	if opts.DefaultPageviewDays <= 0 {
		opts.DefaultPageviewDays = 60
	}
	return &analysisService{
		revisions: revisions,
		pageviews: pageviews,
		content:   content,
		summaries: summaries,
		geo:       geo,
		extractor: extractor,
		detector:  detector,
		opts:      opts,
		now:       time.Now,
		logger:    logger,
	}
}

// Article fans out summary, metadata and recent pageviews. Only a missing
// article fails the call; any other facet failure degrades the view.
func (s *analysisService) Article(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.ArticleView, error) {
	title, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	r, err := s.pageviewRange(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	view := &models.ArticleView{Pageviews: []models.PageviewSample{}, Completeness: models.CompleteResult()}
	var mu sync.Mutex
	degrade := func(facet string, err error) error {
		if err != nil && !errors.Is(err, domain.ErrSourceUnavailable) {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		s.logger.Warn("facet degraded", "title", title, "facet", facet, "error", err)
		view.Degrade(facet)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.summaries.FetchSummary(gctx, title)
		if err != nil {
			return degrade(sourceSummary, err)
		}
		view.Summary = summary
		return nil
	})
	g.Go(func() error {
		metadata, err := s.summaries.FetchMetadata(gctx, title)
		if err != nil {
			return degrade(sourceMetadata, err)
		}
		view.Metadata = metadata
		return nil
	})
	g.Go(func() error {
		series, err := s.pageviews.Fetch(gctx, title, r)
		if err != nil {
			return degrade(sourcePageviews, err)
		}
		view.Pageviews = series.Samples
		if !series.Complete {
			return degrade(sourcePageviews, nil)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// EditCount breaks the revision count down by editor kind
func (s *analysisService) EditCount(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.EditCountView, error) {
	title, revisions, err := s.fetchRevisions(ctx, req)
	if err != nil {
		return nil, err
	}

	view := EditCounts(revisions, s.detector.Detect(revisions))
	view.Title = title
	view.Completeness = models.CompleteResult()
	return &view, nil
}

// EditTimeline counts revisions per calendar day
func (s *analysisService) EditTimeline(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.TimelineView, error) {
	title, revisions, err := s.fetchRevisions(ctx, req)
	if err != nil {
		return nil, err
	}

	loc, tz := s.location(req)
	return assembleTimeline(title, tz, EditTimeline(revisions, loc)), nil
}

// RevertTimeline counts reverting revisions per calendar day
func (s *analysisService) RevertTimeline(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.TimelineView, error) {
	title, revisions, err := s.fetchRevisions(ctx, req)
	if err != nil {
		return nil, err
	}

	loc, tz := s.location(req)
	detection := s.detector.Detect(revisions)
	return assembleTimeline(title, tz, RevertTimeline(revisions, detection, loc)), nil
}

// TopContributors ranks editors by revision count
func (s *analysisService) TopContributors(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.RankingView, error) {
	title, revisions, err := s.fetchRevisions(ctx, req)
	if err != nil {
		return nil, err
	}

	limit := s.limit(req)
	return assembleRanking(title, limit, TopContributors(revisions, limit)), nil
}

// TopReverters ranks editors by revert count
func (s *analysisService) TopReverters(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.RankingView, error) {
	title, revisions, err := s.fetchRevisions(ctx, req)
	if err != nil {
		return nil, err
	}

	limit := s.limit(req)
	detection := s.detector.Detect(revisions)
	return assembleRanking(title, limit, TopReverters(revisions, detection, limit)), nil
}

// CoEditors lists handoff pairs among the top contributors
func (s *analysisService) CoEditors(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.CoEditorView, error) {
	title, revisions, err := s.fetchRevisions(ctx, req)
	if err != nil {
		return nil, err
	}

	return &models.CoEditorView{
		Title:        title,
		Pairs:        CoEditors(revisions, s.limit(req)),
		Completeness: models.CompleteResult(),
	}, nil
}

// Citations extracts and groups citations. A content source that keeps
// failing yields an empty, incomplete view rather than an error.
func (s *analysisService) Citations(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.CitationView, error) {
	title, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	content, err := s.content.FetchContent(ctx, title)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			return nil, err
		}
		s.logger.Warn("facet degraded", "title", title, "facet", sourceContent, "error", err)
		view := assembleCitations(title, models.CitationExtraction{})
		view.Degrade(sourceContent)
		return view, nil
	}

	extraction := s.extractor.Extract(content.Markup, content.Format)
	if extraction.Unparseable > 0 {
		s.logger.Debug("unparseable citation urls dropped", "title", content.Title, "count", extraction.Unparseable)
	}
	return assembleCitations(content.Title, extraction), nil
}

// Pageviews returns the daily series for the requested or default range
func (s *analysisService) Pageviews(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.PageviewView, error) {
	title, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	r, err := s.pageviewRange(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	series, err := s.pageviews.Fetch(ctx, title, r)
	if err != nil {
		return nil, err
	}
	return assemblePageviews(title, series, req.Gaps), nil
}

// Countries geolocates anonymous editors. The revision fetch is strict,
// geolocation failures only mark the view incomplete.
func (s *analysisService) Countries(ctx context.Context, req *wikiSvc.AnalysisRequest) (*models.CountryView, error) {
	title, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	revisions, err := s.revisions.Fetch(ctx, s.revisionQuery(title, req))
	if err != nil {
		return nil, err
	}

	ips, edits := anonymousEdits(revisions)
	estimates, complete := s.geo.ResolveAll(ctx, ips)
	if !complete {
		s.logger.Warn("facet degraded", "title", title, "facet", sourceGeolocation)
	}
	return assembleCountries(title, edits, estimates, complete), nil
}

// fetchRevisions runs the strict part shared by every revision-based kind
func (s *analysisService) fetchRevisions(ctx context.Context, req *wikiSvc.AnalysisRequest) (string, []models.Revision, error) {
	title, err := s.prepare(req)
	if err != nil {
		return "", nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	revisions, err := s.revisions.Fetch(ctx, s.revisionQuery(title, req))
	if err != nil {
		return "", nil, err
	}
	return title, revisions, nil
}

// prepare validates the request and returns the normalised title
func (s *analysisService) prepare(req *wikiSvc.AnalysisRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	return NormalizeTitle(req.Title)
}

func validateRequest(req *wikiSvc.AnalysisRequest) error {
	maxAgeDays := int(config.MaxRevisionAge / (24 * time.Hour))
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.RuneLength(1, config.MaxTitleLength)),
		validation.Field(&req.Limit, validation.Min(0), validation.Max(config.MaxTopN)),
		validation.Field(&req.MaxRevisions, validation.Min(0), validation.Max(config.MaxRevisionBound)),
		validation.Field(&req.MaxAgeDays, validation.Min(0), validation.Max(maxAgeDays)),
		validation.Field(&req.Timezone, validation.By(validTimezone)),
		validation.Field(&req.Start, validation.Date(models.DateLayout)),
		validation.Field(&req.End, validation.Date(models.DateLayout)),
		validation.Field(&req.Gaps, validation.In(wikiSvc.GapsReport, wikiSvc.GapsInterpolate)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validTimezone(value interface{}) error {
	tz, _ := value.(string)
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return errors.New("unknown time zone")
	}
	return nil
}

func (s *analysisService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.RequestTimeout)
}

func (s *analysisService) revisionQuery(title string, req *wikiSvc.AnalysisRequest) wikiSvc.RevisionQuery {
	return wikiSvc.RevisionQuery{
		Title:        title,
		MaxRevisions: req.MaxRevisions,
		MaxAge:       time.Duration(req.MaxAgeDays) * 24 * time.Hour,
	}
}

func (s *analysisService) limit(req *wikiSvc.AnalysisRequest) int {
	if req.Limit > 0 {
		return req.Limit
	}
	return s.opts.DefaultTopN
}

// location resolves the bucketing zone. Request zones were validated already;
// the configured default falls back to UTC if it fails to load.
func (s *analysisService) location(req *wikiSvc.AnalysisRequest) (*time.Location, string) {
	name := req.Timezone
	if name == "" {
		name = s.opts.DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, "UTC"
	}
	return loc, name
}

// pageviewRange fills whichever end of the range the request left open
func (s *analysisService) pageviewRange(req *wikiSvc.AnalysisRequest) (models.DateRange, error) {
	days := s.opts.DefaultPageviewDays
	r := DefaultPageviewRange(s.now(), days)

	if req.End != "" {
		end, err := models.ParseDate(req.End)
		if err != nil {
			return r, fmt.Errorf("%w: end: %v", domain.ErrValidation, err)
		}
		r = models.DateRange{Start: end.AddDays(-(days - 1)), End: end}
	}
	if req.Start != "" {
		start, err := models.ParseDate(req.Start)
		if err != nil {
			return r, fmt.Errorf("%w: start: %v", domain.ErrValidation, err)
		}
		r.Start = start
	}

	switch n := r.Days(); {
	case n == 0:
		return r, &domain.ValidationError{Message: fmt.Sprintf("start %s is after end %s", r.Start, r.End)}
	case n > config.MaxPageviewDays:
		return r, &domain.ValidationError{Message: fmt.Sprintf("date range exceeds %d days", config.MaxPageviewDays)}
	}
	return r, nil
}

package wiki

import (
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"wikidash/internal/cache"
	"wikidash/internal/config"
	models "wikidash/internal/domain/models/wiki"
	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/retry"
	"wikidash/internal/service/wiki/external"
)

// Services holds the wired analysis service and the state it shares across
// requests
type Services struct {
	Analysis wikiSvc.AnalysisService
	GeoCache *cache.TTL[models.CountryEstimate]
}

// RetryPolicy builds the shared retry policy from configuration
func RetryPolicy(cfg *config.Config) retry.Policy {
	policy := retry.Default()
	policy.MaxAttempts = cfg.RetryMaxAttempts
	policy.BaseDelay = cfg.RetryBaseDelay
	policy.MaxDelay = cfg.RetryMaxDelay
	return policy
}

// SetupServices creates the upstream clients, fetchers, resolver and the
// analysis service. The summary converter decides the summary format.
func SetupServices(cfg *config.Config, converter wikiSvc.SummaryConverter, logger *slog.Logger) (*Services, error) {
	strategy, err := ParseRevertStrategy(cfg.RevertStrategy)
	if err != nil {
		return nil, fmt.Errorf("revert strategy: %w", err)
	}

	opts := external.Options{Timeout: cfg.HTTPTimeout, UserAgent: cfg.UserAgent}
	mediaWiki := external.NewMediaWikiClient(cfg.WikiAPIURL, opts)
	pageviewsAPI := external.NewPageviewsClient(cfg.PageviewsAPIURL, cfg.PageviewsProject, opts)
	geoAPI := external.NewGeoClient(cfg.GeoAPIURL, opts)

	policy := RetryPolicy(cfg)

	// Unset or non-positive rate disables limiting
	var limiter *rate.Limiter
	if cfg.GeoRatePerSec > 0 {
		burst := int(cfg.GeoRatePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.GeoRatePerSec), burst)
	}
	geoCache := cache.NewTTL[models.CountryEstimate](cfg.GeoCacheSize, cfg.GeoCacheTTL, nil)

	analysis := NewAnalysisService(
		NewRevisionFetcher(mediaWiki, policy, logger),
		NewPageviewFetcher(pageviewsAPI, policy, logger),
		NewContentFetcher(mediaWiki, models.MarkupFormat(cfg.CitationFormat), policy, logger),
		NewSummaryFetcher(mediaWiki, converter, policy, logger),
		NewGeoResolver(geoAPI, geoCache, policy, limiter, cfg.GeoConcurrency, logger),
		NewCitationExtractor(),
		RevertDetector{Strategy: strategy, Radius: cfg.RevertRadius},
		AnalysisOptions{
			DefaultTopN:         cfg.DefaultTopN,
			DefaultTimezone:     cfg.DefaultTimezone,
			DefaultPageviewDays: cfg.DefaultPageviewDays,
			RequestTimeout:      cfg.RequestTimeout,
		},
		logger,
	)

	logger.Info("analysis services initialized",
		"wiki_api", cfg.WikiAPIURL,
		"citation_format", cfg.CitationFormat,
		"summary_format", converter.Name(),
		"revert_strategy", string(strategy),
		"revert_radius", cfg.RevertRadius,
		"geo_concurrency", cfg.GeoConcurrency,
	)

	return &Services{Analysis: analysis, GeoCache: geoCache}, nil
}

package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"wikidash/internal/config"
	"wikidash/internal/domain"
	models "wikidash/internal/domain/models/wiki"
	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/retry"
	"wikidash/internal/service/wiki/external"
)

// PageviewSource returns the days upstream has data for within a range
type PageviewSource interface {
	Daily(ctx context.Context, title string, r models.DateRange) ([]external.DailyViews, error)
}

type pageviewFetcher struct {
	source    PageviewSource
	policy    retry.Policy
	chunkDays int
	logger    *slog.Logger
}

// NewPageviewFetcher creates a fetcher that requests the range in chunks
// concurrently. A chunk that keeps failing is flagged, not fatal.
func NewPageviewFetcher(source PageviewSource, policy retry.Policy, logger *slog.Logger) wikiSvc.PageviewFetcher {
	return &pageviewFetcher{
		source:    source,
		policy:    policy,
		chunkDays: config.PageviewChunkDays,
		logger:    logger,
	}
}

// Fetch returns exactly one sample per day in r, oldest first.
func (f *pageviewFetcher) Fetch(ctx context.Context, title string, r models.DateRange) (*models.PageviewSeries, error) {
	title, err := NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	days := r.Days()
	if days == 0 {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid date range %s..%s", r.Start, r.End)}
	}
	if days > config.MaxPageviewDays {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("date range exceeds %d days", config.MaxPageviewDays)}
	}

	chunks := r.Split(f.chunkDays)
	results := make([][]external.DailyViews, len(chunks))
	failed := make([]bool, len(chunks))

	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			err := f.policy.Do(ctx, func(ctx context.Context) error {
				var err error
				results[i], err = f.source.Daily(ctx, title, chunk)
				return err
			})
			if err != nil {
				f.logger.Warn("pageview subrange unavailable",
					"title", title,
					"start", chunk.Start.String(),
					"end", chunk.End.String(),
					"error", err,
				)
				failed[i] = true
			}
			// a failed chunk degrades the series, it never cancels its siblings
			return nil
		})
	}
	_ = g.Wait()

	return assembleSeries(r, chunks, results, failed), nil
}

func assembleSeries(r models.DateRange, chunks []models.DateRange, results [][]external.DailyViews, failed []bool) *models.PageviewSeries {
	observed := make(map[string]int64)
	for _, chunk := range results {
		for _, d := range chunk {
			if d.Date.Before(r.Start.Time) || d.Date.After(r.End.Time) {
				continue
			}
			observed[d.Date.String()] = d.Views
		}
	}

	series := &models.PageviewSeries{
		Range:    r,
		Samples:  make([]models.PageviewSample, 0, r.Days()),
		Complete: true,
	}
	for i, chunk := range chunks {
		if failed[i] {
			series.Unavailable = append(series.Unavailable, chunk)
		}
		for day := chunk.Start; !day.After(chunk.End.Time); day = day.AddDays(1) {
			views, ok := observed[day.String()]
			sample := models.PageviewSample{
				Date:        day,
				Views:       views,
				Observed:    ok,
				Unavailable: failed[i],
			}
			if !ok {
				series.Complete = false
			}
			series.Samples = append(series.Samples, sample)
		}
	}
	return series
}

// DefaultPageviewRange ends yesterday (UTC), since today's counts are not
// published yet, and spans the given number of days.
func DefaultPageviewRange(now time.Time, days int) models.DateRange {
	end := models.NewDate(now.UTC()).AddDays(-1)
	return models.DateRange{Start: end.AddDays(-(days - 1)), End: end}
}

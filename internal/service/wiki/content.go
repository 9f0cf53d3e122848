package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	models "wikidash/internal/domain/models/wiki"
	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/retry"
	"wikidash/internal/service/wiki/external"
)

// ArticleSource is the part of the action API that serves current content,
// the intro extract and history bounds
type ArticleSource interface {
	Wikitext(ctx context.Context, title string) (canonical, content string, err error)
	ParsedHTML(ctx context.Context, title string) (canonical, html string, err error)
	Summary(ctx context.Context, title string) (*external.RawSummary, error)
	FirstRevisionTime(ctx context.Context, title string) (time.Time, error)
}

type contentFetcher struct {
	source ArticleSource
	format models.MarkupFormat
	policy retry.Policy
	logger *slog.Logger
}

// NewContentFetcher creates a fetcher returning markup in the given format
func NewContentFetcher(source ArticleSource, format models.MarkupFormat, policy retry.Policy, logger *slog.Logger) wikiSvc.ContentFetcher {
	if format != models.FormatHTML {
		format = models.FormatWikitext
	}
	return &contentFetcher{source: source, format: format, policy: policy, logger: logger}
}

// FetchContent returns the current markup of the article
func (f *contentFetcher) FetchContent(ctx context.Context, title string) (*wikiSvc.ArticleContent, error) {
	title, err := NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	content := &wikiSvc.ArticleContent{Title: title, Format: f.format}
	err = f.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		if f.format == models.FormatHTML {
			content.Title, content.Markup, err = f.source.ParsedHTML(ctx, title)
		} else {
			content.Title, content.Markup, err = f.source.Wikitext(ctx, title)
		}
		return err
	})
	if err != nil {
		return nil, classify(sourceContent, "fetch "+string(f.format), title, err)
	}
	return content, nil
}

type summaryFetcher struct {
	source    ArticleSource
	converter wikiSvc.SummaryConverter
	policy    retry.Policy
	logger    *slog.Logger
}

// NewSummaryFetcher creates a fetcher for the article intro and metadata
func NewSummaryFetcher(source ArticleSource, converter wikiSvc.SummaryConverter, policy retry.Policy, logger *slog.Logger) wikiSvc.SummaryFetcher {
	return &summaryFetcher{source: source, converter: converter, policy: policy, logger: logger}
}

// FetchSummary returns the canonical title, URL and converted intro
func (f *summaryFetcher) FetchSummary(ctx context.Context, title string) (*models.ArticleSummary, error) {
	title, err := NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	var raw *external.RawSummary
	err = f.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, err = f.source.Summary(ctx, title)
		return err
	})
	if err != nil {
		return nil, classify(sourceSummary, "fetch summary", title, err)
	}

	text, err := f.converter.Convert(ctx, raw.ExtractHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to convert summary of %q: %w", title, err)
	}
	f.logger.Debug("summary converted", "title", raw.Title, "converter", f.converter.Name())

	return &models.ArticleSummary{Title: raw.Title, URL: raw.URL, Summary: text}, nil
}

// FetchMetadata returns when the article was created
func (f *summaryFetcher) FetchMetadata(ctx context.Context, title string) (*models.ArticleMetadata, error) {
	title, err := NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	var created time.Time
	err = f.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = f.source.FirstRevisionTime(ctx, title)
		return err
	})
	if err != nil {
		return nil, classify(sourceMetadata, "fetch first revision", title, err)
	}
	created = created.UTC()
	return &models.ArticleMetadata{CreatedAt: &created}, nil
}

package converter

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/service/wiki/converter/sanitizer"
)

// htmlConverter turns an extract into markdown.
// Two stages:
// 1. Sanitize HTML to drop everything but basic formatting
// 2. Convert sanitized HTML to markdown
type htmlConverter struct {
	sanitizer *sanitizer.HTMLSanitizer
	converter *md.Converter
}

// NewHTMLConverter creates the markdown summary converter.
func NewHTMLConverter() wikiSvc.SummaryConverter {
	return &htmlConverter{
		sanitizer: sanitizer.NewHTMLSanitizer(),
		converter: md.NewConverter("", true, nil),
	}
}

// Convert sanitizes then converts. Empty input converts to "".
func (c *htmlConverter) Convert(ctx context.Context, html string) (string, error) {
	sanitized := c.sanitizer.Sanitize(html)

	markdown, err := c.converter.ConvertString(sanitized)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	return strings.TrimSpace(markdown), nil
}

// Name returns the converter name for logging.
func (c *htmlConverter) Name() string {
	return "markdown"
}

package converter

import (
	"context"
	"html"
	"strings"

	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/service/wiki/converter/sanitizer"
)

// textConverter reduces an extract to plain text.
type textConverter struct {
	sanitizer *sanitizer.HTMLSanitizer
}

// NewTextConverter creates the plain-text summary converter.
func NewTextConverter() wikiSvc.SummaryConverter {
	return &textConverter{sanitizer: sanitizer.NewStrictHTMLSanitizer()}
}

// Convert strips all tags, unescapes entities and collapses whitespace.
func (c *textConverter) Convert(ctx context.Context, input string) (string, error) {
	text := html.UnescapeString(c.sanitizer.Sanitize(input))
	return strings.Join(strings.Fields(text), " "), nil
}

// Name returns the converter name for logging.
func (c *textConverter) Name() string {
	return "plaintext"
}

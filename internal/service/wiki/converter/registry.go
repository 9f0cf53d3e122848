package converter

import (
	"fmt"
	"strings"

	wikiSvc "wikidash/internal/domain/services/wiki"
)

// ForFormat returns the summary converter registered under name
// ("markdown" or "text"). Empty means markdown.
func ForFormat(name string) (wikiSvc.SummaryConverter, error) {
	switch strings.ToLower(name) {
	case "", "markdown", "md":
		return NewHTMLConverter(), nil
	case "text", "plaintext":
		return NewTextConverter(), nil
	default:
		return nil, fmt.Errorf("unsupported summary format: %s", name)
	}
}

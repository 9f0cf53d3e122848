package sanitizer

import (
	"github.com/microcosm-cc/bluemonday"
)

// HTMLSanitizer strips markup from article extracts before they are converted.
//
// Thread-safe for concurrent use.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

// NewHTMLSanitizer keeps the formatting an intro extract uses (paragraphs,
// emphasis, lists, links) and drops everything else, including the inline
// styles and spans MediaWiki leaves in extracts.
func NewHTMLSanitizer() *HTMLSanitizer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(false)
	return &HTMLSanitizer{policy: policy}
}

// NewStrictHTMLSanitizer strips all HTML and keeps only text.
func NewStrictHTMLSanitizer() *HTMLSanitizer {
	return &HTMLSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize returns the sanitized HTML string.
func (s *HTMLSanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}

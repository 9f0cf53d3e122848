package wiki

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"wikidash/internal/config"
	"wikidash/internal/domain"
)

// illegalTitleChars can never appear in a page title
const illegalTitleChars = "#<>[]|{}"

var upperFirst = cases.Upper(language.Und)

// NormalizeTitle canonicalises a title the way MediaWiki does before lookup:
// underscores become spaces, runs of whitespace collapse, the text is NFC
// normalised and the first letter is upper-cased. Malformed titles fail with
// ErrArticleNotFound so callers never hit the upstream with them.
func NormalizeTitle(raw string) (string, error) {
	title := strings.ReplaceAll(raw, "_", " ")
	title = strings.Join(strings.Fields(title), " ")
	title = norm.NFC.String(title)

	if title == "" || len(title) > config.MaxTitleLength || !utf8.ValidString(title) {
		return "", domain.NewArticleNotFound("title", raw)
	}
	for _, r := range title {
		if unicode.IsControl(r) || strings.ContainsRune(illegalTitleChars, r) {
			return "", domain.NewArticleNotFound("title", raw)
		}
	}

	first, size := utf8.DecodeRuneInString(title)
	return upperFirst.String(string(first)) + title[size:], nil
}

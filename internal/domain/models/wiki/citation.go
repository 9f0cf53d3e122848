package wiki

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// MarkupFormat tells the extractor how to read article content.
type MarkupFormat string

const (
	FormatWikitext MarkupFormat = "wikitext"
	FormatHTML     MarkupFormat = "html"
)

// ErrUnparseableURL is returned by NewCitation for URLs with no usable host.
var ErrUnparseableURL = errors.New("unparseable citation url")

// Citation is one distinct source URL cited by the article.
// The domain is derived from the URL and cannot be set independently.
type Citation struct {
	url         string
	domain      string
	Occurrences int
}

// NewCitation parses rawURL and derives its registrable domain.
func NewCitation(rawURL string) (Citation, error) {
	domain, err := DomainOf(rawURL)
	if err != nil {
		return Citation{}, err
	}
	return Citation{url: rawURL, domain: domain, Occurrences: 1}, nil
}

// URL returns the cited URL as found in the markup
func (c Citation) URL() string { return c.url }

// Domain returns the derived registrable domain
func (c Citation) Domain() string { return c.domain }

// MarshalJSON exposes the derived fields
func (c Citation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		URL         string `json:"url"`
		Domain      string `json:"domain"`
		Occurrences int    `json:"occurrences"`
	}{c.url, c.domain, c.Occurrences})
}

// DomainOf derives the registrable domain of a citation URL.
// Scheme, port, path and subdomains are discarded; protocol-relative URLs are accepted.
func DomainOf(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparseableURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnparseableURL, u.Scheme)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", fmt.Errorf("%w: empty host in %q", ErrUnparseableURL, rawURL)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparseableURL, err)
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		// single-label hosts or bare public suffixes
		return strings.TrimPrefix(ascii, "www."), nil
	}
	return registrable, nil
}

// CitationExtraction is everything the extractor found in one markup document.
type CitationExtraction struct {
	Citations   []Citation `json:"citations"`
	References  int        `json:"references"`  // ref constructs / footnotes seen
	Total       int        `json:"total"`       // URL occurrences, parseable or not
	Unparseable int        `json:"unparseable"` // URL occurrences dropped as malformed
}

package wiki

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	models "wikidash/internal/domain/models/wiki"
)

var (
	// <ref name="x">body</ref> or <ref name="x" />
	refPattern     = regexp.MustCompile(`(?is)<ref\b([^>]*?)(?:/>|>(.*?)</ref\s*>)`)
	refNamePattern = regexp.MustCompile(`(?i)\bname\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'/>]+))`)
	// absolute or protocol-relative URLs, stopping at wikitext delimiters
	urlPattern = regexp.MustCompile(`(?i)(?:https?:)?//[^\s\[\]<>"|{}]+`)
)

// trailing punctuation that belongs to the prose, not the URL
const urlTrailers = ".,;:!?)'"

// CitationExtractor pulls cited source URLs out of article markup.
// Malformed URLs never fail an extraction; they are counted and dropped.
type CitationExtractor struct{}

// NewCitationExtractor creates an extractor
func NewCitationExtractor() *CitationExtractor {
	return &CitationExtractor{}
}

// Extract reads citations from wikitext <ref> tags or from the rendered
// reference list of an HTML page.
func (e *CitationExtractor) Extract(markup string, format models.MarkupFormat) models.CitationExtraction {
	acc := newCitationAccumulator()
	if format == models.FormatHTML {
		extractHTML(markup, acc)
	} else {
		extractWikitext(markup, acc)
	}
	return acc.result()
}

func extractWikitext(markup string, acc *citationAccumulator) {
	type ref struct {
		name string
		body string
	}
	var refs []ref
	named := make(map[string]string)
	for _, m := range refPattern.FindAllStringSubmatch(markup, -1) {
		r := ref{name: refName(m[1]), body: m[2]}
		if r.name != "" && strings.TrimSpace(r.body) != "" {
			if _, ok := named[r.name]; !ok {
				named[r.name] = r.body
			}
		}
		refs = append(refs, r)
	}

	for _, r := range refs {
		body := r.body
		if strings.TrimSpace(body) == "" {
			// reuse of a named ref counts as another occurrence of its URLs
			body = named[r.name]
			if body == "" {
				continue
			}
		} else {
			acc.references++
		}
		for _, raw := range urlPattern.FindAllString(body, -1) {
			acc.add(strings.TrimRight(raw, urlTrailers), 1)
		}
	}
}

func refName(attrs string) string {
	m := refNamePattern.FindStringSubmatch(attrs)
	if m == nil {
		return ""
	}
	for _, v := range m[1:] {
		if v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// extractHTML walks the rendered reference list. Each note's occurrence count
// is the number of footnote markers pointing at it.
func extractHTML(markup string, acc *citationAccumulator) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return
	}

	markers := make(map[string]int)
	doc.Find("sup.reference a[href^='#']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		markers[strings.TrimPrefix(href, "#")]++
	})

	doc.Find("ol.references > li").Each(func(_ int, note *goquery.Selection) {
		acc.references++
		occurrences := 1
		if id, ok := note.Attr("id"); ok && markers[id] > 0 {
			occurrences = markers[id]
		}
		note.Find("a.external").Each(func(_ int, link *goquery.Selection) {
			if href, ok := link.Attr("href"); ok {
				acc.add(href, occurrences)
			}
		})
	})
}

type citationAccumulator struct {
	byURL       map[string]int // index into citations
	citations   []models.Citation
	references  int
	total       int
	unparseable int
}

func newCitationAccumulator() *citationAccumulator {
	return &citationAccumulator{byURL: make(map[string]int)}
}

func (a *citationAccumulator) add(rawURL string, occurrences int) {
	a.total += occurrences
	if i, ok := a.byURL[rawURL]; ok {
		a.citations[i].Occurrences += occurrences
		return
	}
	c, err := models.NewCitation(rawURL)
	if err != nil {
		a.unparseable += occurrences
		return
	}
	c.Occurrences = occurrences
	a.byURL[rawURL] = len(a.citations)
	a.citations = append(a.citations, c)
}

func (a *citationAccumulator) result() models.CitationExtraction {
	citations := a.citations
	if citations == nil {
		citations = []models.Citation{}
	}
	return models.CitationExtraction{
		Citations:   citations,
		References:  a.references,
		Total:       a.total,
		Unparseable: a.unparseable,
	}
}

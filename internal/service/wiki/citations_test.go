package wiki

import (
	"reflect"
	"testing"

	models "wikidash/internal/domain/models/wiki"
)

func TestCitationExtractor_Wikitext(t *testing.T) {
	markup := `'''Go''' is a language.<ref>{{cite web |url=https://go.dev/doc/ |title=Docs}}</ref>
It was announced in 2009.<ref name="announce">[http://www.example.org:8080/blog/go Go announced].</ref>
Later reused.<ref name = announce />
Protocol relative.<ref>//cdn.example.net/file.pdf</ref>
A bad one.<ref>http://[::1/oops and https://%zz.invalid/</ref>
Plain text ref.<ref>Smith, J. (2010). Book.</ref>
<ref name="orphan"/>
== References ==
<references/>`

	got := NewCitationExtractor().Extract(markup, models.FormatWikitext)

	if got.References != 5 {
		t.Errorf("References = %d, want 5", got.References)
	}
	wantDomains := map[string]int{
		"go.dev":      1,
		"example.org": 2,
		"example.net": 1,
	}
	if len(got.Citations) != len(wantDomains) {
		t.Fatalf("got citations %+v", got.Citations)
	}
	for _, c := range got.Citations {
		if wantDomains[c.Domain()] != c.Occurrences {
			t.Errorf("%s (%s): occurrences %d, want %d", c.URL(), c.Domain(), c.Occurrences, wantDomains[c.Domain()])
		}
	}
	if got.Citations[1].URL() != "http://www.example.org:8080/blog/go" {
		t.Errorf("trailing punctuation not trimmed or order lost: %q", got.Citations[1].URL())
	}
	if got.Unparseable != 1 {
		t.Errorf("Unparseable = %d, want 1", got.Unparseable)
	}
	if got.Total != 5 {
		t.Errorf("Total = %d, want 5", got.Total)
	}
}

func TestCitationExtractor_HTML(t *testing.T) {
	markup := `<div class="mw-parser-output">
<p>Claim<sup class="reference"><a href="#cite_note-1">[1]</a></sup> and again<sup class="reference"><a href="#cite_note-1">[1]</a></sup>.</p>
<p>Other<sup class="reference"><a href="#cite_note-2">[2]</a></sup>.</p>
<ol class="references">
<li id="cite_note-1"><span class="reference-text"><a class="external text" href="https://www.nytimes.com/2020/story.html">Story</a></span></li>
<li id="cite_note-2"><span class="reference-text"><a class="external text" href="https://archive.org/a">A</a> <a class="external text" href="mailto:x@y.z">mail</a></span></li>
<li id="cite_note-3"><span class="reference-text">Offline book</span></li>
</ol>
<a class="external" href="https://not-a-citation.com">outside references</a>
</div>`

	got := NewCitationExtractor().Extract(markup, models.FormatHTML)

	if got.References != 3 {
		t.Errorf("References = %d, want 3", got.References)
	}
	// the mailto link is counted but unparseable
	if got.Total != 4 || got.Unparseable != 1 {
		t.Errorf("Total = %d Unparseable = %d, want 4 and 1", got.Total, got.Unparseable)
	}
	domains := CitationBreakdown(got)
	want := []models.DomainCount{{Domain: "nytimes.com", Count: 2}, {Domain: "archive.org", Count: 1}}
	if !reflect.DeepEqual(domains, want) {
		t.Errorf("breakdown = %+v, want %+v", domains, want)
	}
}

func TestCitationExtractor_NeverFails(t *testing.T) {
	for _, markup := range []string{"", "<ref>", "</ref><ref name=x/>", "<<<>>>", "<ol class=\"references\"><li>"} {
		for _, format := range []models.MarkupFormat{models.FormatWikitext, models.FormatHTML} {
			got := NewCitationExtractor().Extract(markup, format)
			if got.Citations == nil {
				t.Errorf("Extract(%q, %s) returned nil citations", markup, format)
			}
		}
	}
}

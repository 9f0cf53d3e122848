package wiki

import "time"

// Completeness marks whether a view rests on fully fetched upstream data.
type Completeness struct {
	Complete   bool     `json:"complete"`
	Incomplete []string `json:"incomplete,omitempty"` // facets that degraded or timed out
}

// CompleteResult returns a Completeness with no degraded facets
func CompleteResult() Completeness {
	return Completeness{Complete: true}
}

// IsComplete reports whether no facet degraded
func (c Completeness) IsComplete() bool {
	return c.Complete
}

// Degrade marks the result incomplete because of the named facet
func (c *Completeness) Degrade(facet string) {
	c.Complete = false
	for _, f := range c.Incomplete {
		if f == facet {
			return
		}
	}
	c.Incomplete = append(c.Incomplete, facet)
}

// TimelinePoint is the count for one calendar day
type TimelinePoint struct {
	Date  Date `json:"date"`
	Count int  `json:"count"`
}

// TimelineView is an ordered day->count series with no gaps
type TimelineView struct {
	Title    string          `json:"title"`
	Timezone string          `json:"timezone"`
	Points   []TimelinePoint `json:"points"`
	Total    int             `json:"total"`
	Completeness
}

// RankedEditor is one row of a contributor or reverter ranking
type RankedEditor struct {
	Identity    string    `json:"identity"`
	IsAnonymous bool      `json:"is_anonymous"`
	Count       int       `json:"count"`
	FirstEdit   time.Time `json:"first_edit"`
}

// RankingView is a ranked editor list
type RankingView struct {
	Title   string         `json:"title"`
	Limit   int            `json:"limit"`
	Editors []RankedEditor `json:"editors"`
	Completeness
}

// DomainCount is one row of the citation domain breakdown
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// CitationView is the citation domain breakdown
type CitationView struct {
	Title       string        `json:"title"`
	References  int           `json:"references"`
	Total       int           `json:"total"`
	Unparseable int           `json:"unparseable"`
	Domains     []DomainCount `json:"domains"`
	Completeness
}

// PageviewView is a daily view-count series
type PageviewView struct {
	Title        string           `json:"title"`
	Samples      []PageviewSample `json:"samples"`
	Unavailable  []DateRange      `json:"unavailable,omitempty"`
	TotalViews   int64            `json:"total_views"`
	ObservedDays int              `json:"observed_days"`
	MissingDays  int              `json:"missing_days"`
	GapPolicy    string           `json:"gap_policy"`
	Completeness
}

// CountryView maps anonymous editors to countries, unresolved entries included
type CountryView struct {
	Title      string         `json:"title"`
	Editors    CountryMap     `json:"editors"`
	ByCountry  map[string]int `json:"by_country"` // edit counts per country code
	Unresolved int            `json:"unresolved"`
	Completeness
}

// EditCountView breaks the revision count down by editor kind
type EditCountView struct {
	Title      string `json:"title"`
	Total      int    `json:"total"`
	Registered int    `json:"registered"`
	Anonymous  int    `json:"anonymous"`
	Hidden     int    `json:"hidden"`
	Reverts    int    `json:"reverts"`
	Editors    int    `json:"editors"` // distinct identities
	Completeness
}

// CoEditorPair counts direct handoffs between two editors, i.e. one editing
// immediately after the other
type CoEditorPair struct {
	Editor1  string  `json:"editor1"`
	Editor2  string  `json:"editor2"`
	Handoffs int     `json:"handoffs"`
	Strength float64 `json:"strength"` // handoffs relative to the strongest pair
}

// CoEditorView lists collaboration pairs among top editors
type CoEditorView struct {
	Title string         `json:"title"`
	Pairs []CoEditorPair `json:"pairs"`
	Completeness
}

// ArticleSummary is the intro of the article
type ArticleSummary struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"` // markdown
}

// ArticleMetadata describes the article's history bounds
type ArticleMetadata struct {
	CreatedAt *time.Time `json:"created_at"`
}

// ArticleView combines summary, metadata and recent pageviews
type ArticleView struct {
	Summary   *ArticleSummary  `json:"summary"`
	Metadata  *ArticleMetadata `json:"metadata"`
	Pageviews []PageviewSample `json:"pageviews"`
	Completeness
}

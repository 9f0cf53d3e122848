package wiki

import (
	models "wikidash/internal/domain/models/wiki"
)

// Response assembly: turns aggregator output into the per-request-kind views.
// None of these functions fetch or fail.

func assembleTimeline(title, timezone string, points []models.TimelinePoint) *models.TimelineView {
	total := 0
	for _, p := range points {
		total += p.Count
	}
	return &models.TimelineView{
		Title:        title,
		Timezone:     timezone,
		Points:       points,
		Total:        total,
		Completeness: models.CompleteResult(),
	}
}

func assembleRanking(title string, limit int, editors []models.RankedEditor) *models.RankingView {
	return &models.RankingView{
		Title:        title,
		Limit:        limit,
		Editors:      editors,
		Completeness: models.CompleteResult(),
	}
}

func assembleCitations(title string, extraction models.CitationExtraction) *models.CitationView {
	return &models.CitationView{
		Title:        title,
		References:   extraction.References,
		Total:        extraction.Total,
		Unparseable:  extraction.Unparseable,
		Domains:      CitationBreakdown(extraction),
		Completeness: models.CompleteResult(),
	}
}

// anonymousEdits returns each anonymous editor IP in order of first edit,
// with its edit count
func anonymousEdits(revisions []models.Revision) ([]string, map[string]int) {
	var ips []string
	counts := make(map[string]int)
	for _, r := range revisions {
		if !r.Editor.IsAnonymous || r.Editor.Hidden {
			continue
		}
		if counts[r.Editor.IP] == 0 {
			ips = append(ips, r.Editor.IP)
		}
		counts[r.Editor.IP]++
	}
	return ips, counts
}

// assembleCountries keeps unresolved editors in the map and counts edits,
// not editors, per country
func assembleCountries(title string, edits map[string]int, estimates models.CountryMap, complete bool) *models.CountryView {
	view := &models.CountryView{
		Title:        title,
		Editors:      estimates,
		ByCountry:    make(map[string]int),
		Completeness: models.CompleteResult(),
	}
	if view.Editors == nil {
		view.Editors = models.CountryMap{}
	}
	for ip, n := range edits {
		est, ok := estimates[ip]
		if !ok || !est.Resolved() {
			view.Unresolved++
			continue
		}
		view.ByCountry[*est.CountryCode] += n
	}
	if !complete {
		view.Degrade(sourceGeolocation)
	}
	return view
}

func assemblePageviews(title string, series *models.PageviewSeries, gaps string) *models.PageviewView {
	view := PageviewTrend(series, gaps)
	view.Title = title
	view.Completeness = models.CompleteResult()
	if !series.Complete {
		view.Degrade(sourcePageviews)
	}
	return &view
}

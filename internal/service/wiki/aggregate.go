package wiki

import (
	"cmp"
	"math"
	"slices"
	"time"

	models "wikidash/internal/domain/models/wiki"
	wikiSvc "wikidash/internal/domain/services/wiki"
)

// The aggregations below are pure. Every sort has a total order so identical
// input always yields identical output.

// EditTimeline counts revisions per calendar day in loc. Every day between
// the first and last revision is present, days without edits count 0.
func EditTimeline(revisions []models.Revision, loc *time.Location) []models.TimelinePoint {
	return timeline(revisions, loc, func(models.Revision) bool { return true })
}

// RevertTimeline counts reverts per day over the same day range as EditTimeline.
func RevertTimeline(revisions []models.Revision, detection models.RevertDetection, loc *time.Location) []models.TimelinePoint {
	return timeline(revisions, loc, func(r models.Revision) bool { return detection.Reverts(r.ID) })
}

func timeline(revisions []models.Revision, loc *time.Location, include func(models.Revision) bool) []models.TimelinePoint {
	points := []models.TimelinePoint{}
	if len(revisions) == 0 {
		return points
	}
	if loc == nil {
		loc = time.UTC
	}

	counts := make(map[string]int)
	first := models.NewDate(revisions[0].Timestamp.In(loc))
	last := first
	for _, r := range revisions {
		day := models.NewDate(r.Timestamp.In(loc))
		if day.Before(first.Time) {
			first = day
		}
		if day.After(last.Time) {
			last = day
		}
		if include(r) {
			counts[day.String()]++
		}
	}

	for day := first; !day.After(last.Time); day = day.AddDays(1) {
		points = append(points, models.TimelinePoint{Date: day, Count: counts[day.String()]})
	}
	return points
}

// TopContributors ranks editors by revision count. Ties go to the editor
// whose first edit is earlier, then to identity order. limit <= 0 keeps all.
func TopContributors(revisions []models.Revision, limit int) []models.RankedEditor {
	return rank(revisions, limit, func(models.Revision) bool { return true })
}

// TopReverters ranks editors by the number of reverts they made. Editors
// without reverts are absent.
func TopReverters(revisions []models.Revision, detection models.RevertDetection, limit int) []models.RankedEditor {
	return rank(revisions, limit, func(r models.Revision) bool { return detection.Reverts(r.ID) })
}

func rank(revisions []models.Revision, limit int, include func(models.Revision) bool) []models.RankedEditor {
	byKey := make(map[string]*models.RankedEditor)
	for _, r := range revisions {
		// suppressed users cannot be attributed to anyone
		if r.Editor.Hidden || !include(r) {
			continue
		}
		key := r.Editor.Key()
		e, ok := byKey[key]
		if !ok {
			e = &models.RankedEditor{Identity: key, IsAnonymous: r.Editor.IsAnonymous, FirstEdit: r.Timestamp}
			byKey[key] = e
		}
		e.Count++
		if r.Timestamp.Before(e.FirstEdit) {
			e.FirstEdit = r.Timestamp
		}
	}

	ranked := make([]models.RankedEditor, 0, len(byKey))
	for _, e := range byKey {
		ranked = append(ranked, *e)
	}
	slices.SortFunc(ranked, func(a, b models.RankedEditor) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := a.FirstEdit.Compare(b.FirstEdit); c != 0 {
			return c
		}
		return cmp.Compare(a.Identity, b.Identity)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// CitationBreakdown groups citation occurrences by domain, most cited first.
// The counts sum to Total - Unparseable of the extraction.
func CitationBreakdown(extraction models.CitationExtraction) []models.DomainCount {
	counts := make(map[string]int)
	for _, c := range extraction.Citations {
		counts[c.Domain()] += c.Occurrences
	}

	domains := make([]models.DomainCount, 0, len(counts))
	for domain, n := range counts {
		domains = append(domains, models.DomainCount{Domain: domain, Count: n})
	}
	slices.SortFunc(domains, func(a, b models.DomainCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Domain, b.Domain)
	})
	return domains
}

// EditCounts breaks the revision total down by editor kind
func EditCounts(revisions []models.Revision, detection models.RevertDetection) models.EditCountView {
	view := models.EditCountView{Total: len(revisions)}
	editors := make(map[string]struct{})
	for _, r := range revisions {
		switch {
		case r.Editor.Hidden:
			view.Hidden++
		case r.Editor.IsAnonymous:
			view.Anonymous++
		default:
			view.Registered++
		}
		if detection.Reverts(r.ID) {
			view.Reverts++
		}
		if !r.Editor.Hidden {
			editors[r.Editor.Key()] = struct{}{}
		}
	}
	view.Editors = len(editors)
	return view
}

// CoEditors counts handoffs between the top contributors: a handoff is one
// editor's revision directly following another's. Strength is relative to
// the pair with the most handoffs.
func CoEditors(revisions []models.Revision, limit int) []models.CoEditorPair {
	top := make(map[string]bool)
	for _, e := range TopContributors(revisions, limit) {
		top[e.Identity] = true
	}

	type pairKey struct{ a, b string }
	handoffs := make(map[pairKey]int)
	for i := 1; i < len(revisions); i++ {
		prev, cur := revisions[i-1].Editor, revisions[i].Editor
		if prev.Hidden || cur.Hidden {
			continue
		}
		a, b := prev.Key(), cur.Key()
		if a == b || !top[a] || !top[b] {
			continue
		}
		if b < a {
			a, b = b, a
		}
		handoffs[pairKey{a, b}]++
	}

	pairs := make([]models.CoEditorPair, 0, len(handoffs))
	strongest := 0
	for k, n := range handoffs {
		pairs = append(pairs, models.CoEditorPair{Editor1: k.a, Editor2: k.b, Handoffs: n})
		strongest = max(strongest, n)
	}
	for i := range pairs {
		pairs[i].Strength = float64(pairs[i].Handoffs) / float64(strongest)
	}
	slices.SortFunc(pairs, func(x, y models.CoEditorPair) int {
		if c := cmp.Compare(y.Handoffs, x.Handoffs); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Editor1, y.Editor1); c != 0 {
			return c
		}
		return cmp.Compare(x.Editor2, y.Editor2)
	})
	return pairs
}

// PageviewTrend summarises a series under a gap policy. With
// GapsInterpolate, runs of unobserved days between two observed days are
// filled linearly and marked Estimated; leading and trailing gaps stay empty.
// Totals only ever count observed days.
func PageviewTrend(series *models.PageviewSeries, gaps string) models.PageviewView {
	samples := slices.Clone(series.Samples)
	if gaps == wikiSvc.GapsInterpolate {
		interpolate(samples)
	} else {
		gaps = wikiSvc.GapsReport
	}

	view := models.PageviewView{
		Samples:     samples,
		Unavailable: series.Unavailable,
		GapPolicy:   gaps,
	}
	for _, s := range samples {
		if s.Observed {
			view.TotalViews += s.Views
			view.ObservedDays++
		} else {
			view.MissingDays++
		}
	}
	return view
}

func interpolate(samples []models.PageviewSample) {
	prev := -1
	for i, s := range samples {
		if !s.Observed {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			from, to := samples[prev].Views, s.Views
			span := float64(i - prev)
			for j := prev + 1; j < i; j++ {
				frac := float64(j-prev) / span
				samples[j].Views = from + int64(math.Round(float64(to-from)*frac))
				samples[j].Estimated = true
			}
		}
		prev = i
	}
}

package wiki

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	models "wikidash/internal/domain/models/wiki"
	"wikidash/internal/retry"
	"wikidash/internal/service/wiki/external"
)

var (
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	baseTime   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
		Multiplier:  1,
	}
}

// rev builds a revision made `hours` after baseTime
func rev(id int64, user, hash string, hours int) models.Revision {
	return models.Revision{
		ID:          id,
		ParentID:    id - 1,
		Timestamp:   baseTime.Add(time.Duration(hours) * time.Hour),
		Editor:      models.EditorFromUser(user, false),
		ContentHash: hash,
	}
}

// fakeRevisionSource serves a fixed newest-first history in pages
type fakeRevisionSource struct {
	mu        sync.Mutex
	pages     [][]external.RawRevision
	redirect  string // resolved title reported for every page
	failFirst int    // transient failures before serving
	err       error  // permanent error returned for every call
	sizes     map[int64]int
	calls     int
	requests  []external.RevisionPageRequest
}

func (f *fakeRevisionSource) RevisionPage(ctx context.Context, req external.RevisionPageRequest) (*external.RevisionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)

	if f.err != nil {
		return nil, f.err
	}
	if f.failFirst > 0 {
		f.failFirst--
		return nil, retry.Transient(&external.StatusError{StatusCode: 503})
	}

	idx := 0
	if req.Continue != nil {
		idx = int(req.Continue["page"][0] - '0')
	}
	revs := f.pages[idx]
	if req.Limit > 0 && req.Limit < len(revs) {
		revs = revs[:req.Limit]
	}
	page := &external.RevisionPage{Title: req.Title, Revisions: revs}
	if f.redirect != "" {
		page.Title = f.redirect
	}
	if idx+1 < len(f.pages) {
		page.Continue = map[string]string{"page": string(rune('0' + idx + 1)), "continue": "||"}
	}
	return page, nil
}

func (f *fakeRevisionSource) RevisionSizes(ctx context.Context, ids []int64) (map[int64]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]int)
	for _, id := range ids {
		if size, ok := f.sizes[id]; ok {
			out[id] = size
		}
	}
	return out, nil
}

func rawRev(id int64, user string, size int, hours int) external.RawRevision {
	return external.RawRevision{
		ID:        id,
		ParentID:  id - 1,
		Timestamp: baseTime.Add(time.Duration(hours) * time.Hour),
		User:      user,
		Size:      size,
		SHA1:      "h" + string(rune('a'+id%26)),
	}
}

// fakePageviewSource returns every day in a chunk except skipped ones, and
// fails chunks starting on a failing date
type fakePageviewSource struct {
	mu       sync.Mutex
	skip     map[string]bool
	failFrom map[string]bool
	calls    int
}

func (f *fakePageviewSource) Daily(ctx context.Context, title string, r models.DateRange) ([]external.DailyViews, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFrom[r.Start.String()] {
		return nil, retry.Transient(&external.StatusError{StatusCode: 500})
	}
	var out []external.DailyViews
	for d := r.Start; !d.After(r.End.Time); d = d.AddDays(1) {
		if f.skip[d.String()] {
			continue
		}
		out = append(out, external.DailyViews{Date: d, Views: int64(d.Day()) * 10})
	}
	return out, nil
}

// fakeGeoSource counts upstream calls per IP
type fakeGeoSource struct {
	mu        sync.Mutex
	countries map[string]string
	fail      map[string]bool
	delay     time.Duration
	calls     map[string]int
}

func newFakeGeoSource(countries map[string]string) *fakeGeoSource {
	return &fakeGeoSource{countries: countries, fail: map[string]bool{}, calls: map[string]int{}}
}

func (f *fakeGeoSource) Country(ctx context.Context, ip string) (string, bool, error) {
	f.mu.Lock()
	f.calls[ip]++
	fail := f.fail[ip]
	code, ok := f.countries[ip]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
	if fail {
		return "", false, retry.Transient(&external.StatusError{StatusCode: 502})
	}
	return code, ok, nil
}

func (f *fakeGeoSource) callCount(ip string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ip]
}

// fakeArticleSource serves content, summary and metadata
type fakeArticleSource struct {
	wikitext string
	html     string
	summary  *external.RawSummary
	created  time.Time
	err      error

	summaryDelay time.Duration
}

func (f *fakeArticleSource) Wikitext(ctx context.Context, title string) (string, string, error) {
	return title, f.wikitext, f.err
}

func (f *fakeArticleSource) ParsedHTML(ctx context.Context, title string) (string, string, error) {
	return title, f.html, f.err
}

func (f *fakeArticleSource) Summary(ctx context.Context, title string) (*external.RawSummary, error) {
	if f.summaryDelay > 0 {
		select {
		case <-time.After(f.summaryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func (f *fakeArticleSource) FirstRevisionTime(ctx context.Context, title string) (time.Time, error) {
	return f.created, f.err
}

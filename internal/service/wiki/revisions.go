package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"wikidash/internal/domain"
	models "wikidash/internal/domain/models/wiki"
	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/retry"
	"wikidash/internal/service/wiki/external"
)

// maxPageSize is the rvlimit the action API allows anonymous clients
const maxPageSize = 500

// RevisionSource is the paginated history API the fetcher reads from
type RevisionSource interface {
	RevisionPage(ctx context.Context, req external.RevisionPageRequest) (*external.RevisionPage, error)
	RevisionSizes(ctx context.Context, ids []int64) (map[int64]int, error)
}

type revisionFetcher struct {
	source RevisionSource
	policy retry.Policy
	now    func() time.Time
	logger *slog.Logger
}

// NewRevisionFetcher creates a fetcher that pages through the full history
func NewRevisionFetcher(source RevisionSource, policy retry.Policy, logger *slog.Logger) wikiSvc.RevisionFetcher {
	return &revisionFetcher{
		source: source,
		policy: policy,
		now:    time.Now,
		logger: logger,
	}
}

// Fetch pages newest-first until the bound is met or history ends, checks
// that ids strictly decrease across the stitched pages, and returns the
// sequence oldest-first with byte deltas filled in.
func (f *revisionFetcher) Fetch(ctx context.Context, q wikiSvc.RevisionQuery) ([]models.Revision, error) {
	title, err := NormalizeTitle(q.Title)
	if err != nil {
		return nil, err
	}

	var until time.Time
	if q.MaxAge > 0 {
		until = f.now().Add(-q.MaxAge)
	}

	var (
		raw      []external.RawRevision
		cont     map[string]string
		lastID   int64
		pageNum  int
		finished bool
	)
	for !finished {
		pageNum++
		req := external.RevisionPageRequest{Title: title, Until: until, Continue: cont}
		if q.MaxRevisions > 0 {
			if remaining := q.MaxRevisions - len(raw); remaining < maxPageSize {
				req.Limit = remaining
			}
		}

		page, err := f.fetchPage(ctx, req, pageNum)
		if err != nil {
			return nil, classify(sourceRevisions, "fetch page", title, err)
		}
		if page.Title != "" && page.Title != title {
			f.logger.Debug("title redirected", "from", title, "to", page.Title)
			title = page.Title
		}

		for _, rev := range page.Revisions {
			if lastID != 0 && rev.ID >= lastID {
				f.logger.Error("revision history out of order",
					"title", title,
					"page", pageNum,
					"previous_id", lastID,
					"revision_id", rev.ID,
				)
				return nil, domain.NewSourceInconsistency(sourceRevisions, "stitch pages",
					fmt.Errorf("revision %d follows %d on page %d", rev.ID, lastID, pageNum))
			}
			lastID = rev.ID

			if !until.IsZero() && rev.Timestamp.Before(until) {
				finished = true
				break
			}
			raw = append(raw, rev)
			if q.MaxRevisions > 0 && len(raw) >= q.MaxRevisions {
				finished = true
				break
			}
		}

		switch {
		case page.Continue == nil:
			finished = true
		case !finished && cont != nil && maps.Equal(cont, page.Continue):
			f.logger.Error("revision continuation did not advance", "title", title, "page", pageNum)
			return nil, domain.NewSourceInconsistency(sourceRevisions, "stitch pages",
				fmt.Errorf("continuation repeated on page %d", pageNum))
		}
		cont = page.Continue
	}

	slices.Reverse(raw)
	revisions := make([]models.Revision, len(raw))
	for i, r := range raw {
		revisions[i] = toRevision(r)
	}

	if err := f.fillByteDeltas(ctx, title, revisions); err != nil {
		return nil, err
	}

	f.logger.Debug("revisions fetched", "title", title, "count", len(revisions), "pages", pageNum)
	return revisions, nil
}

func (f *revisionFetcher) fetchPage(ctx context.Context, req external.RevisionPageRequest, pageNum int) (*external.RevisionPage, error) {
	policy := f.policy
	policy.Notify = func(attempt int, err error, next time.Duration) {
		f.logger.Warn("retrying revision page",
			"title", req.Title,
			"page", pageNum,
			"attempt", attempt,
			"next_in", next,
			"error", err,
		)
	}

	var page *external.RevisionPage
	err := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		page, err = f.source.RevisionPage(ctx, req)
		return err
	})
	return page, err
}

// fillByteDeltas sets ByteDelta = size - parent size. Parents inside the
// window are read from the sequence; the rest are looked up in one call.
func (f *revisionFetcher) fillByteDeltas(ctx context.Context, title string, revisions []models.Revision) error {
	sizes := make(map[int64]int, len(revisions))
	for _, r := range revisions {
		sizes[r.ID] = r.Size
	}

	var missing []int64
	for _, r := range revisions {
		if _, ok := sizes[r.ParentID]; r.ParentID != 0 && !ok {
			missing = append(missing, r.ParentID)
		}
	}

	if len(missing) > 0 {
		var parents map[int64]int
		err := f.policy.Do(ctx, func(ctx context.Context) error {
			var err error
			parents, err = f.source.RevisionSizes(ctx, missing)
			return err
		})
		if err != nil {
			return classify(sourceRevisions, "fetch parent sizes", title, err)
		}
		for id, size := range parents {
			sizes[id] = size
		}
	}

	for i := range revisions {
		r := &revisions[i]
		parentSize, ok := sizes[r.ParentID]
		if r.ParentID == 0 || !ok {
			// first revision, or the parent was deleted
			r.ByteDelta = r.Size
			continue
		}
		r.ByteDelta = r.Size - parentSize
	}
	return nil
}

func toRevision(r external.RawRevision) models.Revision {
	editor := models.EditorFromUser(r.User, r.Anon)
	if r.UserHidden {
		editor = models.Editor{Hidden: true}
	}
	return models.Revision{
		ID:          r.ID,
		ParentID:    r.ParentID,
		Timestamp:   r.Timestamp.UTC(),
		Editor:      editor,
		Size:        r.Size,
		Comment:     r.Comment,
		ContentHash: r.SHA1,
	}
}

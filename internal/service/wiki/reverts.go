package wiki

import (
	"fmt"
	"time"

	models "wikidash/internal/domain/models/wiki"
)

// RevertStrategy decides which earlier occurrence of a repeated content hash
// a revert is attributed to.
type RevertStrategy string

const (
	// StrategyFirstOccurrence attributes every repeat to the first revision
	// that produced the content.
	StrategyFirstOccurrence RevertStrategy = "first"
	// StrategyMostRecent attributes a repeat to the latest revision that
	// produced the content, reverts included.
	StrategyMostRecent RevertStrategy = "recent"
)

// ParseRevertStrategy accepts "first" or "recent"; empty means first.
func ParseRevertStrategy(s string) (RevertStrategy, error) {
	switch RevertStrategy(s) {
	case "", StrategyFirstOccurrence:
		return StrategyFirstOccurrence, nil
	case StrategyMostRecent:
		return StrategyMostRecent, nil
	default:
		return "", fmt.Errorf("unknown revert strategy %q", s)
	}
}

// RevertDetector labels reverts by exact content-hash match against earlier
// revisions. It is pure and makes no external calls.
type RevertDetector struct {
	Strategy RevertStrategy
	// Radius bounds the lookback in revisions. 0 means unbounded. An
	// occurrence further back than Radius is forgotten and the repeat
	// becomes the new tracked occurrence.
	Radius int
}

type occurrence struct {
	index     int
	id        int64
	timestamp time.Time
}

// Detect processes revisions oldest-first and returns every revert edge.
//
// Self-reverts (content identical to the parent's) are no-op edits and are
// never flagged. Revisions with a suppressed hash are skipped. A target is
// always strictly earlier in time than its reverting revision.
func (d RevertDetector) Detect(revisions []models.Revision) models.RevertDetection {
	result := models.RevertDetection{
		Edges:    []models.RevertEdge{},
		IsRevert: make(map[int64]bool),
		Targets:  make(map[int64]int64),
	}

	seen := make(map[string]occurrence)
	hashByID := make(map[int64]string, len(revisions))

	for i, rev := range revisions {
		hash := rev.ContentHash
		hashByID[rev.ID] = hash
		if hash == "" {
			continue
		}

		if parentHash, ok := hashByID[rev.ParentID]; ok && rev.ParentID != 0 && parentHash == hash {
			continue
		}

		current := occurrence{index: i, id: rev.ID, timestamp: rev.Timestamp}
		prev, ok := seen[hash]
		if ok && d.Radius > 0 && i-prev.index > d.Radius {
			ok = false
		}
		if !ok {
			seen[hash] = current
			continue
		}
		if !prev.timestamp.Before(rev.Timestamp) {
			// same-second duplicates cannot be ordered, so they are not reverts
			continue
		}

		result.Edges = append(result.Edges, models.RevertEdge{
			RevertingID:   rev.ID,
			RevertedToID:  prev.id,
			RevertedCount: i - prev.index - 1,
		})
		result.IsRevert[rev.ID] = true
		result.Targets[rev.ID] = prev.id

		if d.Strategy == StrategyMostRecent {
			seen[hash] = current
		}
	}
	return result
}

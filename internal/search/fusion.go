package search

import (
	"sort"

	"github.com/storyseek/storyseek/internal/model"
	"github.com/storyseek/storyseek/internal/store"
)

// rrfK is the reciprocal rank fusion constant. It damps the gap
// between adjacent ranks so a document ranked well by both lists
// beats a document ranked first by only one.
const rrfK = 60

// rrfScale makes fused scores readable; without it the largest
// possible contribution per list is 1/61.
const rrfScale = 100

// fusedHit accumulates a story's fusion score across ranked lists.
type fusedHit struct {
	story *model.Story
	score float64
}

// FuseRankings combines ranked hit lists with reciprocal rank fusion.
// Each list contributes rrfScale/(rrfK + rank + 1) for the documents
// it contains; documents absent from a list simply receive nothing
// from it. Ties keep first-seen order across the lists in the order
// given, so callers pass the lexical list first. The result is
// truncated to limit.
func FuseRankings(limit int, rankings ...[]*store.Hit) []*store.Hit {
	if limit <= 0 {
		return []*store.Hit{}
	}

	scores := make(map[int64]*fusedHit)
	order := make([]int64, 0)

	for _, ranking := range rankings {
		for rank, hit := range ranking {
			if hit == nil || hit.Story == nil {
				continue
			}
			id := hit.Story.ID
			entry, ok := scores[id]
			if !ok {
				entry = &fusedHit{story: hit.Story}
				scores[id] = entry
				order = append(order, id)
			}
			entry.score += rrfScale / float64(rrfK+rank+1)
		}
	}

	fused := make([]*store.Hit, 0, len(order))
	for _, id := range order {
		entry := scores[id]
		fused = append(fused, &store.Hit{Story: entry.story, Score: entry.score})
	}

	// Stable sort preserves first-seen order among equal scores.
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}

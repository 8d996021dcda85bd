package retrieval

import (
	"sort"

	"github.com/kailas-cloud/factlens/internal/domain/search/hit"
)

// DefaultRRFK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const DefaultRRFK = 60

// Fuse merges ranked lists via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + r_i(d)) over every list i where d appears at 0-based rank r_i.
// The first hit seen for an id keeps its payload; later lists only add score.
// Ties keep first-seen order, so the output is deterministic for a fixed list order.
// The result is truncated to limit after fusion; limit <= 0 keeps everything.
func Fuse(k, limit int, lists ...[]hit.Scored) []hit.Fused {
	if k <= 0 {
		k = DefaultRRFK
	}

	index := make(map[string]int)
	var fused []hit.Fused

	for _, list := range lists {
		for rank, h := range list {
			s := 1.0 / float64(rank+k)
			if i, ok := index[h.ID]; ok {
				fused[i].FusedScore += s
				continue
			}
			index[h.ID] = len(fused)
			fused = append(fused, hit.Fused{ID: h.ID, FusedScore: s, Hit: h})
		}
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].FusedScore > fused[j].FusedScore
	})

	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}

// flatten exposes fused rows as scored hits carrying the fused score.
func flatten(fused []hit.Fused) []hit.Scored {
	out := make([]hit.Scored, len(fused))
	for i, f := range fused {
		out[i] = hit.Scored{ID: f.ID, Score: f.FusedScore, Payload: f.Hit.Payload}
	}
	return out
}

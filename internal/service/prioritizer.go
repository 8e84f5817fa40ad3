package service

import (
	"sort"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

// Prioritize returns a copy of recs ordered by priority tier (critical first)
// and then by expected improvement, largest first. Ties keep their input
// order.
func Prioritize(recs []model.Recommendation) []model.Recommendation {
	out := make([]model.Recommendation, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].ExpectedImpact.Improvement > out[j].ExpectedImpact.Improvement
	})
	return out
}

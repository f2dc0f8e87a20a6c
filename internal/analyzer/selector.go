package analyzer

import (
	"sort"

	"nexlyon/server/internal/models"
)

// MaxCandidates caps the number of narrative calls per analysis run.
const MaxCandidates = 5

// SelectCandidates returns the indices of the undervalued analyses, highest
// score first, at most limit of them. Equal scores keep their input order.
// A limit outside 1..MaxCandidates is treated as MaxCandidates.
func SelectCandidates(analyses []models.PropertyAnalysis, limit int) []int {
	if limit <= 0 || limit > MaxCandidates {
		limit = MaxCandidates
	}

	var indices []int
	for i := range analyses {
		if analyses[i].Metrics.IsUndervalued {
			indices = append(indices, i)
		}
	}

	sort.SliceStable(indices, func(a, b int) bool {
		return analyses[indices[a]].Metrics.Score > analyses[indices[b]].Metrics.Score
	})

	if len(indices) > limit {
		indices = indices[:limit]
	}
	return indices
}

// RankByScore returns a copy of analyses sorted by descending score.
func RankByScore(analyses []models.PropertyAnalysis) []models.PropertyAnalysis {
	ranked := make([]models.PropertyAnalysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Metrics.Score > ranked[j].Metrics.Score
	})
	return ranked
}

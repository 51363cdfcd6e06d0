package recommend

import "NewsRecommender/internal/domain"

// minPerCategory is the floor of the per-category cap.
const minPerCategory = 3

// maxPerCategory caps one category at 20% of the requested size, never below 3.
func maxPerCategory(limit int) int {
	return max(minPerCategory, limit/5)
}

// diversify walks the score-sorted list accepting items while their category
// is under the cap, then backfills from the remainder in score order when the
// cap left the output short of limit.
func diversify(sorted []domain.ScoredArticle, limit int) []domain.ScoredArticle {
	if len(sorted) == 0 || limit <= 0 {
		return []domain.ScoredArticle{}
	}

	capPerCategory := maxPerCategory(limit)
	out := make([]domain.ScoredArticle, 0, min(limit, len(sorted)))
	included := make([]bool, len(sorted))
	perCategory := map[string]int{}

	for i, item := range sorted {
		category := item.CategoryOrDefault()
		if perCategory[category] >= capPerCategory {
			continue
		}
		out = append(out, item)
		included[i] = true
		perCategory[category]++
		if len(out) >= limit {
			return out
		}
	}

	for i, item := range sorted {
		if len(out) >= limit {
			break
		}
		if included[i] {
			continue
		}
		item.Backfilled = true
		out = append(out, item)
	}

	return out
}

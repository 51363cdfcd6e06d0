package recommend

import (
	"sort"
	"strings"

	"NewsRecommender/internal/domain"
)

const (
	reasonSeparator = " • "
	reasonFallback  = "Recommended for you"
	reasonLatest    = "Latest news"
)

// buildReason lists the signals that fired, in a fixed order.
func buildReason(article domain.Article, b domain.ScoreBreakdown) string {
	var reasons []string

	if b.Category > 0 {
		reasons = append(reasons, "Matches your interest in "+article.CategoryOrDefault())
	}
	if b.ContentSimilarity > 15 {
		reasons = append(reasons, "Similar to articles you've read")
	}
	if b.Recency >= 15 {
		reasons = append(reasons, "Breaking news")
	}
	if b.Popularity > 5 {
		reasons = append(reasons, "Trending in your interests")
	}

	if len(reasons) == 0 {
		return reasonFallback
	}
	return strings.Join(reasons, reasonSeparator)
}

// sortByScore orders candidates by total score, descending. Equal scores keep
// their pool order.
func sortByScore(scored []domain.ScoredArticle) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}

package recommend

import (
	"errors"
	"fmt"
	"sort"

	"NewsRecommender/internal/domain"
)

var errMissingURL = errors.New("article without url")

// filterUnread drops every pool article whose URL appears in the history.
func filterUnread(pool []domain.Article, history []domain.ReadingEntry) []domain.Article {
	read := make(map[string]struct{}, len(history))
	for _, entry := range history {
		read[entry.ArticleURL] = struct{}{}
	}

	candidates := make([]domain.Article, 0, len(pool))
	for _, article := range pool {
		if _, ok := read[article.URL]; ok {
			continue
		}
		candidates = append(candidates, article)
	}
	return candidates
}

// latest returns the limit newest articles. Articles without a timestamp sort last.
func latest(pool []domain.Article, limit int) []domain.ScoredArticle {
	sorted := make([]domain.Article, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]domain.ScoredArticle, 0, len(sorted))
	for _, article := range sorted {
		out = append(out, domain.ScoredArticle{Article: article, Reason: reasonLatest})
	}
	return out
}

// categoryFallback keeps pool order and returns preferred-category articles only.
func categoryFallback(pool []domain.Article, prefs *domain.UserPreferences, limit int) []domain.ScoredArticle {
	preferred := prefs.CategorySet()
	out := make([]domain.ScoredArticle, 0, min(limit, len(pool)))
	for _, article := range pool {
		if len(out) >= limit {
			break
		}
		if _, ok := preferred[article.CategoryOrDefault()]; ok {
			out = append(out, domain.ScoredArticle{Article: article, Reason: reasonFallback})
		}
	}
	return out
}

func validatePool(pool []domain.Article) error {
	for i, article := range pool {
		if article.URL == "" {
			return fmt.Errorf("pool index %d (%q): %w", i, article.Title, errMissingURL)
		}
	}
	return nil
}

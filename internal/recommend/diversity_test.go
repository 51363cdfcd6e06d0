package recommend

import (
	"fmt"
	"testing"

	"NewsRecommender/internal/domain"
)

func scored(category string, score float64, n int) []domain.ScoredArticle {
	out := make([]domain.ScoredArticle, n)
	for i := range out {
		out[i] = domain.ScoredArticle{
			Article: domain.Article{URL: fmt.Sprintf("%s-%d", category, i), Category: category},
			Score:   score,
		}
	}
	return out
}

func TestMaxPerCategory(t *testing.T) {
	t.Parallel()

	for limit, want := range map[int]int{1: 3, 10: 3, 15: 3, 20: 4, 50: 10, 100: 20} {
		if got := maxPerCategory(limit); got != want {
			t.Fatalf("limit %d: expected %d, got %d", limit, want, got)
		}
	}
}

func TestDiversifyPromotesOtherCategories(t *testing.T) {
	t.Parallel()

	sorted := append(scored("technology", 60, 6), scored("sports", 20, 2)...)
	out := diversify(sorted, 6)

	want := []string{"technology-0", "technology-1", "technology-2", "sports-0", "sports-1", "technology-3"}
	if len(out) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(out))
	}
	for i, item := range out {
		if item.URL != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], item.URL)
		}
		if item.Backfilled != (i == 5) {
			t.Fatalf("position %d: unexpected backfilled=%v", i, item.Backfilled)
		}
	}
}

func TestDiversifyShortPool(t *testing.T) {
	t.Parallel()

	out := diversify(scored("travel", 5, 2), 10)
	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	for _, item := range out {
		if item.Backfilled {
			t.Fatalf("no backfill expected under the cap: %s", item.URL)
		}
	}
}

func TestDiversifyEmpty(t *testing.T) {
	t.Parallel()

	if out := diversify(nil, 10); out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", out)
	}
}

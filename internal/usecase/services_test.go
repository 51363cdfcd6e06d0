package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"NewsRecommender/internal/domain"
)

func TestPreferenceUpdateNormalizesAndInvalidates(t *testing.T) {
	t.Parallel()

	repo := newMemPreferences()
	cache := newMemCache()
	svc := NewPreferenceService(repo, cache, nil)

	got, err := svc.Update(context.Background(), "alice", []string{" Technology", "sports", "technology"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !slices.Equal(got, []string{"technology", "sports"}) {
		t.Fatalf("unexpected categories: %v", got)
	}
	stored, _ := svc.Categories(context.Background(), "alice")
	if !slices.Equal(stored, got) {
		t.Fatalf("stored %v, returned %v", stored, got)
	}
	if !slices.Equal(cache.invalidated, []string{"alice"}) {
		t.Fatalf("cache not invalidated: %v", cache.invalidated)
	}
}

func TestPreferenceUpdateRejectsUnknownCategory(t *testing.T) {
	t.Parallel()

	svc := NewPreferenceService(newMemPreferences(), nil, nil)
	if _, err := svc.Update(context.Background(), "alice", []string{"gossip"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPreferenceCategoriesDefaultsToEmpty(t *testing.T) {
	t.Parallel()

	got, err := NewPreferenceService(newMemPreferences(), nil, nil).Categories(context.Background(), "nobody")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %v (%v)", got, err)
	}
}

func TestHistoryTrack(t *testing.T) {
	t.Parallel()

	repo := &memHistory{}
	cache := newMemCache()
	svc := NewHistoryService(repo, cache, nil)
	svc.now = func() time.Time { return fixedNow }

	entry, err := svc.Track(context.Background(), domain.ReadingEntry{
		Username:   "alice",
		ArticleURL: " https://x/a ",
		Category:   "Technology",
	})
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if entry.InteractionType != domain.InteractionClick || entry.ArticleURL != "https://x/a" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if !entry.Timestamp.Equal(fixedNow) || entry.Category != "technology" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if len(repo.entries) != 1 || len(cache.invalidated) != 1 {
		t.Fatalf("expected append and invalidation, got %d/%d", len(repo.entries), len(cache.invalidated))
	}
}

func TestHistoryTrackValidation(t *testing.T) {
	t.Parallel()

	svc := NewHistoryService(&memHistory{}, nil, nil)
	cases := map[string]domain.ReadingEntry{
		"missing url":   {Username: "alice"},
		"bad type":      {Username: "alice", ArticleURL: "u", InteractionType: "like"},
		"negative time": {Username: "alice", ArticleURL: "u", ReadingTime: -1},
	}
	for name, entry := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := svc.Track(context.Background(), entry); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestHistoryRecentDefaultLimit(t *testing.T) {
	t.Parallel()

	repo := &memHistory{}
	for i := 0; i < 60; i++ {
		repo.entries = append(repo.entries, domain.ReadingEntry{Username: "alice", ArticleURL: "u"})
	}
	got, err := NewHistoryService(repo, nil, nil).Recent(context.Background(), "alice", 0)
	if err != nil || len(got) != defaultHistoryLimit {
		t.Fatalf("expected %d entries, got %d (%v)", defaultHistoryLimit, len(got), err)
	}
}

func TestArticleServiceFiltered(t *testing.T) {
	t.Parallel()

	articles := &memArticles{items: []domain.Article{
		newsItem("old", "technology", 2*time.Hour),
		newsItem("sport", "sports", time.Hour),
		newsItem("new", "technology", time.Minute),
	}}
	prefs := newMemPreferences(
		techPrefs("alice"),
		domain.UserPreferences{Username: "bob", Categories: []string{}},
	)
	svc := NewArticleService(articles, prefs)

	got, err := svc.Filtered(context.Background(), "alice")
	if err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if len(got.Articles) != 2 || got.Articles[0].URL != "new" || got.Message != "" {
		t.Fatalf("unexpected listing: %+v", got)
	}

	got, _ = svc.Filtered(context.Background(), "bob")
	if got.Message != MessageNoCategories || len(got.Articles) != 0 {
		t.Fatalf("unexpected listing for empty preferences: %+v", got)
	}

	got, _ = svc.Filtered(context.Background(), "carol")
	if got.Message != MessageNoPreferencesSet {
		t.Fatalf("unexpected listing without preferences: %+v", got)
	}

	all, err := svc.All(context.Background())
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all articles, got %d (%v)", len(all), err)
	}
}

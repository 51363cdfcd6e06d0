package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/ports"
)

var errBoom = errors.New("boom")

type memArticles struct {
	mu       sync.Mutex
	items    []domain.Article
	allErr   error
	catsErr  error
	saveErr  map[string]error
	catCalls int
}

var _ ports.ArticleRepository = (*memArticles)(nil)

func (m *memArticles) ExistingURLs(_ context.Context, urls []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool)
	for _, a := range m.items {
		if slices.Contains(urls, a.URL) {
			out[a.URL] = true
		}
	}
	return out, nil
}

func (m *memArticles) SaveArticle(_ context.Context, article domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveErr[article.URL]; err != nil {
		return err
	}
	m.items = append(m.items, article)
	return nil
}

func (m *memArticles) All(context.Context) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allErr != nil {
		return nil, m.allErr
	}
	return slices.Clone(m.items), nil
}

func (m *memArticles) ByCategories(_ context.Context, categories []string, limit int) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catCalls++
	if m.catsErr != nil {
		return nil, m.catsErr
	}
	var out []domain.Article
	for _, a := range m.items {
		if slices.Contains(categories, a.CategoryOrDefault()) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memArticles) byURL(url string) (domain.Article, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.URL == url {
			return a, true
		}
	}
	return domain.Article{}, false
}

type memPreferences struct {
	items map[string]domain.UserPreferences
	err   error
}

var _ ports.PreferenceRepository = (*memPreferences)(nil)

func newMemPreferences(entries ...domain.UserPreferences) *memPreferences {
	m := &memPreferences{items: map[string]domain.UserPreferences{}}
	for _, p := range entries {
		m.items[p.Username] = p
	}
	return m
}

func (m *memPreferences) Get(_ context.Context, username string) (*domain.UserPreferences, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.items[username]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memPreferences) Upsert(_ context.Context, prefs domain.UserPreferences) error {
	if m.err != nil {
		return m.err
	}
	m.items[prefs.Username] = prefs
	return nil
}

type memHistory struct {
	entries []domain.ReadingEntry
	err     error
}

var _ ports.HistoryRepository = (*memHistory)(nil)

func (m *memHistory) Append(_ context.Context, entry domain.ReadingEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memHistory) Recent(_ context.Context, username string, limit int) ([]domain.ReadingEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ReadingEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].Username == username {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

type memCache struct {
	items       map[string][]domain.ScoredArticle
	sets        int
	invalidated []string
	cleared     int
	getErr      error
}

var _ ports.RecommendationCache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{items: map[string][]domain.ScoredArticle{}}
}

func cacheKey(username string, limit int) string {
	return fmt.Sprintf("%s:%d", username, limit)
}

func (m *memCache) Get(_ context.Context, username string, limit int) ([]domain.ScoredArticle, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	items, ok := m.items[cacheKey(username, limit)]
	return items, ok, nil
}

func (m *memCache) Set(_ context.Context, username string, limit int, items []domain.ScoredArticle) error {
	m.sets++
	m.items[cacheKey(username, limit)] = items
	return nil
}

func (m *memCache) InvalidateAll(context.Context) error {
	m.cleared++
	clear(m.items)
	return nil
}

func (m *memCache) InvalidateUser(_ context.Context, username string) error {
	m.invalidated = append(m.invalidated, username)
	return nil
}

type stubSource struct {
	articles []domain.Article
	err      error
}

func (s stubSource) FetchLatest(context.Context) ([]domain.Article, error) {
	return s.articles, s.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, digest)
	return nil
}

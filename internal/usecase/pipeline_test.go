package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"NewsRecommender/internal/domain"
)

func TestPipelineStoresOnlyNewArticles(t *testing.T) {
	t.Parallel()

	repo := &memArticles{items: []domain.Article{newsItem("https://x/known", "technology", time.Hour)}}
	source := stubSource{articles: []domain.Article{
		newsItem("https://x/known", "technology", time.Hour),
		newsItem("https://x/new", "sports", time.Hour),
		newsItem("https://x/new", "sports", time.Hour),
		newsItem("https://x/plain", "", time.Hour),
	}}
	notifier := &recordingNotifier{}

	p := NewPipeline(PipelineDeps{Source: source, Repository: repo, Notifier: notifier, Workers: 2})
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Fetched != 4 || report.Stored != 2 || report.Duplicates != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.ByCategory["sports"] != 1 || report.ByCategory[domain.CategoryGeneral] != 1 {
		t.Fatalf("unexpected categories: %+v", report.ByCategory)
	}
	if got, ok := repo.byURL("https://x/plain"); !ok || got.Category != domain.CategoryGeneral {
		t.Fatalf("article without category must be stored as general: %+v", got)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "stored: 2") {
		t.Fatalf("unexpected notifications: %q", notifier.messages)
	}
}

func TestPipelineCountsSaveFailures(t *testing.T) {
	t.Parallel()

	repo := &memArticles{saveErr: map[string]error{"https://x/bad": errBoom}}
	source := stubSource{articles: []domain.Article{
		newsItem("https://x/bad", "technology", time.Hour),
		newsItem("https://x/good", "technology", time.Hour),
	}}

	report, err := NewPipeline(PipelineDeps{Source: source, Repository: repo}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Stored != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestPipelineSkipsNotificationWithoutNewArticles(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	p := NewPipeline(PipelineDeps{Source: stubSource{}, Repository: &memArticles{}, Notifier: notifier})
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("no digest expected, got %q", notifier.messages)
	}
}

func TestPipelineFetchError(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{Source: stubSource{err: errBoom}, Repository: &memArticles{}})
	if _, err := p.Run(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestPipelineEnrichesBeforeSaving(t *testing.T) {
	t.Parallel()

	repo := &memArticles{}
	enricher := NewEnricher(EnricherDeps{
		Extractor:  stubExtractor{content: longText},
		Classifier: stubClassifier{label: "science", confidence: 0.9},
	})
	source := stubSource{articles: []domain.Article{newsItem("https://x/a", "", time.Hour)}}

	if _, err := NewPipeline(PipelineDeps{Source: source, Repository: repo, Enricher: enricher}).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, ok := repo.byURL("https://x/a")
	if !ok || got.Content != longText || got.Category != "science" {
		t.Fatalf("unexpected stored article: %+v", got)
	}
}

func TestBuildReportMessageSortsCategories(t *testing.T) {
	t.Parallel()

	msg := buildReportMessage(IngestReport{
		Fetched:    3,
		Stored:     3,
		ByCategory: map[string]int{"technology": 2, "business": 1},
		StartedAt:  fixedNow,
	})
	if strings.Index(msg, "business") > strings.Index(msg, "technology") {
		t.Fatalf("categories must be sorted: %q", msg)
	}
	if !strings.Contains(msg, "2025-11-08 12:00 UTC") {
		t.Fatalf("missing timestamp: %q", msg)
	}
}

func TestPipelineClearsCacheAfterStoring(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	_ = cache.Set(context.Background(), "alice", 10, nil)
	repo := &memArticles{}
	source := stubSource{articles: []domain.Article{newsItem("https://x/a", "technology", time.Hour)}}
	p := NewPipeline(PipelineDeps{Source: source, Repository: repo, Cache: cache})

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if cache.cleared != 1 || len(cache.items) != 0 {
		t.Fatalf("expected cleared cache, got %d clears and %d items", cache.cleared, len(cache.items))
	}

	// a second run only finds duplicates and leaves the cache alone
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if cache.cleared != 1 {
		t.Fatalf("cache cleared without new articles: %d", cache.cleared)
	}
}

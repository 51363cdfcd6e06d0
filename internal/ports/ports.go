package ports

import (
	"context"
	"time"

	"NewsRecommender/internal/domain"
)

// ArticleSource pulls fresh articles from upstream providers.
type ArticleSource interface {
	FetchLatest(ctx context.Context) ([]domain.Article, error)
}

// ArticleRepository persists ingested articles. URL is the unique key.
type ArticleRepository interface {
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	SaveArticle(ctx context.Context, article domain.Article) error
	All(ctx context.Context) ([]domain.Article, error)
	// ByCategories returns articles of the given categories, newest first.
	// limit <= 0 means no limit.
	ByCategories(ctx context.Context, categories []string, limit int) ([]domain.Article, error)
}

// PreferenceRepository stores user category preferences.
type PreferenceRepository interface {
	// Get returns nil without error when the user has no preferences yet.
	Get(ctx context.Context, username string) (*domain.UserPreferences, error)
	Upsert(ctx context.Context, prefs domain.UserPreferences) error
}

// HistoryRepository is the append-only reading log.
type HistoryRepository interface {
	Append(ctx context.Context, entry domain.ReadingEntry) error
	// Recent returns at most limit entries, newest first.
	Recent(ctx context.Context, username string, limit int) ([]domain.ReadingEntry, error)
}

// ContentExtractor fetches the readable body of an article page. It never
// fails: unreachable pages resolve to the provided fallback or the title.
type ContentExtractor interface {
	Extract(ctx context.Context, url, fallback, title string) string
}

// Summarizer generates short summaries of article text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// SentimentAnalyzer labels the tone of a text.
type SentimentAnalyzer interface {
	Sentiment(ctx context.Context, text string) (domain.Sentiment, error)
}

// EntityExtractor lists named entities mentioned in a text.
type EntityExtractor interface {
	Entities(ctx context.Context, text string) ([]string, error)
}

// CategoryClassifier scores a text against candidate labels and returns
// the best label with its confidence.
type CategoryClassifier interface {
	Classify(ctx context.Context, text string, labels []string) (string, float64, error)
}

// RecommendationCache keeps rendered recommendation lists per user and limit.
type RecommendationCache interface {
	Get(ctx context.Context, username string, limit int) ([]domain.ScoredArticle, bool, error)
	Set(ctx context.Context, username string, limit int, items []domain.ScoredArticle) error
	InvalidateUser(ctx context.Context, username string) error
	// InvalidateAll drops the lists of every user.
	InvalidateAll(ctx context.Context) error
}

// Notifier streams ingestion reports to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

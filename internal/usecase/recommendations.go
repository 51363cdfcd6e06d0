package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/metrics"
	"NewsRecommender/internal/ports"
	"NewsRecommender/internal/recommend"
)

// Messages returned alongside empty or fallback recommendation lists.
const (
	MessageNoPreferences = "Please set your category preferences first to get personalized recommendations."
	MessageNoArticles    = "No articles available. Please wait while we fetch the latest news."
	MessageFallback      = "Using fallback recommendations (category-based)"
	MessageAllRead       = "You have read everything in your feed. Here is the latest news."

	engineName = "ML-powered (TF-IDF + Collaborative Filtering)"
)

// RecommendationSettings bounds request sizes and history windows.
type RecommendationSettings struct {
	DefaultLimit  int
	MaxLimit      int
	HistoryWindow int
}

// RecommendationDeps wires repositories, the ranking engine and the cache.
type RecommendationDeps struct {
	Articles    ports.ArticleRepository
	Preferences ports.PreferenceRepository
	History     ports.HistoryRepository
	Cache       ports.RecommendationCache
	Engine      *recommend.Engine
	Settings    RecommendationSettings
	Logger      *slog.Logger
	// Now is overridable in tests.
	Now func() time.Time
}

// RecommendationService assembles the ranking snapshot for one user.
type RecommendationService struct {
	articles    ports.ArticleRepository
	preferences ports.PreferenceRepository
	history     ports.HistoryRepository
	cache       ports.RecommendationCache
	engine      *recommend.Engine
	settings    RecommendationSettings
	logger      *slog.Logger
	now         func() time.Time
}

// Recommendations is the personalized feed returned to the API.
type Recommendations struct {
	Articles            []domain.ScoredArticle
	Categories          []string
	ReadingHistoryCount int
	Engine              string
	Mode                recommend.Mode
	Message             string
	Cached              bool
}

// Degraded reports whether a fallback produced the list.
func (r Recommendations) Degraded() bool {
	return r.Mode == recommend.ModeDegraded
}

// NewRecommendationService constructs the service.
func NewRecommendationService(deps RecommendationDeps) *RecommendationService {
	s := deps.Settings
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 50
	}
	if s.MaxLimit < s.DefaultLimit {
		s.MaxLimit = max(100, s.DefaultLimit)
	}
	if s.HistoryWindow <= 0 {
		s.HistoryWindow = 100
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	engine := deps.Engine
	if engine == nil {
		engine = recommend.NewEngine(recommend.DefaultConfig(), logger)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &RecommendationService{
		articles:    deps.Articles,
		preferences: deps.Preferences,
		history:     deps.History,
		cache:       deps.Cache,
		engine:      engine,
		settings:    s,
		logger:      logger,
		now:         now,
	}
}

// NormalizeLimit maps non-positive limits to the default and caps the rest.
func (s *RecommendationService) NormalizeLimit(limit int) int {
	if limit <= 0 {
		return s.settings.DefaultLimit
	}
	return min(limit, s.settings.MaxLimit)
}

// Recommend returns the personalized feed of username. Repository failures
// degrade to the newest articles of the preferred categories; an error is
// returned only when that fallback fails too.
func (s *RecommendationService) Recommend(ctx context.Context, username string, limit int) (Recommendations, error) {
	limit = s.NormalizeLimit(limit)
	out := Recommendations{Articles: []domain.ScoredArticle{}, Engine: engineName, Mode: recommend.ModePersonalized}

	prefs, err := s.preferences.Get(ctx, username)
	if err != nil {
		return out, fmt.Errorf("load preferences: %w", err)
	}
	if prefs == nil || len(prefs.Categories) == 0 {
		out.Message = MessageNoPreferences
		return out, nil
	}
	out.Categories = prefs.Categories

	if items, ok := s.cached(ctx, username, limit); ok {
		out.Articles = items
		out.Cached = true
		return out, nil
	}

	history, err := s.history.Recent(ctx, username, s.settings.HistoryWindow)
	if err != nil {
		return s.fallback(ctx, out, prefs, limit, fmt.Errorf("load reading history: %w", err))
	}
	out.ReadingHistoryCount = len(history)

	pool, err := s.articles.All(ctx)
	if err != nil {
		return s.fallback(ctx, out, prefs, limit, fmt.Errorf("load articles: %w", err))
	}
	if len(pool) == 0 {
		out.Message = MessageNoArticles
		return out, nil
	}

	res := s.engine.Recommend(recommend.Request{
		Preferences: prefs,
		History:     history,
		Pool:        pool,
		Limit:       limit,
		Now:         s.now(),
	})
	out.Articles = res.Articles
	out.Mode = res.Mode

	switch res.Mode {
	case recommend.ModeDegraded:
		out.Message = MessageFallback
	case recommend.ModeLatest:
		out.Message = MessageAllRead
	default:
		s.store(ctx, username, limit, res.Articles)
	}

	s.logger.Debug("generated recommendations",
		"user", username,
		"count", len(out.Articles),
		"mode", out.Mode,
		"history", len(history),
	)
	return out, nil
}

func (s *RecommendationService) fallback(ctx context.Context, out Recommendations, prefs *domain.UserPreferences, limit int, cause error) (Recommendations, error) {
	s.logger.Error("recommendation failed, serving category fallback", "user", prefs.Username, "error", cause)

	articles, err := s.articles.ByCategories(ctx, prefs.Categories, limit)
	if err != nil {
		return out, fmt.Errorf("%w; fallback: %w", cause, err)
	}

	out.Articles = make([]domain.ScoredArticle, 0, len(articles))
	for _, a := range articles {
		out.Articles = append(out.Articles, domain.ScoredArticle{Article: a, Reason: "Recommended for you"})
	}
	out.Mode = recommend.ModeDegraded
	out.Message = MessageFallback
	metrics.RecommendationsServed.WithLabelValues(string(recommend.ModeDegraded)).Inc()
	return out, nil
}

func (s *RecommendationService) cached(ctx context.Context, username string, limit int) ([]domain.ScoredArticle, bool) {
	if s.cache == nil {
		return nil, false
	}
	items, ok, err := s.cache.Get(ctx, username, limit)
	switch {
	case err != nil:
		metrics.RecommendationCacheResults.WithLabelValues("error").Inc()
		s.logger.Warn("recommendation cache read failed", "user", username, "error", err)
		return nil, false
	case !ok:
		metrics.RecommendationCacheResults.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.RecommendationCacheResults.WithLabelValues("hit").Inc()
		return items, true
	}
}

func (s *RecommendationService) store(ctx context.Context, username string, limit int, items []domain.ScoredArticle) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, username, limit, items); err != nil {
		s.logger.Warn("recommendation cache write failed", "user", username, "error", err)
	}
}

// invalidate drops cached feeds after a profile change. Errors are logged only.
func invalidate(ctx context.Context, cache ports.RecommendationCache, logger *slog.Logger, username string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateUser(ctx, username); err != nil {
		logger.Warn("recommendation cache invalidation failed", "user", username, "error", err)
	}
}

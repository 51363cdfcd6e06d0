package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/ports"
)

const defaultHistoryLimit = 50

// HistoryService records and lists reading interactions.
type HistoryService struct {
	repo   ports.HistoryRepository
	cache  ports.RecommendationCache
	logger *slog.Logger
	now    func() time.Time
}

// NewHistoryService constructs the service; cache may be nil.
func NewHistoryService(repo ports.HistoryRepository, cache ports.RecommendationCache, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HistoryService{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Track appends one interaction stamped with the current time.
func (s *HistoryService) Track(ctx context.Context, entry domain.ReadingEntry) (domain.ReadingEntry, error) {
	entry.ArticleURL = strings.TrimSpace(entry.ArticleURL)
	if entry.ArticleURL == "" {
		return entry, fmt.Errorf("%w: article_url is required", ErrInvalidInput)
	}
	if entry.InteractionType == "" {
		entry.InteractionType = domain.InteractionClick
	}
	if !entry.InteractionType.Valid() {
		return entry, fmt.Errorf("%w: unknown interaction type %q", ErrInvalidInput, entry.InteractionType)
	}
	if entry.ReadingTime < 0 {
		return entry, fmt.Errorf("%w: reading_time must not be negative", ErrInvalidInput)
	}
	entry.Category = strings.ToLower(strings.TrimSpace(entry.Category))
	entry.Timestamp = s.now().UTC()

	if err := s.repo.Append(ctx, entry); err != nil {
		return entry, fmt.Errorf("append reading entry: %w", err)
	}

	invalidate(ctx, s.cache, s.logger, entry.Username)
	s.logger.Debug("tracked article view", "user", entry.Username, "url", entry.ArticleURL, "type", entry.InteractionType)
	return entry, nil
}

// Recent lists the newest entries; non-positive limits select 50.
func (s *HistoryService) Recent(ctx context.Context, username string, limit int) ([]domain.ReadingEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := s.repo.Recent(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("load reading history: %w", err)
	}
	return entries, nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/ports"
)

// PreferenceService reads and replaces user category preferences.
type PreferenceService struct {
	repo   ports.PreferenceRepository
	cache  ports.RecommendationCache
	logger *slog.Logger
}

// NewPreferenceService constructs the service; cache may be nil.
func NewPreferenceService(repo ports.PreferenceRepository, cache ports.RecommendationCache, logger *slog.Logger) *PreferenceService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PreferenceService{repo: repo, cache: cache, logger: logger}
}

// Categories returns the preferred categories, empty when none were set.
func (s *PreferenceService) Categories(ctx context.Context, username string) ([]string, error) {
	prefs, err := s.repo.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	if prefs == nil || prefs.Categories == nil {
		return []string{}, nil
	}
	return prefs.Categories, nil
}

// Update replaces the category list. Labels are normalized and deduplicated;
// unknown labels are rejected.
func (s *PreferenceService) Update(ctx context.Context, username string, categories []string) ([]string, error) {
	seen := make(map[string]struct{}, len(categories))
	normalized := make([]string, 0, len(categories))
	for _, c := range categories {
		label := domain.NormalizeCategory(c)
		if !domain.IsKnownCategory(label) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, c)
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		normalized = append(normalized, label)
	}

	err := s.repo.Upsert(ctx, domain.UserPreferences{
		Username:   username,
		Categories: normalized,
		UpdatedAt:  time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}

	invalidate(ctx, s.cache, s.logger, username)
	s.logger.Info("preferences updated", "user", username, "categories", normalized)
	return normalized, nil
}

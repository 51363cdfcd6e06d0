package usecase

import (
	"context"
	"fmt"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/ports"
)

// Messages of the category-filtered listing.
const (
	MessageNoPreferencesSet = "No preferences set. Please set your preferences first."
	MessageNoCategories     = "No category preferences selected."
)

// ArticleService serves plain article listings.
type ArticleService struct {
	articles    ports.ArticleRepository
	preferences ports.PreferenceRepository
}

// FilteredArticles is the preferred-category listing of one user.
type FilteredArticles struct {
	Articles   []domain.Article
	Categories []string
	Message    string
}

// NewArticleService constructs the service.
func NewArticleService(articles ports.ArticleRepository, preferences ports.PreferenceRepository) *ArticleService {
	return &ArticleService{articles: articles, preferences: preferences}
}

// All returns every stored article.
func (s *ArticleService) All(ctx context.Context) ([]domain.Article, error) {
	articles, err := s.articles.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	return articles, nil
}

// Filtered returns the articles of the user's preferred categories, newest first.
func (s *ArticleService) Filtered(ctx context.Context, username string) (FilteredArticles, error) {
	out := FilteredArticles{Articles: []domain.Article{}}

	prefs, err := s.preferences.Get(ctx, username)
	if err != nil {
		return out, fmt.Errorf("load preferences: %w", err)
	}
	if prefs == nil {
		out.Message = MessageNoPreferencesSet
		return out, nil
	}
	if len(prefs.Categories) == 0 {
		out.Message = MessageNoCategories
		return out, nil
	}
	out.Categories = prefs.Categories

	articles, err := s.articles.ByCategories(ctx, prefs.Categories, 0)
	if err != nil {
		return out, fmt.Errorf("load filtered articles: %w", err)
	}
	out.Articles = articles
	return out, nil
}

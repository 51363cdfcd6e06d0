package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/scanner"
)

// GNewsScanner reads top headlines from gnews.io.
type GNewsScanner struct {
	client apiClient
}

var _ scanner.Scanner = (*GNewsScanner)(nil)

// NewGNewsScanner wires an HTTP client; nil selects a default one.
func NewGNewsScanner(client *http.Client) *GNewsScanner {
	return &GNewsScanner{client: newAPIClient(client, time.Second)}
}

// Name identifies the strategy inside the registry.
func (s *GNewsScanner) Name() string {
	return "gnews"
}

type gnewsResponse struct {
	Errors   []string `json:"errors"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Scan fetches English headlines.
func (s *GNewsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	query := url.Values{}
	query.Set("lang", option(req.Options, "lang", "en"))
	query.Set("country", option(req.Options, "country", "us"))
	query.Set("token", req.APIKey)

	var payload gnewsResponse
	if err := s.client.getJSON(ctx, req.URL, query, &payload); err != nil {
		return nil, fmt.Errorf("gnews: %w", err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("gnews: %s", strings.Join(payload.Errors, "; "))
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		if item.URL == "" {
			continue
		}
		source := item.Source.Name
		if source == "" {
			source = "Unknown"
		}
		articles = append(articles, domain.Article{
			URL:         item.URL,
			Title:       item.Title,
			Summary:     item.Description,
			Content:     item.Content,
			Source:      source,
			ImageURL:    item.Image,
			Category:    req.CategoryOr(domain.CategoryGeneral),
			PublishedAt: parseTimestamp(item.PublishedAt),
		})
	}

	return articles, nil
}

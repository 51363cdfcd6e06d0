package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/scanner"
)

// MediastackScanner reads the live news feed of mediastack.com.
type MediastackScanner struct {
	client apiClient
}

var _ scanner.Scanner = (*MediastackScanner)(nil)

// NewMediastackScanner wires an HTTP client; nil selects a default one.
func NewMediastackScanner(client *http.Client) *MediastackScanner {
	return &MediastackScanner{client: newAPIClient(client, time.Second)}
}

// Name identifies the strategy inside the registry.
func (s *MediastackScanner) Name() string {
	return "mediastack"
}

type mediastackResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data []struct {
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      string `json:"source"`
		Image       string `json:"image"`
		Category    string `json:"category"`
		PublishedAt string `json:"published_at"`
	} `json:"data"`
}

// Scan fetches the latest items. The upstream category is kept when present.
func (s *MediastackScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	query := url.Values{}
	query.Set("access_key", req.APIKey)
	query.Set("countries", option(req.Options, "countries", "us"))
	query.Set("limit", option(req.Options, "limit", "20"))

	var payload mediastackResponse
	if err := s.client.getJSON(ctx, req.URL, query, &payload); err != nil {
		return nil, fmt.Errorf("mediastack: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("mediastack: %s: %s", payload.Error.Code, payload.Error.Message)
	}

	articles := make([]domain.Article, 0, len(payload.Data))
	for _, item := range payload.Data {
		if item.URL == "" {
			continue
		}
		category := req.CategoryOr(domain.CategoryGeneral)
		if item.Category != "" {
			category = domain.NormalizeCategory(item.Category)
		}
		articles = append(articles, domain.Article{
			URL:         item.URL,
			Title:       item.Title,
			Summary:     item.Description,
			Content:     item.Description,
			Source:      item.Source,
			Author:      item.Author,
			ImageURL:    item.Image,
			Category:    category,
			PublishedAt: parseTimestamp(item.PublishedAt),
		})
	}

	return articles, nil
}

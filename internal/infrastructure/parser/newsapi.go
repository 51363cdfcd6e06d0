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

// NewsAPIScanner reads top headlines from newsapi.org.
type NewsAPIScanner struct {
	client apiClient
}

var _ scanner.Scanner = (*NewsAPIScanner)(nil)

// NewNewsAPIScanner wires an HTTP client; nil selects a default one.
func NewNewsAPIScanner(client *http.Client) *NewsAPIScanner {
	return &NewsAPIScanner{client: newAPIClient(client, time.Second)}
}

// Name identifies the strategy inside the registry.
func (s *NewsAPIScanner) Name() string {
	return "newsapi"
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// Scan fetches headlines. Items without an image are skipped.
func (s *NewsAPIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	query := url.Values{}
	query.Set("country", option(req.Options, "country", "us"))
	query.Set("apiKey", req.APIKey)

	var payload newsAPIResponse
	if err := s.client.getJSON(ctx, req.URL, query, &payload); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	if payload.Status == "error" {
		return nil, fmt.Errorf("newsapi: %s", payload.Message)
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		if item.URL == "" || item.URLToImage == "" {
			continue
		}
		articles = append(articles, domain.Article{
			URL:         item.URL,
			Title:       item.Title,
			Summary:     item.Description,
			Content:     item.Content,
			Source:      item.Source.Name,
			Author:      item.Author,
			ImageURL:    item.URLToImage,
			Category:    req.CategoryOr(domain.CategoryGeneral),
			PublishedAt: parseTimestamp(item.PublishedAt),
		})
	}

	return articles, nil
}

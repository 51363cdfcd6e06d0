package parser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/scanner"
)

// RSSScanner reads RSS and Atom feeds.
type RSSScanner struct {
	parser *gofeed.Parser
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client; nil selects a default one.
func NewRSSScanner(client *http.Client) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	p := gofeed.NewParser()
	p.Client = client
	p.UserAgent = userAgent
	return &RSSScanner{parser: p}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan parses the feed at req.URL. Entries fall back to the updated date
// when the published one is missing.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	feed, err := s.parser.ParseURLWithContext(req.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.URL, err)
	}

	source := req.SourceName
	if feed.Title != "" {
		source = feed.Title
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Link == "" {
			continue
		}

		var published time.Time
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}

		author := ""
		if entry.Author != nil {
			author = entry.Author.Name
		}
		image := ""
		if entry.Image != nil {
			image = entry.Image.URL
		}

		articles = append(articles, domain.Article{
			URL:         entry.Link,
			Title:       entry.Title,
			Summary:     entry.Description,
			Content:     entry.Content,
			Source:      source,
			Author:      author,
			ImageURL:    image,
			Category:    req.CategoryOr(domain.CategoryGeneral),
			PublishedAt: published,
		})
	}

	return articles, nil
}

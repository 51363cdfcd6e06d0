package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/ports"
)

var _ ports.ArticleRepository = (*Repository)(nil)

var articleColumns = []string{
	"url", "title", "summary", "content", "source", "author", "image_url", "category",
	"published_at", "sentiment_label", "sentiment_confidence", "entities", "created_at",
}

// ExistingURLs returns a map with URLs that already exist in storage.
func (r *Repository) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(urls) == 0 {
		return result, nil
	}

	query, args, err := r.sb.Select("url").From("articles").Where(r.inStrings("url", urls)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		result[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// SaveArticle upserts the article snapshot keyed by URL. The original
// creation time is kept on update.
func (r *Repository) SaveArticle(ctx context.Context, article domain.Article) error {
	if article.URL == "" {
		return fmt.Errorf("save article: empty url")
	}

	entities := article.Entities
	if entities == nil {
		entities = []string{}
	}
	rawEntities, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	createdAt := article.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args, err := r.sb.Insert("articles").
		Columns(articleColumns...).
		Values(
			article.URL, article.Title, article.Summary, article.Content, article.Source,
			article.Author, article.ImageURL, article.CategoryOrDefault(), toNullTime(article.PublishedAt),
			article.SentimentLabel, article.SentimentConfidence, string(rawEntities), createdAt.UTC(),
		).
		Suffix(`ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			content = excluded.content,
			source = excluded.source,
			author = excluded.author,
			image_url = excluded.image_url,
			category = excluded.category,
			published_at = excluded.published_at,
			sentiment_label = excluded.sentiment_label,
			sentiment_confidence = excluded.sentiment_confidence,
			entities = excluded.entities`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}

// All returns every stored article in insertion order.
func (r *Repository) All(ctx context.Context) ([]domain.Article, error) {
	return r.queryArticles(ctx, r.sb.Select(articleColumns...).From("articles").OrderBy("id"))
}

// ByCategories returns articles in the given categories, newest first.
// Articles without a publication time come last.
func (r *Repository) ByCategories(ctx context.Context, categories []string, limit int) ([]domain.Article, error) {
	if len(categories) == 0 {
		return []domain.Article{}, nil
	}

	normalized := make([]string, 0, len(categories))
	for _, c := range categories {
		normalized = append(normalized, domain.NormalizeCategory(c))
	}

	builder := r.sb.Select(articleColumns...).
		From("articles").
		Where(r.inStrings("category", normalized)).
		OrderBy("published_at IS NULL", "published_at DESC", "id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return r.queryArticles(ctx, builder)
}

func (r *Repository) queryArticles(ctx context.Context, builder sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0)
	for rows.Next() {
		var (
			a           domain.Article
			publishedAt sql.NullTime
			rawEntities string
		)
		if err := rows.Scan(
			&a.URL, &a.Title, &a.Summary, &a.Content, &a.Source, &a.Author, &a.ImageURL, &a.Category,
			&publishedAt, &a.SentimentLabel, &a.SentimentConfidence, &rawEntities, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if publishedAt.Valid {
			a.PublishedAt = publishedAt.Time.UTC()
		}
		if rawEntities != "" {
			if err := json.Unmarshal([]byte(rawEntities), &a.Entities); err != nil {
				return nil, fmt.Errorf("unmarshal entities of %s: %w", a.URL, err)
			}
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

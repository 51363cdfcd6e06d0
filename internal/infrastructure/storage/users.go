package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/ports"
)

var (
	_ ports.PreferenceRepository = (*Repository)(nil)
	_ ports.HistoryRepository    = (*Repository)(nil)
)

// Get returns the stored preferences or nil when the user has none.
func (r *Repository) Get(ctx context.Context, username string) (*domain.UserPreferences, error) {
	query, args, err := r.sb.Select("username", "categories", "updated_at").
		From("user_preferences").
		Where("username = ?", username).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var (
		prefs domain.UserPreferences
		raw   string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&prefs.Username, &raw, &prefs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &prefs.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	if prefs.Categories == nil {
		prefs.Categories = []string{}
	}
	return &prefs, nil
}

// Upsert replaces the category list of the user.
func (r *Repository) Upsert(ctx context.Context, prefs domain.UserPreferences) error {
	categories := prefs.Categories
	if categories == nil {
		categories = []string{}
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	updatedAt := prefs.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query, args, err := r.sb.Insert("user_preferences").
		Columns("username", "categories", "updated_at").
		Values(prefs.Username, string(raw), updatedAt.UTC()).
		Suffix("ON CONFLICT (username) DO UPDATE SET categories = excluded.categories, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

// Append stores one reading interaction.
func (r *Repository) Append(ctx context.Context, entry domain.ReadingEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	interaction := entry.InteractionType
	if interaction == "" {
		interaction = domain.InteractionClick
	}

	query, args, err := r.sb.Insert("reading_history").
		Columns("username", "article_url", "article_title", "category", "reading_time", "interaction_type", "created_at").
		Values(entry.Username, entry.ArticleURL, entry.ArticleTitle, entry.Category, entry.ReadingTime, string(interaction), ts.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reading entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries of the user, newest first.
func (r *Repository) Recent(ctx context.Context, username string, limit int) ([]domain.ReadingEntry, error) {
	builder := r.sb.Select("username", "article_url", "article_title", "category", "reading_time", "interaction_type", "created_at").
		From("reading_history").
		Where("username = ?", username).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ReadingEntry, 0)
	for rows.Next() {
		var (
			e           domain.ReadingEntry
			interaction string
		)
		if err := rows.Scan(&e.Username, &e.ArticleURL, &e.ArticleTitle, &e.Category, &e.ReadingTime, &interaction, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading entry: %w", err)
		}
		e.InteractionType = domain.InteractionType(interaction)
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return entries, nil
}

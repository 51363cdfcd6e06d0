package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Repository persists articles, preferences and reading history in Postgres
// or SQLite. Queries are built with squirrel for the driver's placeholder style.
type Repository struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
}

// Open connects to the database and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY on concurrent ingestion
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := New(db, driver)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// New wraps an existing connection.
func New(db *sql.DB, driver string) *Repository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}
	return &Repository{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Migrate creates missing tables and indexes.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema(r.driver) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func schema(driver string) []string {
	id, ts, float := "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME", "REAL"
	if driver == DriverPostgres {
		id, ts, float = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ", "DOUBLE PRECISION"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id ` + id + `,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'general',
			published_at ` + ts + `,
			sentiment_label TEXT NOT NULL DEFAULT '',
			sentiment_confidence ` + float + ` NOT NULL DEFAULT 0,
			entities TEXT NOT NULL DEFAULT '[]',
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_category ON articles (category, published_at)`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
			username TEXT PRIMARY KEY,
			categories TEXT NOT NULL DEFAULT '[]',
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reading_history (
			id ` + id + `,
			username TEXT NOT NULL,
			article_url TEXT NOT NULL,
			article_title TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			reading_time INTEGER NOT NULL DEFAULT 0,
			interaction_type TEXT NOT NULL DEFAULT 'click',
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reading_history_user ON reading_history (username, created_at)`,
	}
}

// inStrings builds "column IN (...)", or "column = ANY(?)" with a single
// array parameter on Postgres.
func (r *Repository) inStrings(column string, values []string) sq.Sqlizer {
	if r.driver == DriverPostgres {
		return sq.Expr(column+" = ANY(?)", pq.StringArray(values))
	}
	return sq.Eq{column: values}
}

// toNullTime stores the zero time as NULL.
func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

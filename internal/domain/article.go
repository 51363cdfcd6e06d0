package domain

import (
	"errors"
	"strings"
	"time"
)

// CategoryGeneral is assigned to articles the classifier could not place.
const CategoryGeneral = "general"

// CategoryLabels is the fixed label set produced by the category classifier.
var CategoryLabels = []string{
	"technology", "business", "health", "sports", "entertainment",
	"science", "politics", "travel", "environment",
}

// ErrNotFound is returned by repositories when a record is absent.
var ErrNotFound = errors.New("not found")

// Article is a core entity describing one ingested news item. URL is the identity.
type Article struct {
	URL                 string    `json:"url"`
	Title               string    `json:"title"`
	Summary             string    `json:"summary"`
	Content             string    `json:"content"`
	Source              string    `json:"source"`
	Author              string    `json:"author"`
	ImageURL            string    `json:"urlToImage"`
	Category            string    `json:"category"`
	PublishedAt         time.Time `json:"publishedAt"`
	SentimentLabel      string    `json:"sentiment_label"`
	SentimentConfidence float64   `json:"sentiment_confidence"`
	Entities            []string  `json:"entities"`
	CreatedAt           time.Time `json:"created_at"`
}

// CategoryOrDefault returns the normalized category, "general" when unset.
func (a Article) CategoryOrDefault() string {
	return NormalizeCategory(a.Category)
}

// Text is the title and summary joined the way the similarity signal reads them.
func (a Article) Text() string {
	return a.Title + " " + a.Summary
}

// NormalizeCategory lowercases a label and maps empty values to "general".
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return CategoryGeneral
	}
	return category
}

// IsKnownCategory reports whether the label belongs to the classifier label set.
func IsKnownCategory(category string) bool {
	category = NormalizeCategory(category)
	if category == CategoryGeneral {
		return true
	}
	for _, label := range CategoryLabels {
		if label == category {
			return true
		}
	}
	return false
}

// Sentiment labels emitted by the sentiment analyzer.
const (
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
	SentimentPositive = "Positive"
)

// Sentiment is a label with the model confidence.
type Sentiment struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

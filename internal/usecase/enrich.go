package usecase

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/ports"
)

const (
	minSummaryWords    = 30
	minEntityWords     = 30
	minSentimentChars  = 30
	maxClassifyChars   = 1000
	categoryConfidence = 0.5
)

// EnricherDeps wires the optional inference adapters. Any of them may be nil.
type EnricherDeps struct {
	Extractor  ports.ContentExtractor
	Summarizer ports.Summarizer
	Sentiment  ports.SentimentAnalyzer
	Entities   ports.EntityExtractor
	Classifier ports.CategoryClassifier
	Logger     *slog.Logger
}

// Enricher fills content, summary, sentiment, entities and category of
// freshly fetched articles. Inference failures never drop an article.
type Enricher struct {
	extractor  ports.ContentExtractor
	summarizer ports.Summarizer
	sentiment  ports.SentimentAnalyzer
	entities   ports.EntityExtractor
	classifier ports.CategoryClassifier
	logger     *slog.Logger
}

// NewEnricher constructs the enrichment step.
func NewEnricher(deps EnricherDeps) *Enricher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Enricher{
		extractor:  deps.Extractor,
		summarizer: deps.Summarizer,
		sentiment:  deps.Sentiment,
		entities:   deps.Entities,
		classifier: deps.Classifier,
		logger:     logger,
	}
}

// Enrich returns a copy of article with every available enrichment applied.
func (e *Enricher) Enrich(ctx context.Context, article domain.Article) domain.Article {
	if e.extractor != nil {
		article.Content = e.extractor.Extract(ctx, article.URL, article.Content, article.Title)
	}

	if summary := e.summarize(ctx, article.Content); summary != "" {
		article.Summary = summary
	}

	s := e.analyzeSentiment(ctx, article.Content)
	article.SentimentLabel, article.SentimentConfidence = s.Label, s.Confidence

	article.Entities = e.extractEntities(ctx, article.Content)
	article.Category = e.categorize(ctx, article)

	return article
}

// summarize returns "" for short texts or when no summarizer answered.
func (e *Enricher) summarize(ctx context.Context, text string) string {
	if e.summarizer == nil || wordCount(text) < minSummaryWords {
		return ""
	}
	summary, err := e.summarizer.Summarize(ctx, text)
	if err != nil {
		e.logger.Warn("summarization failed", "error", err)
		return ""
	}
	return summary
}

// analyzeSentiment is Neutral with zero confidence for short texts and errors.
func (e *Enricher) analyzeSentiment(ctx context.Context, text string) domain.Sentiment {
	neutral := domain.Sentiment{Label: domain.SentimentNeutral}
	if e.sentiment == nil || utf8.RuneCountInString(strings.TrimSpace(text)) < minSentimentChars {
		return neutral
	}
	s, err := e.sentiment.Sentiment(ctx, text)
	if err != nil {
		e.logger.Warn("sentiment analysis failed", "error", err)
		return neutral
	}
	return s
}

func (e *Enricher) extractEntities(ctx context.Context, text string) []string {
	if e.entities == nil || wordCount(text) < minEntityWords {
		return []string{}
	}
	entities, err := e.entities.Entities(ctx, text)
	if err != nil {
		e.logger.Warn("entity extraction failed", "error", err)
		return []string{}
	}
	return entities
}

// categorize keeps a specific upstream category and otherwise asks the
// classifier, accepting its label only above the confidence threshold.
func (e *Enricher) categorize(ctx context.Context, article domain.Article) string {
	current := article.CategoryOrDefault()
	if current != domain.CategoryGeneral || e.classifier == nil {
		return current
	}

	text := strings.TrimSpace(article.Title) + " " + strings.TrimSpace(article.Content)
	if r := []rune(text); len(r) > maxClassifyChars {
		text = string(r[:maxClassifyChars])
	}

	label, confidence, err := e.classifier.Classify(ctx, text, domain.CategoryLabels)
	if err != nil {
		e.logger.Warn("category prediction failed", "url", article.URL, "error", err)
		return domain.CategoryGeneral
	}
	if confidence > categoryConfidence && domain.IsKnownCategory(label) {
		return domain.NormalizeCategory(label)
	}
	return domain.CategoryGeneral
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

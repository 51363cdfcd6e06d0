package recommend

import (
	"fmt"
	"strings"
	"time"

	"NewsRecommender/internal/domain"
)

// Maximum contribution of every signal.
const (
	MaxCategoryScore   = 40.0
	MaxSimilarityScore = 30.0
	MaxRecencyScore    = 20.0
	MaxPopularityScore = 10.0
)

// Signal names, used for logging and metrics labels.
const (
	signalCategory   = "category"
	signalSimilarity = "content_similarity"
	signalRecency    = "recency"
	signalPopularity = "popularity"
)

// requestContext is the read-only view of one ranking request shared by all
// scorers. It is safe for concurrent reads.
type requestContext struct {
	now           time.Time
	preferred     map[string]struct{}
	hasHistory    bool
	categoryReads map[string]int
	// historyDocs are the analyzed texts of recently read articles found in the pool.
	historyDocs [][]string
}

func newRequestContext(req Request, now time.Time, similarityWindow int) *requestContext {
	rc := &requestContext{
		now:           now,
		preferred:     req.Preferences.CategorySet(),
		hasHistory:    len(req.History) > 0,
		categoryReads: make(map[string]int),
	}

	for _, entry := range req.History {
		rc.categoryReads[domain.NormalizeCategory(entry.Category)]++
	}

	window := req.History
	if similarityWindow > 0 && len(window) > similarityWindow {
		window = window[:similarityWindow]
	}
	recent := make(map[string]struct{}, len(window))
	for _, entry := range window {
		recent[entry.ArticleURL] = struct{}{}
	}
	for _, article := range req.Pool {
		if _, ok := recent[article.URL]; ok {
			rc.historyDocs = append(rc.historyDocs, analyze(article.Text()))
		}
	}

	return rc
}

// signal is one independent scoring dimension.
type signal interface {
	Name() string
	Score(article domain.Article, rc *requestContext) (float64, error)
}

// categorySignal awards the full score when the article category is preferred.
type categorySignal struct{}

func (categorySignal) Name() string { return signalCategory }

func (categorySignal) Score(article domain.Article, rc *requestContext) (float64, error) {
	if _, ok := rc.preferred[article.CategoryOrDefault()]; ok {
		return MaxCategoryScore, nil
	}
	return 0, nil
}

// similaritySignal compares the article with recently read ones in TF-IDF space.
type similaritySignal struct {
	vectorizer vectorizer
}

func (similaritySignal) Name() string { return signalSimilarity }

func (s similaritySignal) Score(article domain.Article, rc *requestContext) (float64, error) {
	if !rc.hasHistory || len(rc.historyDocs) == 0 {
		return 0, nil
	}
	text := article.Text()
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	docs := make([][]string, 0, len(rc.historyDocs)+1)
	docs = append(docs, rc.historyDocs...)
	docs = append(docs, analyze(text))

	vectors, err := s.vectorizer.fitTransform(docs)
	if err != nil {
		return 0, fmt.Errorf("vectorize: %w", err)
	}

	candidate := vectors[len(vectors)-1]
	var total float64
	for _, read := range vectors[:len(vectors)-1] {
		total += cosine(candidate, read)
	}
	mean := total / float64(len(vectors)-1)

	return mean * MaxSimilarityScore, nil
}

// recencySignal is a step function of the article age.
type recencySignal struct{}

func (recencySignal) Name() string { return signalRecency }

func (recencySignal) Score(article domain.Article, rc *requestContext) (float64, error) {
	if article.PublishedAt.IsZero() {
		return 0, nil
	}

	age := rc.now.Sub(article.PublishedAt).Hours()
	switch {
	case age < 6:
		return MaxRecencyScore, nil
	case age < 24:
		return 15, nil
	case age < 48:
		return 10, nil
	case age < 168:
		return 5, nil
	default:
		return 0, nil
	}
}

// popularitySignal rewards categories the user reads often.
type popularitySignal struct{}

func (popularitySignal) Name() string { return signalPopularity }

func (popularitySignal) Score(article domain.Article, rc *requestContext) (float64, error) {
	reads := rc.categoryReads[article.CategoryOrDefault()]
	return min(2*float64(reads), MaxPopularityScore), nil
}

// Package recommend ranks the article pool for one user.
//
// A request flows through a candidate filter (already-read articles are
// dropped), four independent signal scorers (category affinity, content
// similarity, recency, popularity), an aggregator that sums the signals and
// explains them, and a diversity selector that caps any one category on a
// first pass and backfills on a second.
//
// The engine never fails a request. Signal errors zero that signal only; an
// empty candidate pool falls back to the newest articles; an invalid pool or
// a panic falls back to the preferred-category articles and is logged.
package recommend

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/metrics"
)

// Mode tells how a result was produced.
type Mode string

const (
	// ModePersonalized is the scored, diversified ranking.
	ModePersonalized Mode = "personalized"
	// ModeLatest means every pool article was already read.
	ModeLatest Mode = "latest"
	// ModeDegraded is the category fallback served after a ranking failure.
	ModeDegraded Mode = "degraded"
)

// Config tunes the engine. Zero values fall back to DefaultConfig.
type Config struct {
	DefaultLimit     int
	SimilarityWindow int
	MaxFeatures      int
	Workers          int
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:     50,
		SimilarityWindow: 20,
		MaxFeatures:      1000,
		Workers:          4,
	}
}

// Request carries the snapshot one ranking works on. History is newest first.
type Request struct {
	Preferences *domain.UserPreferences
	History     []domain.ReadingEntry
	Pool        []domain.Article
	Limit       int
	// Now anchors the recency signal; zero means time.Now().
	Now time.Time
}

// Result is the ranked output of one request.
type Result struct {
	Articles []domain.ScoredArticle
	Mode     Mode
}

// Degraded reports whether the result came from the failure fallback.
func (r Result) Degraded() bool {
	return r.Mode == ModeDegraded
}

// Engine scores and orders article pools. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	signals []signal
}

// NewEngine wires the four scorers with the given configuration.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.SimilarityWindow <= 0 {
		cfg.SimilarityWindow = def.SimilarityWindow
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = def.MaxFeatures
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		cfg:    cfg,
		logger: logger,
		signals: []signal{
			categorySignal{},
			similaritySignal{vectorizer: vectorizer{maxFeatures: cfg.MaxFeatures}},
			recencySignal{},
			popularitySignal{},
		},
	}
}

// Recommend ranks req.Pool for the user described by req. It always returns
// a result; failures are reported through Result.Mode.
func (e *Engine) Recommend(req Request) (res Result) {
	start := time.Now()
	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	now := req.Now
	if now.IsZero() {
		now = start
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("ranking failed, serving category fallback", "panic", fmt.Sprint(r))
			res = Result{Articles: categoryFallback(req.Pool, req.Preferences, limit), Mode: ModeDegraded}
		}
		metrics.RecommendationsServed.WithLabelValues(string(res.Mode)).Inc()
		metrics.RankingDuration.Observe(time.Since(start).Seconds())
	}()

	if len(req.Pool) == 0 {
		return Result{Articles: []domain.ScoredArticle{}, Mode: ModePersonalized}
	}

	if err := validatePool(req.Pool); err != nil {
		e.logger.Error("invalid article pool, serving category fallback", "error", err)
		return Result{Articles: categoryFallback(req.Pool, req.Preferences, limit), Mode: ModeDegraded}
	}

	candidates := filterUnread(req.Pool, req.History)
	if len(candidates) == 0 {
		e.logger.Debug("every article already read, serving latest", "pool", len(req.Pool))
		return Result{Articles: latest(req.Pool, limit), Mode: ModeLatest}
	}

	rc := newRequestContext(req, now, e.cfg.SimilarityWindow)
	scored := e.scoreAll(candidates, rc)
	sortByScore(scored)
	selected := diversify(scored, limit)

	e.logger.Debug("ranked article pool",
		"pool", len(req.Pool),
		"candidates", len(candidates),
		"returned", len(selected),
		"history", len(req.History),
	)

	return Result{Articles: selected, Mode: ModePersonalized}
}

// scoreAll scores candidates in parallel. Results keep the candidate order.
func (e *Engine) scoreAll(candidates []domain.Article, rc *requestContext) []domain.ScoredArticle {
	scored := make([]domain.ScoredArticle, len(candidates))

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i, article := range candidates {
		g.Go(func() error {
			scored[i] = e.score(article, rc)
			return nil
		})
	}
	_ = g.Wait()

	return scored
}

func (e *Engine) score(article domain.Article, rc *requestContext) domain.ScoredArticle {
	var b domain.ScoreBreakdown
	for _, s := range e.signals {
		value := e.runSignal(s, article, rc)
		switch s.Name() {
		case signalCategory:
			b.Category = value
		case signalSimilarity:
			b.ContentSimilarity = value
		case signalRecency:
			b.Recency = value
		case signalPopularity:
			b.Popularity = value
		}
	}

	return domain.ScoredArticle{
		Article:   article,
		Score:     b.Total(),
		Reason:    buildReason(article, b),
		Breakdown: b,
	}
}

// runSignal fails closed: an error or panic zeroes this signal only.
func (e *Engine) runSignal(s signal, article domain.Article, rc *requestContext) (value float64) {
	defer func() {
		if r := recover(); r != nil {
			e.signalFailed(s, article, fmt.Errorf("panic: %v", r))
			value = 0
		}
	}()

	value, err := s.Score(article, rc)
	if err != nil {
		e.signalFailed(s, article, err)
		return 0
	}
	return value
}

func (e *Engine) signalFailed(s signal, article domain.Article, err error) {
	metrics.SignalFailures.WithLabelValues(s.Name()).Inc()
	e.logger.Warn("signal computation failed", "signal", s.Name(), "url", article.URL, "error", err)
}

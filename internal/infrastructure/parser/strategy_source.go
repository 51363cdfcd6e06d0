package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"NewsRecommender/internal/config"
	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/metrics"
	"NewsRecommender/internal/ports"
	"NewsRecommender/internal/scanner"
)

const maxParallelSources = 4

// ErrNoSources is returned when no configured source produced a result.
var ErrNoSources = errors.New("no news source succeeded")

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// FetchLatest reads every configured source concurrently. A failing source
// is logged and skipped; the call fails only when every source failed.
// Articles are deduplicated by URL, earlier sources winning.
func (s *StrategySource) FetchLatest(ctx context.Context) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch latest", "sources", len(s.sources))

	results := make([][]domain.Article, len(s.sources))
	failed := make([]error, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSources)
	for i, src := range s.sources {
		g.Go(func() error {
			articles, err := s.fetchOne(gctx, src)
			if err != nil {
				metrics.SourceFetchErrors.WithLabelValues(src.Name).Inc()
				s.warn("source failed", "source", src.Name, "kind", src.Kind, "error", err)
				failed[i] = err
				return nil
			}
			s.debug("source produced articles", "source", src.Name, "count", len(articles))
			results[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		aggregated []domain.Article
		seen       = map[string]struct{}{}
		succeeded  int
	)
	for i, articles := range results {
		if failed[i] == nil {
			succeeded++
		}
		for _, article := range articles {
			if _, ok := seen[article.URL]; ok {
				continue
			}
			seen[article.URL] = struct{}{}
			aggregated = append(aggregated, article)
		}
	}

	if succeeded == 0 && len(s.sources) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoSources, errors.Join(failed...))
	}

	s.debug("strategy source done", "total_articles", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) fetchOne(ctx context.Context, src config.SourceConfig) ([]domain.Article, error) {
	strategy, err := s.registry.Resolve(src.Kind)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.Name, err)
	}
	if src.Kind != config.SourceRSS && src.APIKey == "" {
		return nil, fmt.Errorf("source %s: missing api key", src.Name)
	}

	articles, err := strategy.Scan(ctx, scanner.Request{
		SourceName: src.Name,
		URL:        src.URL,
		APIKey:     src.APIKey,
		Category:   src.Category,
		Options:    src.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("scan source %s: %w", src.Name, err)
	}

	for i := range articles {
		if articles[i].Source == "" {
			articles[i].Source = src.Name
		}
	}
	return articles, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

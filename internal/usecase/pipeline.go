package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/metrics"
	"NewsRecommender/internal/ports"
)

const defaultEnrichWorkers = 4

// PipelineDeps wires all driven adapters into the ingestion pipeline. Cache,
// when set, is cleared after a run that stored new articles.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Repository ports.ArticleRepository
	Enricher   *Enricher
	Notifier   ports.Notifier
	Cache      ports.RecommendationCache
	Workers    int
	Logger     *slog.Logger
}

// Pipeline implements the article-ingestion workflow: fetch, skip known
// URLs, enrich, store and report.
type Pipeline struct {
	source     ports.ArticleSource
	repository ports.ArticleRepository
	enricher   *Enricher
	notifier   ports.Notifier
	cache      ports.RecommendationCache
	workers    int
	logger     *slog.Logger

	// running serializes runs triggered by the scheduler and the API.
	running sync.Mutex
}

// IngestReport summarizes one pipeline run.
type IngestReport struct {
	Fetched    int
	Duplicates int
	Stored     int
	Failed     int
	ByCategory map[string]int
	StartedAt  time.Time
	Duration   time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers <= 0 {
		workers = defaultEnrichWorkers
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		source:     deps.Source,
		repository: deps.Repository,
		enricher:   deps.Enricher,
		notifier:   deps.Notifier,
		cache:      deps.Cache,
		workers:    workers,
		logger:     logger,
	}
}

// Run fetches the latest articles and stores the ones not seen before.
func (p *Pipeline) Run(ctx context.Context) (IngestReport, error) {
	p.running.Lock()
	defer p.running.Unlock()

	report := IngestReport{StartedAt: time.Now(), ByCategory: map[string]int{}}
	if p.source == nil || p.repository == nil {
		return report, fmt.Errorf("pipeline is not configured")
	}

	articles, err := p.source.FetchLatest(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch latest: %w", err)
	}
	report.Fetched = len(articles)

	urls := make([]string, 0, len(articles))
	for _, art := range articles {
		urls = append(urls, art.URL)
	}
	known, err := p.repository.ExistingURLs(ctx, urls)
	if err != nil {
		return report, fmt.Errorf("load existing: %w", err)
	}
	if known == nil {
		known = map[string]bool{}
	}

	fresh := make([]domain.Article, 0, len(articles))
	for _, art := range articles {
		if art.URL == "" || known[art.URL] {
			report.Duplicates++
			metrics.IngestedArticles.WithLabelValues(art.Source, "duplicate").Inc()
			continue
		}
		known[art.URL] = true
		fresh = append(fresh, art)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, art := range fresh {
		g.Go(func() error {
			if p.enricher != nil {
				art = p.enricher.Enrich(gctx, art)
			}
			art.Category = art.CategoryOrDefault()

			err := p.repository.SaveArticle(gctx, art)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				metrics.IngestedArticles.WithLabelValues(art.Source, "failed").Inc()
				p.logger.Error("persist article failed", "url", art.URL, "error", err)
				return nil
			}
			report.Stored++
			report.ByCategory[art.Category]++
			metrics.IngestedArticles.WithLabelValues(art.Source, "stored").Inc()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.Duration = time.Since(report.StartedAt)
	p.logger.Info("ingestion finished",
		"fetched", report.Fetched,
		"stored", report.Stored,
		"duplicates", report.Duplicates,
		"failed", report.Failed,
		"duration", report.Duration,
	)

	if p.cache != nil && report.Stored > 0 {
		if err := p.cache.InvalidateAll(ctx); err != nil {
			p.logger.Warn("recommendation cache invalidation failed", "error", err)
		}
	}

	if p.notifier != nil && report.Stored > 0 {
		if err := p.notifier.PublishDigest(ctx, buildReportMessage(report)); err != nil {
			p.logger.Warn("publish ingestion report failed", "error", err)
		}
	}

	return report, nil
}

func buildReportMessage(report IngestReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*News ingestion* %s\n", report.StartedAt.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Fetched: %d, stored: %d, duplicates: %d, failed: %d\n",
		report.Fetched, report.Stored, report.Duplicates, report.Failed)

	categories := make([]string, 0, len(report.ByCategory))
	for c := range report.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: %d\n", c, report.ByCategory[c])
	}

	return b.String()
}

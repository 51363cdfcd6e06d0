package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsRecommender/internal/config"
	"NewsRecommender/internal/infrastructure/cache"
	"NewsRecommender/internal/infrastructure/httpapi"
	"NewsRecommender/internal/infrastructure/llm"
	"NewsRecommender/internal/infrastructure/ml"
	"NewsRecommender/internal/infrastructure/parser"
	"NewsRecommender/internal/infrastructure/scheduler"
	"NewsRecommender/internal/infrastructure/scraper"
	"NewsRecommender/internal/infrastructure/storage"
	"NewsRecommender/internal/infrastructure/telegram"
	"NewsRecommender/internal/logging"
	"NewsRecommender/internal/ports"
	"NewsRecommender/internal/recommend"
	"NewsRecommender/internal/scanner"
	"NewsRecommender/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	repo      *storage.Repository
	cache     *cache.RedisCache
	scheduler *usecase.Scheduler
	server    *httpapi.Server
}

// New opens storage and builds every adapter and service.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &Application{cfg: cfg, logger: baseLogger, repo: repo}

	var recCache ports.RecommendationCache
	if cfg.Redis.Addr != "" {
		a.cache = cache.NewRedisCache(cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), cfg.Recommendation.CacheTTL)
		if err := a.cache.Ping(ctx); err != nil {
			baseLogger.Warn("redis unreachable, recommendations will be computed on every request", "addr", cfg.Redis.Addr, "error", err)
		}
		recCache = a.cache
	}

	pipeline := a.buildPipeline(recCache)
	if cfg.Scheduler.Enabled {
		driver := scheduler.NewCronScheduler(
			cfg.Scheduler.CronExpression,
			cfg.Scheduler.Location(),
			logging.Component(baseLogger, "scheduler"),
		)
		a.scheduler = usecase.NewScheduler(driver, pipeline, logging.Component(baseLogger, "ingestion"))
	}

	rc := cfg.Recommendation
	engine := recommend.NewEngine(recommend.Config{
		DefaultLimit:     rc.DefaultLimit,
		SimilarityWindow: rc.SimilarityWindow,
		MaxFeatures:      rc.MaxFeatures,
		Workers:          rc.Workers,
	}, logging.Component(baseLogger, "ranking"))

	services := httpapi.Services{
		Articles: usecase.NewArticleService(repo, repo),
		Recommendations: usecase.NewRecommendationService(usecase.RecommendationDeps{
			Articles:    repo,
			Preferences: repo,
			History:     repo,
			Cache:       recCache,
			Engine:      engine,
			Settings: usecase.RecommendationSettings{
				DefaultLimit:  rc.DefaultLimit,
				MaxLimit:      rc.MaxLimit,
				HistoryWindow: rc.HistoryWindow,
			},
			Logger: logging.Component(baseLogger, "recommendations"),
		}),
		Preferences: usecase.NewPreferenceService(repo, recCache, logging.Component(baseLogger, "preferences")),
		History:     usecase.NewHistoryService(repo, recCache, logging.Component(baseLogger, "history")),
		Pipeline:    pipeline,
	}
	a.server = httpapi.NewServer(cfg.Server, services, logging.Component(baseLogger, "http"))

	return a, nil
}

func (a *Application) buildPipeline(recCache ports.RecommendationCache) *usecase.Pipeline {
	cfg, base := a.cfg, a.logger

	registry := scanner.NewRegistry(
		parser.NewNewsAPIScanner(nil),
		parser.NewGNewsScanner(nil),
		parser.NewMediastackScanner(nil),
		parser.NewRSSScanner(nil),
	)
	source := parser.NewStrategySource(registry, cfg.Sources, logging.Component(base, "source"))

	deps := usecase.EnricherDeps{Logger: logging.Component(base, "enricher")}
	if cfg.Scraper.Enabled {
		deps.Extractor = scraper.New(
			scraper.WithTimeout(cfg.Scraper.Timeout),
			scraper.WithUserAgent(cfg.Scraper.UserAgent),
			scraper.WithLogger(logging.Component(base, "scraper")),
		)
	}
	if cfg.ML.InferenceURL != "" {
		client := ml.NewClient(cfg.ML, logging.Component(base, "ml"))
		deps.Summarizer = client
		deps.Sentiment = client
		deps.Entities = client
		deps.Classifier = client
	}
	if cfg.ChatGPT.APIKey != "" {
		deps.Summarizer = llm.NewChatGPTClient(cfg.ChatGPT)
	}

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID); tg.Configured() {
		notifier = tg
	}

	return usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Repository: a.repo,
		Enricher:   usecase.NewEnricher(deps),
		Notifier:   notifier,
		Cache:      recCache,
		Workers:    cfg.Scraper.Workers,
		Logger:     logging.Component(base, "pipeline"),
	})
}

// Handler exposes the HTTP routes, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.server.Handler()
}

// Run starts the scheduler and serves HTTP until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("ingestion scheduled", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Location().String())
	}

	runErr := a.server.Run(ctx)

	if a.scheduler != nil {
		timeout := a.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.scheduler.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warn("scheduler stop failed", "error", err)
		}
	}
	return runErr
}

func (a *Application) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("close storage", "error", err)
	}
}

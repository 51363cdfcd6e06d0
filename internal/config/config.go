package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWS_RECOMMENDER_CONFIG"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	redisAddrEnv      = "REDIS_ADDR"
	httpAddrEnv       = "HTTP_ADDR"
	logLevelEnv       = "LOG_LEVEL"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	mlAPIKeyEnv       = "ML_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Source kinds understood by the parser registry.
const (
	SourceNewsAPI    = "newsapi"
	SourceGNews      = "gnews"
	SourceMediastack = "mediastack"
	SourceRSS        = "rss"
)

// sourceKeyEnv maps a source kind to the env variable carrying its API key.
var sourceKeyEnv = map[string]string{
	SourceNewsAPI:    "NEWSAPI_KEY",
	SourceGNews:      "GNEWS_KEY",
	SourceMediastack: "MEDIASTACK_KEY",
}

// Config holds high-level settings required across the application.
type Config struct {
	Logging        LoggingConfig        `yaml:"logging"`
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Scheduler      SchedulerConfig      `yaml:"scheduler"`
	Sources        []SourceConfig       `yaml:"sources" validate:"dive"`
	Scraper        ScraperConfig        `yaml:"scraper"`
	Notifications  NotificationConfig   `yaml:"notifications"`
	ML             MLConfig             `yaml:"ml"`
	ChatGPT        ChatGPTConfig        `yaml:"chatgpt"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig describes the SQL backend. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	DSN    string `yaml:"dsn" validate:"required"`
}

// RedisConfig enables the recommendation cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// SchedulerConfig defines when the ingestion pipeline should run.
type SchedulerConfig struct {
	Enabled        bool           `yaml:"enabled"`
	CronExpression string         `yaml:"cronExpression" validate:"required_if=Enabled true"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SourceConfig describes one upstream news feed and the strategy that reads it.
type SourceConfig struct {
	Name     string            `yaml:"name" validate:"required"`
	Kind     string            `yaml:"kind" validate:"required,oneof=newsapi gnews mediastack rss"`
	URL      string            `yaml:"url" validate:"required,url"`
	APIKey   string            `yaml:"apiKey"`
	Category string            `yaml:"category"`
	Options  map[string]string `yaml:"options"`
}

// ScraperConfig tunes full-text extraction during ingestion.
type ScraperConfig struct {
	Enabled   bool          `yaml:"enabled"`
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
	Workers   int           `yaml:"workers" validate:"gte=0"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// MLConfig describes the inference service used for enrichment.
type MLConfig struct {
	InferenceURL    string        `yaml:"inferenceUrl" validate:"omitempty,url"`
	APIKey          string        `yaml:"apiKey"`
	Timeout         time.Duration `yaml:"timeout"`
	BreakerFailures uint32        `yaml:"breakerFailures"`
	BreakerTimeout  time.Duration `yaml:"breakerTimeout"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint" validate:"omitempty,url"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// RecommendationConfig tunes the ranking service.
type RecommendationConfig struct {
	DefaultLimit     int           `yaml:"defaultLimit" validate:"gte=1"`
	MaxLimit         int           `yaml:"maxLimit" validate:"gtefield=DefaultLimit"`
	HistoryWindow    int           `yaml:"historyWindow" validate:"gte=1"`
	SimilarityWindow int           `yaml:"similarityWindow" validate:"gte=1"`
	MaxFeatures      int           `yaml:"maxFeatures" validate:"gte=1"`
	Workers          int           `yaml:"workers" validate:"gte=1"`
	CacheTTL         time.Duration `yaml:"cacheTTL"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// Validate checks the struct tags of the whole configuration tree.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}
	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(mlAPIKeyEnv); v != "" {
		c.ML.APIKey = v
	}

	for i := range c.Sources {
		env, ok := sourceKeyEnv[c.Sources[i].Kind]
		if !ok {
			continue
		}
		if v := os.Getenv(env); v != "" {
			c.Sources[i].APIKey = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.ReadTimeout > 0 {
		base.Server.ReadTimeout = override.Server.ReadTimeout
	}
	if override.Server.WriteTimeout > 0 {
		base.Server.WriteTimeout = override.Server.WriteTimeout
	}
	if override.Server.ShutdownTimeout > 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Redis.Addr != "" {
		base.Redis = override.Redis
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	base.Scheduler.Enabled = base.Scheduler.Enabled || override.Scheduler.Enabled

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	base.Scraper.Enabled = base.Scraper.Enabled || override.Scraper.Enabled
	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.Timeout > 0 {
		base.Scraper.Timeout = override.Scraper.Timeout
	}
	if override.Scraper.Workers > 0 {
		base.Scraper.Workers = override.Scraper.Workers
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.ML.InferenceURL != "" {
		base.ML.InferenceURL = override.ML.InferenceURL
	}
	if override.ML.APIKey != "" {
		base.ML.APIKey = override.ML.APIKey
	}
	if override.ML.Timeout > 0 {
		base.ML.Timeout = override.ML.Timeout
	}
	if override.ML.BreakerFailures > 0 {
		base.ML.BreakerFailures = override.ML.BreakerFailures
	}
	if override.ML.BreakerTimeout > 0 {
		base.ML.BreakerTimeout = override.ML.BreakerTimeout
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}

	base.Recommendation = mergeRecommendation(base.Recommendation, override.Recommendation)

	return base
}

func mergeRecommendation(base, override RecommendationConfig) RecommendationConfig {
	if override.DefaultLimit > 0 {
		base.DefaultLimit = override.DefaultLimit
	}
	if override.MaxLimit > 0 {
		base.MaxLimit = override.MaxLimit
	}
	if override.HistoryWindow > 0 {
		base.HistoryWindow = override.HistoryWindow
	}
	if override.SimilarityWindow > 0 {
		base.SimilarityWindow = override.SimilarityWindow
	}
	if override.MaxFeatures > 0 {
		base.MaxFeatures = override.MaxFeatures
	}
	if override.Workers > 0 {
		base.Workers = override.Workers
	}
	if override.CacheTTL > 0 {
		base.CacheTTL = override.CacheTTL
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "file:news.db?_pragma=busy_timeout(5000)"},
		Scheduler: SchedulerConfig{CronExpression: "0 * * * *", Timezone: defaultTimezone, location: tz},
		Sources: []SourceConfig{
			{Name: "newsapi", Kind: SourceNewsAPI, URL: "https://newsapi.org/v2/top-headlines"},
			{Name: "gnews", Kind: SourceGNews, URL: "https://gnews.io/api/v4/top-headlines"},
			{Name: "mediastack", Kind: SourceMediastack, URL: "http://api.mediastack.com/v1/news"},
		},
		Scraper: ScraperConfig{
			Enabled:   true,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:   10 * time.Second,
			Workers:   4,
		},
		ML: MLConfig{
			InferenceURL:    "",
			Timeout:         15 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You summarize news articles in two or three neutral sentences.",
		},
		Recommendation: RecommendationConfig{
			DefaultLimit:     50,
			MaxLimit:         100,
			HistoryWindow:    100,
			SimilarityWindow: 20,
			MaxFeatures:      1000,
			Workers:          4,
			CacheTTL:         15 * time.Minute,
		},
	}
}

// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default search surface, carried over from the hosted deployment.
var (
	defaultSources = []string{"csmajors", "leetcode"}

	defaultQueries = []string{
		`(title:"interview" OR title:"experience") AND title:(oa OR onsite OR final OR phone OR screening)`,
		`(title:"interview" OR title:"experience") AND title:(oa OR hackerrank OR leetcode OR coding)`,
		`(title:"interview" OR title:"experience") AND title:("system design" OR architecture OR hld OR lld)`,
	}

	defaultTimeFilters = []string{"day", "week"}
)

// Config holds all runtime configuration for the collector and summarizer.
type Config struct {
	Port     string
	LogLevel string

	DatabaseURL   string
	RedisURL      string
	MongoURI      string
	MongoDatabase string

	// Collection surface.
	RedditBaseURL   string // override for tests; empty means the real API
	RedditUserAgent string

	Sources      []string // subreddits to walk
	Queries      []string // search queries per subreddit
	TimeFilters  []string // one collector pass per filter ("day", "week", …)
	PostLimit    int      // top-N posts per query
	CommentLimit int      // top comments kept per post

	// Relevance gate.
	MinLength      int
	ScoreThreshold int

	// Ingestion queue.
	QueueStream      string
	QueueGroup       string
	QueueBatchSize   int
	QueueVisibility  time.Duration // idle time before a pending message is redelivered
	QueueMaxAttempts int           // deliveries before a message is dead-lettered

	// LLM completion service.
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMPacing      time.Duration // fixed delay between LLM calls

	ScrapeIntervalHours int // how often the cron job fires
}

// Load reads environment variables (optionally from a .env file) and returns
// a validated Config.
func Load() (*Config, error) {
	// Missing .env is fine — env vars may be set by the environment directly.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}

	cfg := &Config{
		Port:          envDefault("PORT", "8080"),
		LogLevel:      envDefault("LOG_LEVEL", "info"),
		DatabaseURL:   dbURL,
		RedisURL:      redisURL,
		MongoURI:      mongoURI,
		MongoDatabase: envDefault("MONGO_DB", "interviewsdb"),

		RedditBaseURL:   os.Getenv("REDDIT_BASE_URL"),
		RedditUserAgent: envDefault("REDDIT_USER_AGENT", "interviewsdb-bot/0.1"),

		Sources:     splitList(os.Getenv("SOURCES"), ",", defaultSources),
		Queries:     splitList(os.Getenv("QUERIES"), ";", defaultQueries),
		TimeFilters: splitList(os.Getenv("TIME_FILTERS"), ",", defaultTimeFilters),

		QueueStream: envDefault("QUEUE_STREAM", "ingest:posts"),
		QueueGroup:  envDefault("QUEUE_GROUP", "summarizer"),

		LLMAPIKey:  os.Getenv("GROQ_API_KEY"),
		LLMBaseURL: envDefault("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:   envDefault("LLM_MODEL", "gemma2-9b-it"),
	}

	var err error
	if cfg.PostLimit, err = envInt("POST_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.CommentLimit, err = envInt("COMMENT_LIMIT", 3); err != nil {
		return nil, err
	}
	if cfg.MinLength, err = envInt("MIN_LENGTH", 400); err != nil {
		return nil, err
	}
	if cfg.ScoreThreshold, err = envInt("SCORE_THRESHOLD", 3); err != nil {
		return nil, err
	}
	if cfg.QueueBatchSize, err = envInt("QUEUE_BATCH_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.QueueMaxAttempts, err = envInt("QUEUE_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.QueueVisibility, err = envDuration("QUEUE_VISIBILITY", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LLMMaxTokens, err = envInt("LLM_MAX_TOKENS", 2000); err != nil {
		return nil, err
	}
	if cfg.LLMPacing, err = envDuration("LLM_PACING", 4*time.Second); err != nil {
		return nil, err
	}
	if cfg.ScrapeIntervalHours, err = envInt("SCRAPE_INTERVAL_HOURS", 24); err != nil {
		return nil, err
	}

	cfg.LLMTemperature = 0.2
	if s := os.Getenv("LLM_TEMPERATURE"); s != "" {
		v, parseErr := strconv.ParseFloat(s, 64)
		if parseErr != nil {
			return nil, fmt.Errorf("LLM_TEMPERATURE must be a float, got %q", s)
		}
		cfg.LLMTemperature = v
	}

	if cfg.ScrapeIntervalHours < 1 {
		return nil, fmt.Errorf("SCRAPE_INTERVAL_HOURS must be a positive integer, got %d", cfg.ScrapeIntervalHours)
	}

	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, s)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a duration (e.g. \"4s\"), got %q", key, s)
	}
	return v, nil
}

func splitList(s, sep string, fallback []string) []string {
	if s == "" {
		return fallback
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the application configuration
type Config struct {
	// Database configuration
	DatabaseDSN string `validate:"required"`

	// Gemini configuration
	GeminiAPIKey     string `validate:"required"`
	GeminiModel      string
	GeminiRatePerMin int

	// Redis configuration (deal event streams)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration (per-site rate limiting)
	MemcacheAddr string

	// Scraper configuration
	CrawlInterval     time.Duration
	ScraperDelay      time.Duration
	ScrapeLimit       int
	ParallelScrapers  bool
	MaxScraperWorkers int

	// Image cache configuration
	ImageCacheDir  string
	OCRServiceAddr string

	// HTTP API configuration
	APIAddr string

	// Price history retention
	HistoryRetention time.Duration
	CleanupInterval  time.Duration

	// URLs for the community listing pages
	PpomURL    string
	PpomEnURL  string
	ClienURL   string
	FMKoreaURL string
	RuliwebURL string
	QuasarURL  string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "600"))
	scraperDelay, _ := strconv.Atoi(getEnv("SCRAPER_DELAY_SECONDS", "1"))
	scrapeLimit, _ := strconv.Atoi(getEnv("SCRAPE_LIMIT", "5"))
	maxWorkers, _ := strconv.Atoi(getEnv("MAX_SCRAPER_WORKERS", "3"))
	ratePerMin, _ := strconv.Atoi(getEnv("GEMINI_RATE_PER_MINUTE", "30"))
	retentionDays, _ := strconv.Atoi(getEnv("HISTORY_RETENTION_DAYS", "30"))
	cleanupHours, _ := strconv.Atoi(getEnv("CLEANUP_INTERVAL_HOURS", "24"))

	return Config{
		DatabaseDSN:          getEnv("DATABASE_DSN", "insightdeal:insightdeal@tcp(localhost:3306)/insightdeal?charset=utf8mb4&parseTime=True&loc=Local"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		GeminiRatePerMin:     ratePerMin,
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "deals"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		ScraperDelay:         time.Duration(scraperDelay) * time.Second,
		ScrapeLimit:          scrapeLimit,
		ParallelScrapers:     getEnv("PARALLEL_EXECUTION", "false") == "true",
		MaxScraperWorkers:    maxWorkers,
		ImageCacheDir:        getEnv("IMAGE_CACHE_DIR", "image_cache"),
		OCRServiceAddr:       os.Getenv("OCR_SERVICE_ADDR"),
		APIAddr:              getEnv("API_ADDR", ":8000"),
		HistoryRetention:     time.Duration(retentionDays) * 24 * time.Hour,
		CleanupInterval:      time.Duration(cleanupHours) * time.Hour,
		PpomURL:              getEnv("PPOM_URL", "https://www.ppomppu.co.kr/zboard/zboard.php?id=ppomppu"),
		PpomEnURL:            getEnv("PPOMEN_URL", "https://www.ppomppu.co.kr/zboard/zboard.php?id=ppomppu4"),
		ClienURL:             getEnv("CLIEN_URL", "https://www.clien.net/service/board/jirum"),
		FMKoreaURL:           getEnv("FMKOREA_URL", "http://www.fmkorea.com/hotdeal"),
		RuliwebURL:           getEnv("RULIWEB_URL", "https://bbs.ruliweb.com/market/board/1020?view=thumbnail&page=1"),
		QuasarURL:            getEnv("QUASAR_URL", "https://quasarzone.com/bbs/qb_saleinfo"),
		Environment:          getEnv("INSIGHTDEAL_ENVIRONMENT", "development"),
	}
}

// Validate checks that the required settings are present. A missing Gemini
// API key aborts startup: no extraction can run without it.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

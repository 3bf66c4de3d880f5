package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"insightdeal/dealworker/config"
	"insightdeal/dealworker/internal/ai"
	"insightdeal/dealworker/internal/api"
	"insightdeal/dealworker/internal/imagecache"
	"insightdeal/dealworker/internal/pipeline"
	"insightdeal/dealworker/internal/scraper"
	"insightdeal/dealworker/internal/store"
	"insightdeal/dealworker/logger"
	"insightdeal/dealworker/services/cache"
	"insightdeal/dealworker/services/publisher"
	"insightdeal/dealworker/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Database
	db, err := gorm.Open(mysql.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Database migration failed")
	}
	if err := st.SeedCommunities(store.DefaultCommunities); err != nil {
		log.Fatal().Err(err).Msg("Community seeding failed")
	}

	// Gemini client
	gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiRatePerMin)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	parser := ai.NewParser(gemini)

	// Side-channel services
	cacheSvc := cache.NewMemcache(cfg.MemcacheAddr)
	log.Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")

	pub := publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB,
		cfg.RedisStream, cfg.RedisStreamCount, cfg.RedisStreamMaxLength)
	defer pub.Close()
	log.Info().Str("addr", cfg.RedisAddr).Str("stream", cfg.RedisStream).Msg("Connected to Redis")

	images := imagecache.New(cfg.ImageCacheDir, imagecache.NewHTTPOCRClient(cfg.OCRServiceAddr))
	engine := pipeline.New(parser, images, pipeline.NewHTTPResolver())

	// Scrapers
	scrapers := scraper.Registry(&cfg, cacheSvc)
	log.Info().Int("scraper_count", len(scrapers)).Msg("Created scrapers")

	// Worker
	w := worker.NewWorker(ctx, scrapers, engine, st, pub, &cfg)
	go func() {
		log.Info().Msg("Starting deal worker")
		w.Start()
	}()

	// HTTP API
	server := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: api.NewRouter(st, cfg.ImageCacheDir),
	}
	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.APIAddr).Msg("Starting HTTP API")
		serverDone <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP API exited with error")
		}
		cancel()
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP API shutdown failed")
	}
}

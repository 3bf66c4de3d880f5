package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"insightdeal/dealworker/config"
	"insightdeal/dealworker/internal/pipeline"
	"insightdeal/dealworker/internal/scraper"
	"insightdeal/dealworker/internal/store"
	"insightdeal/dealworker/logger"
	"insightdeal/dealworker/services/publisher"
)

// Worker drives the scrape → reconcile → persist → publish cycle for all
// registered community scrapers.
type Worker struct {
	ctx      context.Context
	scrapers []scraper.Scraper
	engine   *pipeline.Engine
	store    *store.Store
	pub      publisher.Publisher
	log      *logger.Logger

	crawlInterval    time.Duration
	scraperDelay     time.Duration
	parallel         bool
	maxWorkers       int
	historyRetention time.Duration
	cleanupInterval  time.Duration

	mu           sync.Mutex
	communityIDs map[string]uint
}

// NewWorker creates a worker. pub may be nil when no downstream consumer is
// configured.
func NewWorker(
	ctx context.Context,
	scrapers []scraper.Scraper,
	engine *pipeline.Engine,
	st *store.Store,
	pub publisher.Publisher,
	cfg *config.Config,
) *Worker {
	return &Worker{
		ctx:              ctx,
		scrapers:         scrapers,
		engine:           engine,
		store:            st,
		pub:              pub,
		log:              logger.ForComponent("worker"),
		crawlInterval:    cfg.CrawlInterval,
		scraperDelay:     cfg.ScraperDelay,
		parallel:         cfg.ParallelScrapers,
		maxWorkers:       cfg.MaxScraperWorkers,
		historyRetention: cfg.HistoryRetention,
		cleanupInterval:  cfg.CleanupInterval,
		communityIDs:     make(map[string]uint),
	}
}

// Start runs scrape cycles until the context is cancelled. Price-history
// cleanup runs on its own ticker.
func (w *Worker) Start() {
	cleanup := time.NewTicker(w.cleanupInterval)
	defer cleanup.Stop()

	for {
		start := time.Now()
		w.RunOnce()
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("Scrape cycle finished")

		select {
		case <-w.ctx.Done():
			return
		case <-cleanup.C:
			w.runCleanup()
		case <-time.After(w.crawlInterval):
		}
	}
}

// RunOnce executes a single full scrape cycle across all scrapers.
func (w *Worker) RunOnce() {
	if w.parallel {
		g, _ := errgroup.WithContext(w.ctx)
		g.SetLimit(w.maxWorkers)
		for _, s := range w.scrapers {
			s := s
			g.Go(func() error {
				w.scrapeAndPersist(s)
				return nil
			})
		}
		g.Wait()
	} else {
		for i, s := range w.scrapers {
			if i > 0 && w.scraperDelay > 0 {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(w.scraperDelay):
				}
			}
			w.scrapeAndPersist(s)
		}
	}

	if w.pub != nil {
		if err := w.pub.TrimStreams(); err != nil {
			w.log.Error().Err(err).Msg("Stream trimming failed")
		}
	}
}

// scrapeAndPersist runs one scraper end to end. Per-post failures are logged
// and skipped; they never abort the rest of the batch.
func (w *Worker) scrapeAndPersist(s scraper.Scraper) {
	community := s.Community()
	log := w.log.WithField("community", community)

	communityID, err := w.communityID(community)
	if err != nil {
		log.Error().Err(err).Msg("Unknown community, skipping scraper")
		return
	}

	candidates, err := s.ListPosts()
	if err != nil {
		log.Error().Err(err).Msg("Listing fetch failed")
		return
	}

	// 목록은 최신순이지만 저장은 오래된 글부터 한다
	reverse(candidates)

	var processed, inserted, failures int
	for _, candidate := range candidates {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		result := w.engine.ProcessPost(w.ctx, communityID, candidate, s.FetchContent)
		processed++
		if result.Failed() {
			failures++
			log.Error().Err(result.Err).Str("post_link", candidate.PostLink).Msg("Post processing failed")
			continue
		}
		if result.Skipped {
			log.Debug().Str("post_link", candidate.PostLink).Str("reason", result.Reason).Msg("Post skipped")
			continue
		}

		saved, err := w.store.SaveDeals(result.Deals)
		if err != nil {
			failures++
			log.Error().Err(err).Str("post_link", candidate.PostLink).Msg("Persisting deals failed")
			continue
		}
		inserted += len(saved)

		if w.pub != nil && len(saved) > 0 {
			if err := w.pub.PublishDeals(community, saved); err != nil {
				log.Error().Err(err).Msg("Publishing deals failed")
			}
		}
	}

	log.Info().
		Int("posts", processed).
		Int("inserted", inserted).
		Int("failures", failures).
		Msg("Scraper cycle done")
}

func (w *Worker) runCleanup() {
	removed, err := w.store.CleanupPriceHistory(w.historyRetention)
	if err != nil {
		w.log.Error().Err(err).Msg("Price history cleanup failed")
		return
	}
	if removed > 0 {
		w.log.Info().Int64("removed", removed).Msg("Price history cleaned up")
	}
}

func (w *Worker) communityID(name string) (uint, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := w.communityIDs[name]; ok {
		return id, nil
	}
	c, err := w.store.CommunityByName(name)
	if err != nil {
		return 0, err
	}
	w.communityIDs[name] = c.ID
	return c.ID, nil
}

func reverse(candidates []scraper.PostCandidate) {
	for i, j := 0, len(candidates)-1; i < j; i, j = i+1, j-1 {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
}

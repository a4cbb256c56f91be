package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairchancejobs/jobboard-be/internal/enrich"
	"github.com/fairchancejobs/jobboard-be/internal/search"
	"github.com/fairchancejobs/jobboard-be/internal/worker/domain"
	"github.com/fairchancejobs/jobboard-be/internal/worker/storage"
	"github.com/fairchancejobs/jobboard-be/shared/postgresql"
	"github.com/fairchancejobs/jobboard-be/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	DBClient      *postgresql.Client
	RabbitClient  *rabbitmq.Client
	SearchClient  *search.Client
	TransitStops  []enrich.TransitStop
	Concurrency   int
	PrefetchCount int
	JobTimeout    time.Duration
}

// Worker consumes pipeline messages and runs each scraped job through
// enrichment and indexing.
type Worker struct {
	logger        *slog.Logger
	storage       *storage.Storage
	rabbitClient  *rabbitmq.Client
	searchClient  *search.Client
	transitStops  []enrich.TransitStop
	workerID      string
	concurrency   int
	prefetchCount int
	jobTimeout    time.Duration
	jobsChan      chan *domain.JobMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = cfg.Concurrency * 2
	}

	return &Worker{
		logger:        cfg.Logger,
		storage:       storage.NewStorage(cfg.DBClient.GetDB(), cfg.Logger),
		rabbitClient:  cfg.RabbitClient,
		searchClient:  cfg.SearchClient,
		transitStops:  cfg.TransitStops,
		workerID:      fmt.Sprintf("pipeline-worker-%s", uuid.NewString()[:8]),
		concurrency:   cfg.Concurrency,
		prefetchCount: prefetch,
		jobTimeout:    cfg.JobTimeout,
		jobsChan:      make(chan *domain.JobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming pipeline messages. Blocks until the context is
// canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting pipeline worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping pipeline worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Pipeline worker stopped")
}

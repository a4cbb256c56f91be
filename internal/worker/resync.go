package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fairchancejobs/jobboard-be/internal/worker/domain"
	"github.com/fairchancejobs/jobboard-be/internal/worker/storage"
	"github.com/fairchancejobs/jobboard-be/shared/rabbitmq"
)

const (
	// An enriched record older than this never got its index message
	// processed; put it back on the queue.
	stuckEnrichedAfter = 15 * time.Minute

	// Failed records older than this need manual triage instead of blind
	// retries.
	failedRetryWindow = 24 * time.Hour

	resyncRunTimeout = 2 * time.Minute
)

// Resyncer periodically re-publishes pipeline messages for records that
// stalled between stages, so transient outages heal without operator action.
type Resyncer struct {
	logger    *slog.Logger
	storage   *storage.Storage
	rabbit    *rabbitmq.Client
	batchSize int
	cron      *cron.Cron
}

// NewResyncer creates a resync scheduler over the given storage and queue.
func NewResyncer(logger *slog.Logger, st *storage.Storage, rabbit *rabbitmq.Client, batchSize int) *Resyncer {
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Resyncer{
		logger:    logger,
		storage:   st,
		rabbit:    rabbit,
		batchSize: batchSize,
	}
}

// Start schedules resync runs on the given cron spec.
func (r *Resyncer) Start(spec string) error {
	r.cron = cron.New()

	if _, err := r.cron.AddFunc(spec, r.runOnce); err != nil {
		return err
	}

	r.cron.Start()
	r.logger.Info("Resync schedule started",
		slog.String("spec", spec),
		slog.Int("batch_size", r.batchSize),
	)

	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (r *Resyncer) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.logger.Info("Resync schedule stopped")
}

func (r *Resyncer) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), resyncRunTimeout)
	defer cancel()

	now := time.Now()

	stuck, err := r.storage.ListStuckEnriched(ctx, now.Add(-stuckEnrichedAfter), r.batchSize)
	if err != nil {
		r.logger.Error("Resync: failed to list stuck enriched records",
			slog.String("error", err.Error()),
		)
	} else {
		r.republish(ctx, stuck, "stuck_enriched")
	}

	failed, err := r.storage.ListRecentFailed(ctx, now.Add(-failedRetryWindow), r.batchSize)
	if err != nil {
		r.logger.Error("Resync: failed to list recent failed records",
			slog.String("error", err.Error()),
		)
		return
	}
	r.republish(ctx, failed, "recent_failed")
}

func (r *Resyncer) republish(ctx context.Context, ids []string, reason string) {
	for _, id := range ids {
		if err := r.rabbit.PublishJSON(ctx, domain.JobMessage{JobID: id}); err != nil {
			r.logger.Error("Resync: failed to republish",
				slog.String("job_id", id),
				slog.String("reason", reason),
				slog.String("error", err.Error()),
			)
			return
		}
	}

	if len(ids) > 0 {
		r.logger.Info("Resync: republished records",
			slog.String("reason", reason),
			slog.Int("count", len(ids)),
		)
	}
}

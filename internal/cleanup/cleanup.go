// Package cleanup coordinates scraped-job deletion across the primary
// store, the search index, and the dedup cache.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	"github.com/fairchancejobs/jobboard-be/internal/api/storage"
	"github.com/fairchancejobs/jobboard-be/internal/pipelineclient"
)

// searchDeleteBatchSize caps how many document ids go into one pipeline
// delete call during bulk cleanup.
const searchDeleteBatchSize = 100

// nukeListBatchSize is the id page size when wiping the whole store.
const nukeListBatchSize = 500

// Orchestrator deletes scraped jobs in a fixed order: primary store first,
// then the search index, then the dedup cache. A record that is gone from
// the store can never resurface even if the later steps fail; those are
// logged and swept up by pipeline maintenance instead.
type Orchestrator struct {
	logger   *slog.Logger
	storage  *storage.Storage
	pipeline *pipelineclient.Client
	rdb      *redis.Client
}

// NewOrchestrator wires the three backends. rdb may be nil when the dedup
// cache is disabled.
func NewOrchestrator(logger *slog.Logger, st *storage.Storage, pipeline *pipelineclient.Client, rdb *redis.Client) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		storage:  st,
		pipeline: pipeline,
		rdb:      rdb,
	}
}

// Result reports the outcome for one record in a bulk delete, in request
// order.
type Result struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// DeleteOne removes a single scraped job. The id may be the internal record
// id or the search document id.
func (o *Orchestrator) DeleteOne(ctx context.Context, id string) error {
	job, err := o.resolve(ctx, id)
	if err != nil {
		return err
	}

	if err := o.storage.DeleteScrapedJob(ctx, job.ID); err != nil {
		return err
	}

	// The store row is gone regardless of what happens below; failures here
	// leave an orphaned document or cache key and must surface to the caller.
	if err := o.pipeline.DeleteDocuments(ctx, deleteDocumentsRequest([]*model.ScrapedJob{job})); err != nil {
		return fmt.Errorf("record deleted but search cleanup failed: %w", err)
	}

	if o.rdb != nil {
		key := domain.DedupKey(job.Source, job.ExternalID)
		if err := o.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("record deleted but dedup cache cleanup failed: %w", err)
		}
	}

	o.logger.Info("Scraped job deleted",
		slog.String("job_id", job.ID),
		slog.String("source", job.Source),
	)

	return nil
}

// DeleteBulk removes a batch of scraped jobs, returning one result per
// requested id in the same order. Missing records are reported per item and
// never abort the rest of the batch.
func (o *Orchestrator) DeleteBulk(ctx context.Context, ids []string) []Result {
	results := make([]Result, len(ids))
	var deleted []*model.ScrapedJob

	for i, id := range ids {
		results[i] = Result{ID: id}

		job, err := o.resolve(ctx, id)
		if err != nil {
			results[i].Error = errorLabel(err)
			continue
		}

		if err := o.storage.DeleteScrapedJob(ctx, job.ID); err != nil {
			results[i].Error = errorLabel(err)
			continue
		}

		results[i].Deleted = true
		deleted = append(deleted, job)
	}

	for start := 0; start < len(deleted); start += searchDeleteBatchSize {
		end := start + searchDeleteBatchSize
		if end > len(deleted) {
			end = len(deleted)
		}
		o.cleanupSearch(ctx, deleted[start:end])
	}

	keys := make([]string, 0, len(deleted))
	for _, job := range deleted {
		keys = append(keys, domain.DedupKey(job.Source, job.ExternalID))
	}
	o.cleanupCache(ctx, keys)

	return results
}

// NukeAll wipes every scraped job from the store, the search index, and the
// dedup cache. Returns how many records were removed from the store.
func (o *Orchestrator) NukeAll(ctx context.Context) (int, error) {
	total := 0
	afterID := ""

	for {
		ids, err := o.storage.ListScrapedJobIDs(ctx, afterID, nukeListBatchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			if err := o.storage.DeleteScrapedJob(ctx, id); err != nil {
				// Rows can vanish between listing and deleting; those were
				// not removed by us and must not inflate the count.
				if errors.Is(err, domain.ErrScrapedJobNotFound) {
					continue
				}
				return total, err
			}
			total++
		}

		afterID = ids[len(ids)-1]
	}

	if err := o.pipeline.NukeAll(ctx); err != nil {
		return total, fmt.Errorf("store wiped but search nuke failed: %w", err)
	}

	o.clearDedupCache(ctx)

	o.logger.Warn("All scraped jobs nuked",
		slog.Int("deleted", total),
	)

	return total, nil
}

// resolve finds a record by internal id first, then by search document id.
func (o *Orchestrator) resolve(ctx context.Context, id string) (*model.ScrapedJob, error) {
	job, err := o.storage.GetScrapedJobByID(ctx, id)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, domain.ErrScrapedJobNotFound) {
		return nil, err
	}

	return o.storage.GetScrapedJobByTypesenseID(ctx, id)
}

func (o *Orchestrator) cleanupSearch(ctx context.Context, jobs []*model.ScrapedJob) {
	if len(jobs) == 0 {
		return
	}

	if err := o.pipeline.DeleteDocuments(ctx, deleteDocumentsRequest(jobs)); err != nil {
		o.logger.Warn("Search index cleanup failed, documents left for pipeline maintenance",
			slog.Int("count", len(jobs)),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Orchestrator) cleanupCache(ctx context.Context, keys []string) {
	if o.rdb == nil || len(keys) == 0 {
		return
	}

	if err := o.rdb.Del(ctx, keys...).Err(); err != nil {
		o.logger.Warn("Dedup cache cleanup failed",
			slog.Int("count", len(keys)),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Orchestrator) clearDedupCache(ctx context.Context) {
	if o.rdb == nil {
		return
	}

	iter := o.rdb.Scan(ctx, 0, domain.DedupKey("*", "*"), 0).Iterator()
	for iter.Next(ctx) {
		if err := o.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			o.logger.Warn("Dedup cache cleanup failed",
				slog.String("key", iter.Val()),
				slog.String("error", err.Error()),
			)
			return
		}
	}
	if err := iter.Err(); err != nil {
		o.logger.Warn("Dedup cache scan failed",
			slog.String("error", err.Error()),
		)
	}
}

// deleteDocumentsRequest carries both the search document ids and the
// external ids of the deleted records, so the pipeline can drop documents
// and forget its own dedup state for rows that never reached the index.
func deleteDocumentsRequest(jobs []*model.ScrapedJob) pipelineclient.DeleteDocumentsRequest {
	var req pipelineclient.DeleteDocumentsRequest
	for _, job := range jobs {
		if job.TypesenseID != nil && *job.TypesenseID != "" {
			req.TypesenseIDs = append(req.TypesenseIDs, *job.TypesenseID)
		}
		req.ExternalIDs = append(req.ExternalIDs, job.ExternalID)
	}
	return req
}

func errorLabel(err error) string {
	if errors.Is(err, domain.ErrScrapedJobNotFound) {
		return "not_found"
	}
	return err.Error()
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	apidomain "github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	"github.com/fairchancejobs/jobboard-be/internal/enrich"
	"github.com/fairchancejobs/jobboard-be/internal/worker/domain"
)

// processJob runs one scraped job through the remaining pipeline stages.
// Records resume from where they last stopped: a record that already
// reached "enriched" goes straight to indexing, an "indexed" record is a
// no-op ACK.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	job, err := w.storage.GetScrapedJob(jobCtx, msg.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobGone) {
			w.logger.Warn("Scraped job deleted before processing, dropping message",
				slog.String("job_id", msg.JobID),
			)
			return err
		}
		return domain.NewRetryableError(fmt.Errorf("failed to load scraped job: %w", err))
	}

	status := apidomain.Status(job.Status)

	if status == apidomain.StatusIndexed {
		w.logger.Debug("Scraped job already indexed, nothing to do",
			slog.String("job_id", job.ID),
		)
		return nil
	}

	needsEnrich := status != apidomain.StatusEnriched
	if status == apidomain.StatusFailed && job.FailureStage != nil && *job.FailureStage == apidomain.StageIndex {
		// Enrichment already landed before the index stage broke.
		needsEnrich = false
	}

	if needsEnrich {
		enrichment := w.enrichJob(job)
		if err := w.storage.SaveEnrichment(jobCtx, job.ID, enrichment); err != nil {
			if errors.Is(err, domain.ErrJobGone) {
				return err
			}
			w.markFailed(jobCtx, job.ID, apidomain.StageEnrich, err)
			return fmt.Errorf("enrich stage failed: %w", err)
		}

		// Reload so indexing sees the stored signals.
		job, err = w.storage.GetScrapedJob(jobCtx, job.ID)
		if err != nil {
			return err
		}
	}

	if err := w.indexJob(jobCtx, job); err != nil {
		w.markFailed(jobCtx, job.ID, apidomain.StageIndex, err)
		return fmt.Errorf("index stage failed: %w", err)
	}

	w.logger.Info("Scraped job indexed",
		slog.String("job_id", job.ID),
		slog.String("source", job.Source),
	)

	return nil
}

// enrichJob computes all signals for one record. Pure computation, so it
// cannot partially fail: every signal is derived or defaulted.
func (w *Worker) enrichJob(job *model.ScrapedJob) *domain.Enrichment {
	shifts := enrich.InferShifts(job.Title, job.Description)

	onetCode := ""
	if job.ONETCode != nil {
		onetCode = *job.ONETCode
	}
	secondChance := enrich.ScoreSecondChance(job.Company, job.Title, job.Description, onetCode)

	e := &domain.Enrichment{
		ShiftMorning:   shifts.Morning,
		ShiftAfternoon: shifts.Afternoon,
		ShiftEvening:   shifts.Evening,
		ShiftOvernight: shifts.Overnight,
		ShiftWeekend:   shifts.Weekend,
		ShiftSource:    shifts.Source,

		SecondChanceTier:       secondChance.Tier,
		SecondChanceScore:      secondChance.Score,
		SecondChanceConfidence: secondChance.Confidence,
		SecondChanceSignals:    secondChance.Signals,
		SecondChanceReasoning:  secondChance.Reasoning,
	}

	if job.Lat != nil && job.Lng != nil {
		if transit, ok := enrich.ScoreTransit(*job.Lat, *job.Lng, w.transitStops); ok {
			e.TransitScore = &transit.Score
			e.TransitDistanceM = &transit.DistanceM
			e.TransitBus = &transit.Bus
			e.TransitRail = &transit.Rail
		}
	}

	return e
}

// indexJob upserts the search document and records its id. Reusing the
// existing document id keeps reindexing idempotent.
func (w *Worker) indexJob(ctx context.Context, job *model.ScrapedJob) error {
	docID := uuid.NewString()
	if job.TypesenseID != nil && *job.TypesenseID != "" {
		docID = *job.TypesenseID
	}

	doc := buildDocument(docID, job)

	storedID, err := w.searchClient.UpsertDocument(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to upsert search document: %w", err)
	}

	if err := w.storage.MarkIndexed(ctx, job.ID, storedID); err != nil {
		return err
	}

	return nil
}

func (w *Worker) markFailed(ctx context.Context, jobID string, stage string, cause error) {
	if err := w.storage.MarkFailed(ctx, jobID, stage, cause.Error()); err != nil {
		w.logger.Error("Failed to record pipeline failure",
			slog.String("job_id", jobID),
			slog.String("stage", stage),
			slog.String("error", err.Error()),
		)
	}
}

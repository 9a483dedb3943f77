package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/dynamic-secrets/internal/database"
	leasesDomain "github.com/allisson/dynamic-secrets/internal/leases/domain"
)

// PruneWorker consumes prune jobs and hard-deletes definitions whose leases
// have drained. Jobs for definitions with live leases stay pending and are
// retried on the next tick without counting against the retry budget.
type PruneWorker struct {
	config    WorkerConfig
	txManager database.TxManager
	jobs      RevocationJobRepository
	leases    LeaseRepository
	pruner    DefinitionPruner
	logger    *slog.Logger
}

// NewPruneWorker creates a new prune worker.
func NewPruneWorker(
	config WorkerConfig,
	txManager database.TxManager,
	jobs RevocationJobRepository,
	leases LeaseRepository,
	pruner DefinitionPruner,
	logger *slog.Logger,
) *PruneWorker {
	return &PruneWorker{
		config:    config,
		txManager: txManager,
		jobs:      jobs,
		leases:    leases,
		pruner:    pruner,
		logger:    logger,
	}
}

// Start runs the processing loop until the context is cancelled.
func (w *PruneWorker) Start(ctx context.Context) error {
	w.logger.Info("starting prune worker",
		slog.Duration("interval", w.config.Interval),
		slog.Int("batch_size", w.config.BatchSize),
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping prune worker")
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessJobs(ctx); err != nil {
				w.logger.Error("failed to process prune jobs", slog.Any("error", err))
			}
		}
	}
}

// ProcessJobs handles one batch of pending prune jobs in a transaction. The
// row locks from the pending query keep concurrent workers off the batch.
func (w *PruneWorker) ProcessJobs(ctx context.Context) error {
	return w.txManager.WithTx(ctx, func(ctx context.Context) error {
		jobs, err := w.jobs.GetPendingJobs(ctx, leasesDomain.RevocationJobTypePrune, w.config.BatchSize)
		if err != nil {
			return err
		}

		if len(jobs) == 0 {
			return nil
		}

		w.logger.Info("processing prune jobs", slog.Int("count", len(jobs)))

		for _, job := range jobs {
			done, err := w.pruneDefinition(ctx, job)
			if err != nil {
				w.logger.Error("failed to prune definition",
					slog.String("job_id", job.ID.String()),
					slog.String("dynamic_secret_id", job.SubjectID.String()),
					slog.Any("error", err),
				)

				job.Retries++
				errorMsg := err.Error()
				job.LastError = &errorMsg
				if job.Retries >= w.config.MaxRetries {
					job.Status = leasesDomain.RevocationJobStatusFailed
				}

				if err := w.jobs.Update(ctx, job); err != nil {
					return err
				}
				continue
			}

			if !done {
				// Leases still live; leave the job pending for the next tick.
				continue
			}

			now := time.Now().UTC()
			job.Status = leasesDomain.RevocationJobStatusProcessed
			job.ProcessedAt = &now

			if err := w.jobs.Update(ctx, job); err != nil {
				return err
			}
		}

		return nil
	})
}

// pruneDefinition deletes the definition when no leases remain. Returns false
// without error while leases are still live.
func (w *PruneWorker) pruneDefinition(ctx context.Context, job *leasesDomain.RevocationJob) (bool, error) {
	leases, err := w.leases.FindByDynamicSecretID(ctx, job.SubjectID)
	if err != nil {
		return false, err
	}

	if len(leases) > 0 {
		w.logger.Debug("definition still has live leases",
			slog.String("dynamic_secret_id", job.SubjectID.String()),
			slog.Int("lease_count", len(leases)),
		)
		return false, nil
	}

	if err := w.pruner.DeleteByID(ctx, job.SubjectID); err != nil {
		return false, err
	}

	w.logger.Info("pruned dynamic secret definition",
		slog.String("dynamic_secret_id", job.SubjectID.String()),
	)
	return true, nil
}

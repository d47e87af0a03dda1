package sched

import (
	"context"
	"time"

	"book-processor/internal/usecase"

	"github.com/rs/zerolog"
)

// RunWorker re-executes the full pipeline pass on an interval when the binary
// runs in daemon mode. One pass runs immediately on start; overlapping passes
// cannot happen because the next tick waits for Run to return.
type RunWorker struct {
	interval time.Duration
	runner   usecase.RunnerUseCase
	log      *zerolog.Logger
}

func NewRunWorker(interval time.Duration, runner usecase.RunnerUseCase, logger *zerolog.Logger) *RunWorker {
	workerLog := logger.With().Str("component", "RunWorker").Logger()
	return &RunWorker{
		interval: interval,
		runner:   runner,
		log:      &workerLog,
	}
}

// Run blocks until ctx is cancelled. A store failure during a pass stops the
// worker and is returned to the caller.
func (w *RunWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting run worker")

	if err := w.runOnce(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping run worker")
			return ctx.Err()
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *RunWorker) runOnce(ctx context.Context) error {
	report, err := w.runner.Run(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("pass aborted")
		return err
	}
	w.log.Info().
		Int("stalled_reset", report.StalledReset).
		Int("resumed", report.Resumed).
		Int("new_books", report.NewBooks).
		Int("processed", report.Processed).
		Int("failed", report.Failed).
		Msg("pass finished")
	return nil
}

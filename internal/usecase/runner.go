package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"book-processor/internal/domain"
	"book-processor/internal/domain/model"
	"book-processor/internal/domain/ports/repository"
	"book-processor/internal/infra/logging"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ RunnerUseCase = (*runnerUC)(nil)

// RunnerUseCase executes one full pass: reset stalled books, resume anything
// in progress, pull new work, then process the pending queue. In-progress
// books always run before new intake so partially finished work completes
// first. Stage and ingestion failures are contained; a store failure aborts
// the pass with an error.
type RunnerUseCase interface {
	Run(ctx context.Context) (*RunReport, error)
}

// RunReport summarizes one pass for logging and the status endpoint.
type RunReport struct {
	RunID        string
	StalledReset int
	Resumed      int
	NewBooks     int
	Processed    int
	Failed       int
	StatusCounts map[model.BookStatus]int
}

type runnerUC struct {
	books    repository.BookRepository
	pipeline PipelineUseCase
	sweep    SweepUseCase
	ingest   IngestUseCase
	log      *zerolog.Logger
}

func NewRunnerUseCase(
	books repository.BookRepository,
	pipeline PipelineUseCase,
	sweep SweepUseCase,
	ingest IngestUseCase,
	logger *zerolog.Logger,
) *runnerUC {
	runLog := logger.With().Str("component", "Runner").Logger()
	return &runnerUC{
		books:    books,
		pipeline: pipeline,
		sweep:    sweep,
		ingest:   ingest,
		log:      &runLog,
	}
}

func (r *runnerUC) Run(ctx context.Context) (*RunReport, error) {
	runID := ulid.Make().String()
	ctx = logging.WithRunID(ctx, runID)
	report := &RunReport{RunID: runID}
	r.log.Info().Str("run_id", runID).Msg("pipeline pass starting")

	// 1. Reset books stuck mid-stage since before the staleness threshold.
	reset, err := r.sweep.ResetStalled(ctx)
	if err != nil {
		return nil, fmt.Errorf("stalled sweep: %w", err)
	}
	report.StalledReset = reset

	// 2. Resume in-progress books before touching anything new.
	resumable, err := r.books.FindResumable(ctx, repository.NoTX)
	if err != nil {
		return nil, fmt.Errorf("find resumable: %w", err)
	}
	if len(resumable) > 0 {
		r.log.Info().Int("count", len(resumable)).Msg("resuming in-progress books")
	}
	for _, b := range resumable {
		if err := r.processOne(ctx, b.ID, report); err != nil {
			return nil, err
		}
		report.Resumed++
	}

	// 3. Intake. A source failure is zero new books this run, not a run failure.
	created, err := r.ingest.IngestNew(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("ingestion failed; continuing with tracked books")
	} else {
		report.NewBooks = created
	}

	// 4. Pending queue, oldest first.
	pending, err := r.books.FindPending(ctx, repository.NoTX)
	if err != nil {
		return nil, fmt.Errorf("find pending: %w", err)
	}
	for _, b := range pending {
		if err := r.processOne(ctx, b.ID, report); err != nil {
			return nil, err
		}
	}

	// 5. Summary, always.
	counts, err := r.books.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	report.StatusCounts = counts
	r.logSummary(counts)

	return report, nil
}

// processOne contains a single book's stage failure and propagates everything
// else as a store failure.
func (r *runnerUC) processOne(ctx context.Context, id string, report *RunReport) error {
	err := r.pipeline.Process(ctx, id)
	switch {
	case err == nil:
		report.Processed++
		return nil
	case errors.Is(err, domain.ErrStageFailed):
		report.Processed++
		report.Failed++
		return nil
	default:
		return fmt.Errorf("process %s: %w", id, err)
	}
}

func (r *runnerUC) logSummary(counts map[model.BookStatus]int) {
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	ev := r.log.Info()
	for _, s := range statuses {
		ev = ev.Int(s, counts[model.BookStatus(s)])
	}
	ev.Msg("processing summary")
}

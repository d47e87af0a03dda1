package usecase

import (
	"context"
	"fmt"
	"time"

	"book-processor/internal/domain/ports/repository"
	"book-processor/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SweepUseCase = (*sweepUC)(nil)

// SweepUseCase reclaims books stuck in an in-progress status: anything that
// has not moved within the staleness threshold is presumed crashed mid-stage
// and converted to failed with a stalled message. Books already in failed are
// deliberately left alone; resume only targets in-progress statuses, so a
// failed book waits for operator intervention rather than being retried
// automatically.
type SweepUseCase interface {
	ResetStalled(ctx context.Context) (int, error)
}

type sweepUC struct {
	books     repository.BookRepository
	threshold time.Duration
	now       func() time.Time
	log       *zerolog.Logger
}

func NewSweepUseCase(books repository.BookRepository, threshold time.Duration, logger *zerolog.Logger) *sweepUC {
	if threshold <= 0 {
		threshold = 24 * time.Hour
	}
	sweepLog := logger.With().Str("component", "Sweep").Logger()
	return &sweepUC{
		books:     books,
		threshold: threshold,
		now:       time.Now,
		log:       &sweepLog,
	}
}

func (s *sweepUC) ResetStalled(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.threshold)
	stalled, err := s.books.FindStalled(ctx, repository.NoTX, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stalled: %w", err)
	}

	msg := fmt.Sprintf("job stalled: no progress for over %s", s.threshold)
	for _, b := range stalled {
		s.log.Warn().Str("job_id", b.ID).Str("title", b.Title).
			Str("status", string(b.Status)).Time("last_updated", b.LastUpdated).
			Msg("resetting stalled book")
		if err := s.books.RecordError(ctx, repository.NoTX, b.ID, msg); err != nil {
			return 0, fmt.Errorf("reset stalled %s: %w", b.ID, err)
		}
	}
	if n := len(stalled); n > 0 {
		metrics.AddBooksStalledReset(n)
	}
	return len(stalled), nil
}

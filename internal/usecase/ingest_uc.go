package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"book-processor/internal/domain"
	"book-processor/internal/domain/model"
	"book-processor/internal/domain/ports/adapter"
	"book-processor/internal/domain/ports/repository"
	"book-processor/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ IngestUseCase = (*ingestUC)(nil)

// IngestUseCase pulls new items from the upstream reading list and creates
// book records for the ones not yet tracked. A source failure means zero new
// books this run; it never blocks processing of already-tracked books.
type IngestUseCase interface {
	IngestNew(ctx context.Context) (int, error)
}

type ingestUC struct {
	books  repository.BookRepository
	source adapter.TaskSource
	cutoff time.Time
	log    *zerolog.Logger
}

func NewIngestUseCase(books repository.BookRepository, source adapter.TaskSource, cutoff time.Time, logger *zerolog.Logger) *ingestUC {
	ingestLog := logger.With().Str("component", "Ingest").Logger()
	return &ingestUC{
		books:  books,
		source: source,
		cutoff: cutoff,
		log:    &ingestLog,
	}
}

func (u *ingestUC) IngestNew(ctx context.Context) (int, error) {
	items, err := u.source.ListNewWork(ctx, u.cutoff)
	if err != nil {
		return 0, fmt.Errorf("list new work: %w", err)
	}

	created := 0
	for _, item := range items {
		_, err := u.books.Find(ctx, repository.NoTX, item.ID)
		if err == nil {
			continue // already tracked
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return created, fmt.Errorf("check existing %s: %w", item.ID, err)
		}

		book, err := model.NewBook(item.ID, item.Title, item.Created)
		if err != nil {
			u.log.Warn().Str("job_id", item.ID).Err(err).Msg("skipping malformed work item")
			continue
		}
		if err := u.books.Create(ctx, repository.NoTX, book); err != nil {
			return created, fmt.Errorf("create %s: %w", item.ID, err)
		}
		created++
		u.log.Info().Str("job_id", book.ID).Str("title", book.Title).Msg("added new book to queue")
	}
	if created > 0 {
		metrics.AddBooksIngested(created)
	}
	return created, nil
}

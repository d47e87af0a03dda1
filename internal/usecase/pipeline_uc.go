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
	"book-processor/internal/infra/logging"
	"book-processor/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ PipelineUseCase = (*pipelineUC)(nil)

// PipelineUseCase drives one book through the stage sequence. Process drains
// the book through every stage that succeeds in a single call; it does not
// stop after one transition.
type PipelineUseCase interface {
	Process(ctx context.Context, id string) error
}

// stageStep is one row of the state machine table: the status that marks the
// stage as in flight, the status to advance to on success, and the stage
// function itself. Writing the entry status before the stage runs is what lets
// the recovery sweep see "was mid-fetch when the process died" without a
// separate in-flight flag.
type stageStep struct {
	name  string
	entry model.BookStatus
	next  model.BookStatus
	run   func(ctx context.Context, book *model.Book) (model.StageOutput, error)
}

type pipelineUC struct {
	books     repository.BookRepository
	txManager repository.TransactionManager
	fetcher   adapter.BookFetcher
	summarize adapter.Summarizer
	render    adapter.Renderer
	publish   adapter.Publisher

	table map[model.BookStatus]*stageStep
	log   *zerolog.Logger
}

func NewPipelineUseCase(
	books repository.BookRepository,
	txManager repository.TransactionManager,
	fetcher adapter.BookFetcher,
	summarizer adapter.Summarizer,
	renderer adapter.Renderer,
	publisher adapter.Publisher,
	logger *zerolog.Logger,
) *pipelineUC {
	pipeLog := logger.With().Str("component", "Pipeline").Logger()
	p := &pipelineUC{
		books:     books,
		txManager: txManager,
		fetcher:   fetcher,
		summarize: summarizer,
		render:    renderer,
		publish:   publisher,
		log:       &pipeLog,
	}
	p.table = p.buildTable()
	return p
}

func (p *pipelineUC) buildTable() map[model.BookStatus]*stageStep {
	fetch := &stageStep{
		name:  "fetch",
		entry: model.BookStatusFetching,
		next:  model.BookStatusSummarizing,
		run: func(ctx context.Context, book *model.Book) (model.StageOutput, error) {
			path, err := p.fetcher.Fetch(ctx, book.Title)
			if err != nil {
				return nil, err
			}
			if path == "" {
				return nil, errors.New("book download failed - not found in catalog")
			}
			return model.FetchOutput{BookFilePath: path}, nil
		},
	}
	summarize := &stageStep{
		name:  "summarize",
		entry: model.BookStatusSummarizing,
		next:  model.BookStatusRendering,
		run: func(ctx context.Context, book *model.Book) (model.StageOutput, error) {
			path, err := p.summarize.Summarize(ctx, book.BookFilePath, book.Title)
			if err != nil {
				return nil, err
			}
			if path == "" {
				return nil, errors.New("podcast generation failed")
			}
			return model.SummarizeOutput{PodcastFilePath: path}, nil
		},
	}
	render := &stageStep{
		name:  "render",
		entry: model.BookStatusRendering,
		next:  model.BookStatusPublishing,
		run: func(ctx context.Context, book *model.Book) (model.StageOutput, error) {
			dir, err := p.render.Render(ctx, book.BookFilePath, book.Title)
			if err != nil {
				return nil, err
			}
			if dir == "" {
				return nil, errors.New("audiobook conversion failed")
			}
			return model.RenderOutput{AudiobookDirPath: dir}, nil
		},
	}
	publish := &stageStep{
		name:  "publish",
		entry: model.BookStatusPublishing,
		next:  model.BookStatusCompleted,
		run: func(ctx context.Context, book *model.Book) (model.StageOutput, error) {
			out, err := p.publish.Publish(ctx, book)
			if err != nil {
				return nil, err
			}
			if out.FolderID == "" {
				return nil, errors.New("drive upload failed")
			}
			return out, nil
		},
	}

	// A book found mid-fetch re-runs the fetch stage; same for the others.
	return map[model.BookStatus]*stageStep{
		model.BookStatusPending:     fetch,
		model.BookStatusFetching:    fetch,
		model.BookStatusSummarizing: summarize,
		model.BookStatusRendering:   render,
		model.BookStatusPublishing:  publish,
	}
}

// Process iterates the state table until the book reaches a terminal status or
// a stage fails. Stage failures are recorded on the book and returned wrapped
// in domain.ErrStageFailed; any other error is a store failure and must abort
// the whole run.
func (p *pipelineUC) Process(ctx context.Context, id string) error {
	defer logging.TraceDuration(p.log, "Pipeline.Process")()

	book, err := p.books.Find(ctx, repository.NoTX, id)
	if err != nil {
		return fmt.Errorf("load book %s: %w", id, err)
	}

	ctx = logging.WithJob(ctx, book.ID, book.Title)
	log := logging.With(ctx, p.log)
	log.Info().Str("status", string(book.Status)).Msg("processing book")

	for {
		step, ok := p.table[book.Status]
		if !ok {
			// completed or failed: nothing to drive
			return nil
		}

		// Mark intent before doing the work.
		if book.Status != step.entry {
			if err := p.books.UpdateStatus(ctx, repository.NoTX, id, step.entry, nil); err != nil {
				return fmt.Errorf("enter stage %s: %w", step.name, err)
			}
			book.Status = step.entry
		}

		log.Info().Str("stage", step.name).Msg("stage start")
		start := time.Now()
		out, stageErr := step.run(ctx, book)
		metrics.ObserveStage(step.name, time.Since(start), stageErr)

		if stageErr != nil {
			msg := stageErr.Error()
			log.Error().Str("stage", step.name).Str("error", msg).Msg("stage failed")
			if err := p.books.RecordError(ctx, repository.NoTX, id, msg); err != nil {
				return fmt.Errorf("record error for %s: %w", id, err)
			}
			metrics.IncBookProcessed(string(model.BookStatusFailed))
			return fmt.Errorf("%s stage: %s: %w", step.name, msg, domain.ErrStageFailed)
		}

		if pub, ok := out.(model.PublishOutput); ok {
			// Persist the drive ids and flip to completed in one transaction
			// so a crash never leaves uploaded refs on a non-terminal record.
			err := p.txManager.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
				if err := p.books.UpdateStatus(ctx, tx, id, model.BookStatusPublishing, pub); err != nil {
					return err
				}
				return p.books.MarkCompleted(ctx, tx, id, pub.FolderID)
			})
			if err != nil {
				return fmt.Errorf("finalize %s: %w", id, err)
			}
			metrics.IncBookProcessed(string(model.BookStatusCompleted))
			log.Info().Msg("book completed")
			return nil
		}

		if err := p.books.UpdateStatus(ctx, repository.NoTX, id, step.next, out); err != nil {
			return fmt.Errorf("advance to %s for %s: %w", step.next, id, err)
		}

		book, err = p.books.Find(ctx, repository.NoTX, id)
		if err != nil {
			return fmt.Errorf("reload book %s: %w", id, err)
		}
	}
}

package repository

import (
	"context"
	"time"

	"book-processor/internal/domain/model"
)

// BookRepository is the durable state store for book jobs. Every method is a
// single atomic unit against the backing store; readers never observe a
// partially applied write. The repository does not validate state-machine
// legality (that is the pipeline driver's job); it only guarantees the record
// stays internally consistent.
type BookRepository interface {
	// Create inserts a new record with status pending. Creating an ID that
	// already exists is a no-op, not an error: intake runs are idempotent.
	Create(ctx context.Context, tx Tx, book *model.Book) error

	// Find returns the current record or domain.ErrNotFound.
	Find(ctx context.Context, tx Tx, id string) (*model.Book, error)

	// UpdateStatus atomically sets the status, merges the stage output (nil
	// means status-only), clears any previous error message, and refreshes
	// last_updated. Returns domain.ErrNotFound for an unknown ID.
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.BookStatus, out model.StageOutput) error

	// RecordError atomically sets status=failed, records the message and
	// increments retry_count.
	RecordError(ctx context.Context, tx Tx, id, message string) error

	// MarkCompleted atomically sets status=completed and attaches the final
	// drive folder reference.
	MarkCompleted(ctx context.Context, tx Tx, id, driveFolderID string) error

	// FindPending returns pending books oldest-first by created_at, so early
	// queued titles are never starved by new intake.
	FindPending(ctx context.Context, tx Tx) ([]*model.Book, error)

	// FindResumable returns in-progress books oldest-first by last_updated.
	FindResumable(ctx context.Context, tx Tx) ([]*model.Book, error)

	// FindStalled returns in-progress books whose last_updated is before the
	// cutoff, i.e. presumed crashed mid-stage.
	FindStalled(ctx context.Context, tx Tx, before time.Time) ([]*model.Book, error)

	ListAll(ctx context.Context, tx Tx) ([]*model.Book, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.BookStatus]int, error)
}
